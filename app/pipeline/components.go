package pipeline

import (
	"context"
	"reflect"

	"HeroChatAI/app/errs"
	"HeroChatAI/app/identity"
	"HeroChatAI/app/models"
	"HeroChatAI/app/prompts"
	"HeroChatAI/app/rag"
)

// Multiplexer forwards its single input unchanged so that one external
// value can feed several stages.
type Multiplexer struct {
	typ reflect.Type
}

func NewMultiplexer[T any]() *Multiplexer {
	return &Multiplexer{typ: reflect.TypeFor[T]()}
}

func (m *Multiplexer) Inputs() []Socket  { return []Socket{{Name: "value", Type: m.typ}} }
func (m *Multiplexer) Outputs() []Socket { return []Socket{{Name: "value", Type: m.typ}} }

func (m *Multiplexer) Run(_ context.Context, in Values) (Values, error) {
	return Values{"value": in["value"]}, nil
}

// EmbedderStage turns text into a query embedding of a fixed dimension.
type EmbedderStage struct {
	embedder  models.Embedder
	dimension int
}

func NewEmbedderStage(embedder models.Embedder, dimension int) *EmbedderStage {
	return &EmbedderStage{embedder: embedder, dimension: dimension}
}

func (s *EmbedderStage) Inputs() []Socket  { return []Socket{SocketOf[string]("text")} }
func (s *EmbedderStage) Outputs() []Socket { return []Socket{SocketOf[[]float32]("embedding")} }

func (s *EmbedderStage) Run(ctx context.Context, in Values) (Values, error) {
	const op = "pipeline.embedder"
	vec, err := s.embedder.EmbedText(ctx, in["text"].(string))
	if err != nil {
		return nil, errs.Wrap(errs.ErrEmbeddingService, op, err)
	}
	if s.dimension > 0 && len(vec) != s.dimension {
		return nil, errs.New(errs.ErrEmbeddingService, op, "embedding has %d dimensions, want %d", len(vec), s.dimension)
	}
	return Values{"embedding": vec}, nil
}

// RetrieverStage fetches the topK documents closest to the query embedding
// from the partition given as input.
type RetrieverStage struct {
	retriever rag.Retriever
	topK      int
}

func NewRetrieverStage(retriever rag.Retriever, topK int) *RetrieverStage {
	return &RetrieverStage{retriever: retriever, topK: topK}
}

func (s *RetrieverStage) Inputs() []Socket {
	return []Socket{SocketOf[[]float32]("query_embedding"), SocketOf[string]("partition")}
}

func (s *RetrieverStage) Outputs() []Socket { return []Socket{SocketOf[[]rag.Document]("documents")} }

func (s *RetrieverStage) Run(ctx context.Context, in Values) (Values, error) {
	docs, err := s.retriever.Retrieve(ctx, in["query_embedding"].([]float32), in["partition"].(string), s.topK)
	if err != nil {
		return nil, errs.Wrap(errs.ErrRetrievalService, "pipeline.retriever", err)
	}
	if docs == nil {
		docs = []rag.Document{}
	}
	return Values{"documents": docs}, nil
}

type PromptStage struct {
	builder *prompts.Builder
}

func NewPromptStage(builder *prompts.Builder) *PromptStage {
	return &PromptStage{builder: builder}
}

func (s *PromptStage) Inputs() []Socket {
	return []Socket{
		SocketOf[string]("query"),
		SocketOf[[]rag.Document]("documents"),
		SocketOf[identity.AliasSet]("superhero_names"),
	}
}

func (s *PromptStage) Outputs() []Socket { return []Socket{SocketOf[string]("prompt")} }

func (s *PromptStage) Run(_ context.Context, in Values) (Values, error) {
	prompt, err := s.builder.Build(in["query"].(string), in["documents"].([]rag.Document), in["superhero_names"].(identity.AliasSet))
	if err != nil {
		return nil, err
	}
	return Values{"prompt": prompt}, nil
}

type GeneratorStage struct {
	generator    models.Generator
	maxNewTokens int
}

func NewGeneratorStage(generator models.Generator, maxNewTokens int) *GeneratorStage {
	return &GeneratorStage{generator: generator, maxNewTokens: maxNewTokens}
}

func (s *GeneratorStage) Inputs() []Socket  { return []Socket{SocketOf[string]("prompt")} }
func (s *GeneratorStage) Outputs() []Socket { return []Socket{SocketOf[[]string]("replies")} }

func (s *GeneratorStage) Run(ctx context.Context, in Values) (Values, error) {
	const op = "pipeline.llm"
	replies, err := s.generator.Generate(ctx, in["prompt"].(string), s.maxNewTokens)
	if err != nil {
		return nil, errs.Wrap(errs.ErrGenerationService, op, err)
	}
	if len(replies) == 0 {
		return nil, errs.New(errs.ErrGenerationService, op, "generator returned no candidates")
	}
	return Values{"replies": replies}, nil
}
