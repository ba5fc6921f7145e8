package pipeline

import (
	"HeroChatAI/app/models"
	"HeroChatAI/app/prompts"
	"HeroChatAI/app/rag"
)

// Stage names of the character chat graph. Callers address inputs and
// results with them.
const (
	StageMultiplexer = "multiplexer"
	StageEmbedder    = "embedder"
	StageRetriever   = "retriever"
	StagePrompt      = "prompt"
	StageGenerator   = "llm"
)

type RAGOptions struct {
	EmbedDim     int
	TopK         int
	MaxNewTokens int
}

// NewRAGPipeline wires embed, retrieve, prompt and generate stages. The
// question entering the multiplexer fans out to the embedder and to the
// prompt, which waits for the retrieved documents before the llm runs.
func NewRAGPipeline(embedder models.Embedder, retriever rag.Retriever, builder *prompts.Builder, generator models.Generator, opts RAGOptions) (*Graph, error) {
	g := NewGraph()

	components := []struct {
		name string
		c    Component
	}{
		{StageMultiplexer, NewMultiplexer[string]()},
		{StageEmbedder, NewEmbedderStage(embedder, opts.EmbedDim)},
		{StageRetriever, NewRetrieverStage(retriever, opts.TopK)},
		{StagePrompt, NewPromptStage(builder)},
		{StageGenerator, NewGeneratorStage(generator, opts.MaxNewTokens)},
	}
	for _, c := range components {
		if err := g.AddComponent(c.name, c.c); err != nil {
			return nil, err
		}
	}

	connections := [][2]string{
		{"multiplexer.value", "embedder.text"},
		{"multiplexer.value", "prompt.query"},
		{"embedder.embedding", "retriever.query_embedding"},
		{"retriever.documents", "prompt.documents"},
		{"prompt.prompt", "llm"},
	}
	for _, c := range connections {
		if err := g.Connect(c[0], c[1]); err != nil {
			return nil, err
		}
	}
	return g, nil
}
