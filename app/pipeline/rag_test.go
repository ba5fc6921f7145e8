package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HeroChatAI/app/errs"
	"HeroChatAI/app/identity"
	"HeroChatAI/app/prompts"
	"HeroChatAI/app/rag"
)

type stubEmbedder struct {
	vec   []float32
	err   error
	calls []string
}

func (s *stubEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	s.calls = append(s.calls, text)
	return s.vec, s.err
}

type stubRetriever struct {
	docs       []rag.Document
	err        error
	partitions []string
	topK       int
}

func (s *stubRetriever) Retrieve(_ context.Context, _ []float32, partition string, topK int) ([]rag.Document, error) {
	s.partitions = append(s.partitions, partition)
	s.topK = topK
	return s.docs, s.err
}

type stubGenerator struct {
	replies   []string
	err       error
	prompts   []string
	maxTokens int
}

func (s *stubGenerator) Generate(_ context.Context, prompt string, maxNewTokens int) ([]string, error) {
	s.prompts = append(s.prompts, prompt)
	s.maxTokens = maxNewTokens
	return s.replies, s.err
}

func ragInputs(question, partition string, aliases identity.AliasSet) map[string]Values {
	return map[string]Values{
		StageMultiplexer: {"value": question},
		StagePrompt:      {"superhero_names": aliases},
		StageRetriever:   {"partition": partition},
	}
}

func TestRAGPipelineRun(t *testing.T) {
	embedder := &stubEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	retriever := &stubRetriever{docs: []rag.Document{{Content: "I'm Batman."}, {Content: "I am vengeance."}}}
	generator := &stubGenerator{replies: []string{"\nI'm fine, citizen.", "other"}}

	g, err := NewRAGPipeline(embedder, retriever, prompts.NewBuilder(), generator, RAGOptions{EmbedDim: 3, TopK: 5, MaxNewTokens: 250})
	require.NoError(t, err)

	aliases := identity.NewAliasSet("BATMAN", "BRUCE WAYNE", "BRUCE-WAYNE")
	out, err := g.Run(context.Background(), ragInputs("How are you?", "batman", aliases))
	require.NoError(t, err)

	assert.Equal(t, map[string]Values{StageGenerator: {"replies": []string{"\nI'm fine, citizen.", "other"}}}, out)
	assert.Equal(t, []string{"How are you?"}, embedder.calls)
	assert.Equal(t, []string{"batman"}, retriever.partitions)
	assert.Equal(t, 5, retriever.topK)
	assert.Equal(t, 250, generator.maxTokens)

	expected, err := prompts.NewBuilder().Build("How are you?", retriever.docs, aliases)
	require.NoError(t, err)
	require.Len(t, generator.prompts, 1)
	assert.Equal(t, expected, generator.prompts[0])
}

func TestRAGPipelineEmptyRetrieval(t *testing.T) {
	generator := &stubGenerator{replies: []string{"Up, up and away."}}
	g, err := NewRAGPipeline(&stubEmbedder{vec: []float32{1}}, &stubRetriever{}, prompts.NewBuilder(), generator, RAGOptions{EmbedDim: 1, TopK: 5, MaxNewTokens: 10})
	require.NoError(t, err)

	out, err := g.Run(context.Background(), ragInputs("Who are you?", "superman", identity.NewAliasSet("SUPERMAN")))

	require.NoError(t, err)
	assert.Equal(t, []string{"Up, up and away."}, out[StageGenerator]["replies"])
	require.Len(t, generator.prompts, 1)
	assert.NotContains(t, generator.prompts[0], prompts.DocumentDelimiter)
}

func TestRAGPipelineStageFailures(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name      string
		embedder  *stubEmbedder
		retriever *stubRetriever
		generator *stubGenerator
		kind      error
	}{
		{
			name:      "embedder unavailable",
			embedder:  &stubEmbedder{err: down},
			retriever: &stubRetriever{},
			generator: &stubGenerator{replies: []string{"x"}},
			kind:      errs.ErrEmbeddingService,
		},
		{
			name:      "wrong embedding dimension",
			embedder:  &stubEmbedder{vec: []float32{1, 2}},
			retriever: &stubRetriever{},
			generator: &stubGenerator{replies: []string{"x"}},
			kind:      errs.ErrEmbeddingService,
		},
		{
			name:      "retriever unavailable",
			embedder:  &stubEmbedder{vec: []float32{1, 2, 3}},
			retriever: &stubRetriever{err: down},
			generator: &stubGenerator{replies: []string{"x"}},
			kind:      errs.ErrRetrievalService,
		},
		{
			name:      "generator unavailable",
			embedder:  &stubEmbedder{vec: []float32{1, 2, 3}},
			retriever: &stubRetriever{},
			generator: &stubGenerator{err: down},
			kind:      errs.ErrGenerationService,
		},
		{
			name:      "generator without candidates",
			embedder:  &stubEmbedder{vec: []float32{1, 2, 3}},
			retriever: &stubRetriever{},
			generator: &stubGenerator{replies: []string{}},
			kind:      errs.ErrGenerationService,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewRAGPipeline(tt.embedder, tt.retriever, prompts.NewBuilder(), tt.generator, RAGOptions{EmbedDim: 3, TopK: 5, MaxNewTokens: 10})
			require.NoError(t, err)

			out, err := g.Run(context.Background(), ragInputs("q", "batman", identity.NewAliasSet("BATMAN")))

			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.kind)
			if tt.kind != errs.ErrGenerationService {
				assert.Empty(t, tt.generator.prompts)
			}
		})
	}
}

func TestRAGPipelineDescribe(t *testing.T) {
	g, err := NewRAGPipeline(&stubEmbedder{}, &stubRetriever{}, prompts.NewBuilder(), &stubGenerator{}, RAGOptions{})
	require.NoError(t, err)

	out := g.Describe()
	for _, want := range []string{
		"multiplexer.value -> embedder.text",
		"multiplexer.value -> prompt.query",
		"embedder.embedding -> retriever.query_embedding",
		"retriever.documents -> prompt.documents",
		"prompt.prompt -> llm.prompt",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRequestID(t *testing.T) {
	assert.Equal(t, "-", RequestID(context.Background()))
	assert.Equal(t, "abc", RequestID(WithRequestID(context.Background(), "abc")))
}
