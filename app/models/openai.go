package models

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

var (
	_ Generator = &OpenAIClient{}
	_ Embedder  = &OpenAIClient{}
)

// OpenAIClient uses the official OpenAI API through go-openai.
type OpenAIClient struct {
	client          *openai.Client
	model           string
	embeddingsModel string
	dimensions      int
	temperature     float32
}

type OpenAIClientConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	EmbeddingsModel string
	// Dimensions asks text-embedding-3 models for shortened vectors. Zero
	// keeps the model's native size.
	Dimensions      int
	Temperature     float32
}

func NewOpenAIClient(cfg OpenAIClientConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is empty")
	}
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.EmbeddingsModel == "" {
		cfg.EmbeddingsModel = string(openai.SmallEmbedding3)
	}
	return &OpenAIClient{
		client:          openai.NewClientWithConfig(conf),
		model:           cfg.Model,
		embeddingsModel: cfg.EmbeddingsModel,
		dimensions:      cfg.Dimensions,
		temperature:     cfg.Temperature,
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, maxNewTokens int) ([]string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxNewTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai chat completion returned no choices")
	}

	replies := make([]string, len(resp.Choices))
	for i, choice := range resp.Choices {
		replies[i] = choice.Message.Content
	}
	return replies, nil
}

func (c *OpenAIClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model:      openai.EmbeddingModel(c.embeddingsModel),
		Input:      []string{text},
		Dimensions: c.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned from API")
	}
	return resp.Data[0].Embedding, nil
}
