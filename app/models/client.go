package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"HeroChatAI/app/utils/restclient"
)

const (
	endpoint          = "/v1/chat/completions"
	embeddingEndpoint = "/v1/embeddings"
)

var (
	_ Generator = &LLMClient{}
	_ Embedder  = &LLMClient{}
)

// LLMClient talks to any OpenAI-compatible server (LM Studio, vLLM, Ollama).
type LLMClient struct {
	restClient      *restclient.RestClient
	model           string
	embeddingsModel string
	temperature     float64
}

type LLMClientConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	EmbeddingsModel string
	Temperature     float64
	Timeout         time.Duration
}

func NewLLMClient(cfg LLMClientConfig) *LLMClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:1234"
	}
	var headers map[string]string
	if cfg.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + cfg.APIKey}
	}
	return &LLMClient{
		restClient:      restclient.NewRestClient(cfg.BaseURL, headers, cfg.Timeout),
		model:           cfg.Model,
		embeddingsModel: cfg.EmbeddingsModel,
		temperature:     cfg.Temperature,
	}
}

func (mc *LLMClient) Generate(ctx context.Context, prompt string, maxNewTokens int) ([]string, error) {
	payload := requestPayload{
		Model:       mc.model,
		Messages:    []Message{{Role: "user", Content: prompt}},
		Temperature: mc.temperature,
		MaxTokens:   maxNewTokens,
	}

	var response ResponseLLM
	if err := mc.restClient.PostJSON(ctx, endpoint, payload, &response); err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	replies := make([]string, len(response.Choices))
	for i, c := range response.Choices {
		replies[i] = c.Message.Content
	}
	return replies, nil
}

func (mc *LLMClient) EmbedText(ctx context.Context, input string) ([]float32, error) {
	if mc.embeddingsModel == "" {
		return nil, errors.New("embeddings model is empty; configure LLMClient.embeddingsModel")
	}

	req := embeddingRequestPayload{
		Model: mc.embeddingsModel,
		Input: input,
	}
	var resp embeddingResponse
	if err := mc.restClient.PostJSON(ctx, embeddingEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}
	return resp.Data[0].Embedding, nil
}
