package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"HeroChatAI/app/utils/restclient"
)

const (
	tgiGenerateEndpoint = "/generate"
	teiEmbedEndpoint    = "/embed"
)

var (
	_ Generator = &TGIClient{}
	_ Embedder  = &TGIClient{}
)

// TGIClient speaks the Hugging Face text-generation-inference API for
// generation and the text-embeddings-inference API for embeddings. The two
// are usually separate deployments, so each has its own base URL.
type TGIClient struct {
	generation  *restclient.RestClient
	embeddings  *restclient.RestClient
	temperature float64
}

type TGIClientConfig struct {
	GenerateURL string
	EmbedURL    string
	APIKey      string
	Temperature float64
	Timeout     time.Duration
}

func NewTGIClient(cfg TGIClientConfig) *TGIClient {
	var headers map[string]string
	if cfg.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + cfg.APIKey}
	}
	c := &TGIClient{temperature: cfg.Temperature}
	if cfg.GenerateURL != "" {
		c.generation = restclient.NewRestClient(cfg.GenerateURL, headers, cfg.Timeout)
	}
	if cfg.EmbedURL != "" {
		c.embeddings = restclient.NewRestClient(cfg.EmbedURL, headers, cfg.Timeout)
	}
	return c
}

func (c *TGIClient) Generate(ctx context.Context, prompt string, maxNewTokens int) ([]string, error) {
	if c.generation == nil {
		return nil, errors.New("tgi generate url is not configured")
	}
	req := tgiGenerateRequest{
		Inputs: prompt,
		Parameters: tgiParameters{
			MaxNewTokens: maxNewTokens,
			Temperature:  c.temperature,
		},
	}
	var resp tgiGenerateResponse
	if err := c.generation.PostJSON(ctx, tgiGenerateEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("tgi generate: %w", err)
	}
	return []string{resp.GeneratedText}, nil
}

func (c *TGIClient) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if c.embeddings == nil {
		return nil, errors.New("tei embed url is not configured")
	}
	var resp [][]float32
	if err := c.embeddings.PostJSON(ctx, teiEmbedEndpoint, teiEmbedRequest{Inputs: text}, &resp); err != nil {
		return nil, fmt.Errorf("tei embed: %w", err)
	}
	if len(resp) == 0 {
		return nil, errors.New("no embedding data returned")
	}
	return resp[0], nil
}
