package models

import "context"

// Embedder maps text to a dense vector.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Generator completes a prompt. It returns every candidate the model offered,
// in the model's order.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxNewTokens int) ([]string, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
