package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HeroChatAI/app/clients"
	"HeroChatAI/app/errs"
	"HeroChatAI/app/models"
)

const heroesYAML = `
LIST_OF_SUPERHEROES:
  - Batman
  - Superman
SUPERHERO_SYNONYMS:
  Batman: ["Dark Knight", "Bruce Wayne"]
  Superman: ["Man of Steel"]
`

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(heroesYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Batman", "Superman"}, cfg.Superheroes)
	assert.Equal(t, []string{"Dark Knight", "Bruce Wayne"}, cfg.Synonyms["Batman"])
	assert.Equal(t, PipelineConfig{TopK: 5, MaxNewTokens: 250, EmbedDim: 384, Timeout: 60 * time.Second}, cfg.Pipeline)

	assert.Equal(t, ProviderTGI, cfg.Embedder.Provider)
	assert.Equal(t, defaultEmbedURL, cfg.Embedder.BaseURL)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", cfg.Embedder.Model)
	assert.Equal(t, ProviderTGI, cfg.Generator.Provider)
	assert.Equal(t, "meta-llama/Meta-Llama-3-8B-Instruct", cfg.Generator.Model)
	assert.Equal(t, StoreQdrant, cfg.VectorStore.Type)
}

func TestParseConfigFull(t *testing.T) {
	t.Setenv("QDRANT_HOST", "qdrant.internal")
	t.Setenv("LLM_KEY", "secret")

	cfg, err := ParseConfig([]byte(heroesYAML + `
pipeline:
  top_k: 3
  max_new_tokens: 100
  embed_dim: 768
  timeout: 15s
embedder:
  provider: openai-compatible
  base_url: http://localhost:1234
  model: nomic-embed-text
generator:
  provider: openai-compatible
  base_url: http://localhost:1234
  model: llama-3
  api_key_env: LLM_KEY
  temperature: 0.7
  timeout: 30s
vector_store:
  type: qdrant
  qdrant:
    host: ${QDRANT_HOST}
    port: 6334
    content_key: text
clients:
  - type: mcp
    enabled: true
    config:
      name: heroes
`))
	require.NoError(t, err)

	assert.Equal(t, PipelineConfig{TopK: 3, MaxNewTokens: 100, EmbedDim: 768, Timeout: 15 * time.Second}, cfg.Pipeline)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.Model)
	assert.Equal(t, "secret", cfg.Generator.APIKey())
	assert.Equal(t, 30*time.Second, cfg.Generator.Timeout)
	assert.Equal(t, 0.7, cfg.Generator.Temperature)
	assert.Equal(t, "qdrant.internal", cfg.VectorStore.Qdrant.Host)
	assert.Equal(t, "text", cfg.VectorStore.Qdrant.ContentKey)
	assert.Equal(t, []clients.Config{{Type: "mcp", Enabled: true, Config: map[string]string{"name": "heroes"}}}, cfg.Clients)
}

func TestParseConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no superheroes", "SUPERHERO_SYNONYMS:\n  Batman: [\"Dark Knight\"]\n"},
		{"no synonyms", "LIST_OF_SUPERHEROES: [Batman]\n"},
		{"duplicate superhero", "LIST_OF_SUPERHEROES: [Batman, Batman]\nSUPERHERO_SYNONYMS:\n  Batman: [x]\n"},
		{"empty superhero name", "LIST_OF_SUPERHEROES: [\"\"]\nSUPERHERO_SYNONYMS:\n  Batman: [x]\n"},
		{"bad provider", heroesYAML + "embedder:\n  provider: fastembed\n"},
		{"bad store", heroesYAML + "vector_store:\n  type: chroma\n"},
		{"negative top_k", heroesYAML + "pipeline:\n  top_k: -1\n"},
		{"bad url", heroesYAML + "generator:\n  base_url: not a url\n"},
		{"bad client", heroesYAML + "clients:\n  - type: slack\n    enabled: true\n"},
		{"tui with mcp", heroesYAML + "clients:\n  - type: tui\n    enabled: true\n  - type: mcp\n    enabled: true\n"},
		{"not yaml", "LIST_OF_SUPERHEROES: [Batman\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrConfiguration)
		})
	}
}

func TestParseConfigOpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := ParseConfig([]byte(heroesYAML + "generator:\n  provider: openai\n"))
	assert.ErrorIs(t, err, errs.ErrConfiguration)
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, err := ParseConfig([]byte(heroesYAML + "generator:\n  provider: openai\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Generator.Model)

	gen, err := cfg.BuildGenerator()
	require.NoError(t, err)
	assert.IsType(t, &models.OpenAIClient{}, gen)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(heroesYAML), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Superheroes, 2)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, errs.ErrConfiguration)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
