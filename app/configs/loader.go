package configs

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"HeroChatAI/app/clients"
	"HeroChatAI/app/errs"
	"HeroChatAI/app/rag"
)

const (
	ProviderOpenAICompatible = "openai-compatible"
	ProviderTGI              = "tgi"
	ProviderOpenAI           = "openai"

	StoreQdrant = "qdrant"
	StoreSQLite = "sqlite"
)

const (
	defaultTopK           = 5
	defaultMaxNewTokens   = 250
	defaultEmbedDim       = 384
	defaultTimeout        = 60 * time.Second
	defaultEmbeddingModel = "BAAI/bge-small-en-v1.5"
	defaultLLMModel       = "meta-llama/Meta-Llama-3-8B-Instruct"
	defaultEmbedURL       = "http://localhost:8081"
	defaultGenerateURL    = "http://localhost:8080"
)

// Config is loaded once at startup and never changes afterwards. The two
// upper-case keys keep the layout of the dialogue ingestion config.
type Config struct {
	Superheroes []string            `yaml:"LIST_OF_SUPERHEROES" validate:"required,min=1,unique,dive,required"`
	Synonyms    map[string][]string `yaml:"SUPERHERO_SYNONYMS" validate:"required"`
	Pipeline    PipelineConfig      `yaml:"pipeline"`
	Embedder    ModelConfig         `yaml:"embedder"`
	Generator   ModelConfig         `yaml:"generator"`
	VectorStore VectorStoreConfig   `yaml:"vector_store"`
	Clients     []clients.Config    `yaml:"clients,omitempty" validate:"dive"`
}

type PipelineConfig struct {
	TopK         int           `yaml:"top_k" validate:"gte=1"`
	MaxNewTokens int           `yaml:"max_new_tokens" validate:"gte=1"`
	EmbedDim     int           `yaml:"embed_dim" validate:"gte=1"`
	Timeout      time.Duration `yaml:"timeout" validate:"gte=0"`
}

// ModelConfig describes an embedding or generation backend.
type ModelConfig struct {
	Provider    string        `yaml:"provider" validate:"oneof=openai-compatible tgi openai"`
	BaseURL     string        `yaml:"base_url" validate:"omitempty,url"`
	Model       string        `yaml:"model"`
	APIKeyEnv   string        `yaml:"api_key_env,omitempty"`
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout" validate:"gte=0"`
}

// APIKey reads the key from the environment variable named by APIKeyEnv.
func (mc ModelConfig) APIKey() string {
	if mc.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(mc.APIKeyEnv)
}

type VectorStoreConfig struct {
	Type   string           `yaml:"type" validate:"oneof=qdrant sqlite"`
	Qdrant rag.QdrantConfig `yaml:"qdrant"`
	SQLite rag.SQLiteConfig `yaml:"sqlite"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrConfiguration, "configs.Load", fmt.Errorf("read configs file: %w", err))
	}
	return ParseConfig(data)
}

// ParseConfig expands ${VAR} references, decodes the YAML, fills defaults
// and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errs.Wrap(errs.ErrConfiguration, "configs.Parse", fmt.Errorf("parse YAML: %w", err))
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.TopK == 0 {
		c.Pipeline.TopK = defaultTopK
	}
	if c.Pipeline.MaxNewTokens == 0 {
		c.Pipeline.MaxNewTokens = defaultMaxNewTokens
	}
	if c.Pipeline.EmbedDim == 0 {
		c.Pipeline.EmbedDim = defaultEmbedDim
	}
	if c.Pipeline.Timeout == 0 {
		c.Pipeline.Timeout = defaultTimeout
	}

	c.Embedder.applyDefaults(defaultEmbedURL, defaultEmbeddingModel)
	c.Generator.applyDefaults(defaultGenerateURL, defaultLLMModel)

	if c.VectorStore.Type == "" {
		c.VectorStore.Type = StoreQdrant
	}
}

func (mc *ModelConfig) applyDefaults(baseURL, model string) {
	if mc.Provider == "" {
		mc.Provider = ProviderTGI
	}
	switch mc.Provider {
	case ProviderTGI:
		if mc.BaseURL == "" {
			mc.BaseURL = baseURL
		}
		if mc.APIKeyEnv == "" {
			mc.APIKeyEnv = "HF_API_TOKEN"
		}
	case ProviderOpenAI:
		if mc.APIKeyEnv == "" {
			mc.APIKeyEnv = "OPENAI_API_KEY"
		}
		return
	}
	if mc.Model == "" {
		mc.Model = model
	}
}

// Validate checks struct constraints and then the rules that span fields.
func (c *Config) Validate() error {
	const op = "configs.Validate"
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return errs.Wrap(errs.ErrConfiguration, op, err)
	}

	for _, hero := range c.Superheroes {
		if len(c.Synonyms[hero]) == 0 {
			log.Printf("⚠️ Superhero %s has no synonyms configured; questions for it will be rejected", hero)
		}
	}

	if c.Embedder.Provider == ProviderOpenAI && c.Embedder.APIKey() == "" {
		return errs.New(errs.ErrConfiguration, op, "embedder: %s is not set", c.Embedder.APIKeyEnv)
	}
	if c.Generator.Provider == ProviderOpenAI && c.Generator.APIKey() == "" {
		return errs.New(errs.ErrConfiguration, op, "generator: %s is not set", c.Generator.APIKeyEnv)
	}

	enabled := map[string]bool{}
	for _, cl := range c.Clients {
		if cl.Enabled {
			enabled[cl.Type] = true
		}
	}
	if enabled["tui"] && enabled["mcp"] {
		return errs.New(errs.ErrConfiguration, op, "tui and mcp clients both need the terminal; enable only one")
	}
	if len(c.Clients) > 0 && len(enabled) == 0 {
		log.Println("⚠️ All clients are disabled")
	}
	return nil
}
