package configs

import (
	"fmt"
	"log"

	"HeroChatAI/app/clients"
	"HeroChatAI/app/identity"
	"HeroChatAI/app/models"
	"HeroChatAI/app/pipeline"
	"HeroChatAI/app/prompts"
	"HeroChatAI/app/rag"
	"HeroChatAI/app/runtime"
)

// BuildEmbedder returns the embedding backend selected by the embedder section.
func (c *Config) BuildEmbedder() (models.Embedder, error) {
	mc := c.Embedder
	switch mc.Provider {
	case ProviderTGI:
		return models.NewTGIClient(models.TGIClientConfig{
			EmbedURL: mc.BaseURL,
			APIKey:   mc.APIKey(),
			Timeout:  mc.Timeout,
		}), nil
	case ProviderOpenAICompatible:
		return models.NewLLMClient(models.LLMClientConfig{
			BaseURL:         mc.BaseURL,
			APIKey:          mc.APIKey(),
			EmbeddingsModel: mc.Model,
			Timeout:         mc.Timeout,
		}), nil
	case ProviderOpenAI:
		client, err := models.NewOpenAIClient(models.OpenAIClientConfig{
			APIKey:          mc.APIKey(),
			BaseURL:         mc.BaseURL,
			EmbeddingsModel: mc.Model,
			Dimensions:      c.Pipeline.EmbedDim,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder provider: %s", mc.Provider)
	}
}

// BuildGenerator returns the generation backend selected by the generator section.
func (c *Config) BuildGenerator() (models.Generator, error) {
	mc := c.Generator
	switch mc.Provider {
	case ProviderTGI:
		return models.NewTGIClient(models.TGIClientConfig{
			GenerateURL: mc.BaseURL,
			APIKey:      mc.APIKey(),
			Temperature: mc.Temperature,
			Timeout:     mc.Timeout,
		}), nil
	case ProviderOpenAICompatible:
		return models.NewLLMClient(models.LLMClientConfig{
			BaseURL:     mc.BaseURL,
			APIKey:      mc.APIKey(),
			Model:       mc.Model,
			Temperature: mc.Temperature,
			Timeout:     mc.Timeout,
		}), nil
	case ProviderOpenAI:
		client, err := models.NewOpenAIClient(models.OpenAIClientConfig{
			APIKey:      mc.APIKey(),
			BaseURL:     mc.BaseURL,
			Model:       mc.Model,
			Temperature: float32(mc.Temperature),
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown generator provider: %s", mc.Provider)
	}
}

func (c *Config) BuildStore() (rag.Store, error) {
	var (
		store rag.Store
		err   error
	)
	switch c.VectorStore.Type {
	case StoreQdrant:
		store, err = rag.NewQdrantStore(c.VectorStore.Qdrant)
	case StoreSQLite:
		store, err = rag.NewSQLiteStore(c.VectorStore.SQLite)
	default:
		return nil, fmt.Errorf("unknown vector store type: %s", c.VectorStore.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s vector store: %w", c.VectorStore.Type, err)
	}
	return store, nil
}

// BuildRuntime wires the chat pipeline on top of an already opened store.
func (c *Config) BuildRuntime(store rag.Store) (*runtime.Runtime, error) {
	embedder, err := c.BuildEmbedder()
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}
	generator, err := c.BuildGenerator()
	if err != nil {
		return nil, fmt.Errorf("build generator: %w", err)
	}

	graph, err := pipeline.NewRAGPipeline(embedder, rag.NewRetriever(store), prompts.NewBuilder(), generator, pipeline.RAGOptions{
		EmbedDim:     c.Pipeline.EmbedDim,
		TopK:         c.Pipeline.TopK,
		MaxNewTokens: c.Pipeline.MaxNewTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	return runtime.NewRuntime(c.Superheroes, identity.NewResolver(c.Synonyms), graph, c.Pipeline.Timeout), nil
}

func (c *Config) InitializeClients(clientRegistry *clients.Registry, rt *runtime.Runtime) error {
	if len(c.Clients) == 0 {
		log.Println("ℹ️ No clients configured, starting the terminal chat")
		return clientRegistry.Register(clients.NewTUIClient(nil), rt)
	}

	for _, clientCfg := range c.Clients {
		if !clientCfg.Enabled {
			log.Printf("⏭️ Client %s is disabled, skipping\n", clientCfg.Type)
			continue
		}

		log.Printf("🔌 Initializing %s client...\n", clientCfg.Type)
		client, err := clients.CreateClient(clientCfg)
		if err != nil {
			return fmt.Errorf("failed to create %s client: %w", clientCfg.Type, err)
		}

		if err := clientRegistry.Register(client, rt); err != nil {
			return fmt.Errorf("failed to register %s client: %w", clientCfg.Type, err)
		}

		log.Printf("✅ %s client initialized\n", clientCfg.Type)
	}

	return nil
}
