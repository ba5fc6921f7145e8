package clients

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"HeroChatAI/app/runtime"
)

// Config defines the configuration for a client connector
type Config struct {
	Type    string            `yaml:"type" json:"type" validate:"required,oneof=discord tui mcp"`
	Enabled bool              `yaml:"enabled" json:"enabled"`
	Config  map[string]string `yaml:"config,omitempty" json:"config,omitempty"`
}

type Registry struct {
	mu      sync.RWMutex
	clients []Interface
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make([]Interface, 0),
	}
}

func (r *Registry) Register(client Interface, rt *runtime.Runtime) error {
	if client == nil {
		return fmt.Errorf("client is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients = append(r.clients, client)
	client.Subscribe(rt)

	return nil
}

func (r *Registry) GetAll() []Interface {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Interface, len(r.clients))
	copy(result, r.clients)
	return result
}

// RunAll runs every registered client and returns once all have stopped.
// The first client to return stops the others.
func (r *Registry) RunAll(ctx context.Context) error {
	all := r.GetAll()
	if len(all) == 0 {
		return fmt.Errorf("no clients registered")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, client := range all {
		g.Go(func() error {
			defer cancel()
			return client.Run(ctx)
		})
	}
	return g.Wait()
}

func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if closer, ok := client.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				log.Printf("⚠️ Error closing client: %v\n", err)
			}
		}
	}
	r.clients = make([]Interface, 0)
}

func CreateClient(cfg Config) (Interface, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("client %s is disabled", cfg.Type)
	}

	switch cfg.Type {
	case "discord":
		client, err := NewDiscordClientFromConfig(cfg.Config)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "tui":
		return NewTUIClient(cfg.Config), nil
	case "mcp":
		return NewMCPClient(cfg.Config), nil
	default:
		return nil, fmt.Errorf("unknown client type: %s", cfg.Type)
	}
}
