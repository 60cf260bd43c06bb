// Package providers implements LLM backends for the agent executor and a
// factory registry keyed by provider kind, so a new backend is a Register
// call rather than an edit to a switch statement.
package providers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/haasonsaas/leadflow/internal/agent"
)

// Config carries the provider-independent connection settings.
type Config struct {
	// APIKey authenticates with the backend. Required.
	APIKey string

	// BaseURL overrides the backend endpoint, for proxies and compatible
	// gateways. Optional.
	BaseURL string

	// Model selects the model; empty uses the provider default.
	Model string
}

// Factory constructs a provider from config.
type Factory func(Config) (agent.ModelProvider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register adds a provider factory under the given kind, replacing any
// existing registration.
func Register(kind string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = factory
}

// New constructs a provider of the given kind.
func New(kind string, cfg Config) (agent.ModelProvider, error) {
	mu.RLock()
	factory, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown model provider %q (have %v)", kind, Kinds())
	}
	return factory(cfg)
}

// Kinds returns the registered provider kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func init() {
	Register("anthropic", func(cfg Config) (agent.ModelProvider, error) {
		return NewAnthropicProvider(cfg)
	})
	Register("openai", func(cfg Config) (agent.ModelProvider, error) {
		return NewOpenAIProvider(cfg)
	})
}
