package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lk2023060901/property-research-backend/internal/websearch/types"
)

// Factory creates provider instances
type Factory struct {
	mu           sync.RWMutex
	constructors map[types.ProviderID]func(*types.ProviderConfig) (Provider, error)
}

// NewFactory creates a new provider factory
func NewFactory() *Factory {
	f := &Factory{
		constructors: make(map[types.ProviderID]func(*types.ProviderConfig) (Provider, error)),
	}

	// Register built-in providers
	f.Register(types.ProviderGoogle, NewGoogleProvider)
	f.Register(types.ProviderSerpAPI, NewSerpAPIProvider)

	return f
}

// Register registers a provider constructor
func (f *Factory) Register(id types.ProviderID, constructor func(*types.ProviderConfig) (Provider, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[id] = constructor
}

// Create creates a provider instance from configuration
func (f *Factory) Create(config *types.ProviderConfig) (Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	f.mu.RLock()
	constructor, exists := f.constructors[config.ID]
	f.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", types.ErrProviderNotFound, config.ID)
	}

	return constructor(config)
}

// CreateAll creates every enabled provider in configs, skipping entries
// without an API key. Any other configuration error is returned.
func (f *Factory) CreateAll(configs ...*types.ProviderConfig) (map[types.ProviderID]Provider, error) {
	providers := make(map[types.ProviderID]Provider, len(configs))
	for _, cfg := range configs {
		if !cfg.Enabled() {
			continue
		}
		p, err := f.Create(cfg)
		if err != nil {
			return nil, fmt.Errorf("create %s provider: %w", cfg.ID, err)
		}
		providers[cfg.ID] = p
	}
	return providers, nil
}

// ListProviders returns the registered provider IDs in sorted order
func (f *Factory) ListProviders() []types.ProviderID {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ids := make([]types.ProviderID, 0, len(f.constructors))
	for id := range f.constructors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
