package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"
	"github.com/lk2023060901/property-research-backend/internal/websearch/metrics"
	"github.com/lk2023060901/property-research-backend/internal/websearch/provider"
	"github.com/lk2023060901/property-research-backend/internal/websearch/query"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ResultCache stores search responses keyed by compiled request.
// Implementations treat backend failures as misses.
type ResultCache interface {
	Get(ctx context.Context, key string) (*types.SearchResponse, bool)
	Set(ctx context.Context, key string, resp *types.SearchResponse)
}

// ProviderInfo describes a provider known to the use case
type ProviderInfo struct {
	ID         types.ProviderID `json:"id"`
	Name       string           `json:"name"`
	Compilable bool             `json:"compilable"`
	Searchable bool             `json:"searchable"`
}

// Options tunes the search use case
type Options struct {
	// MaxConcurrency bounds parallel searches in RunProject
	MaxConcurrency int
}

// SearchUseCase compiles patterns, runs them against providers and manages
// saved patterns.
type SearchUseCase struct {
	infos       []ProviderInfo
	compilers   map[types.ProviderID]query.Compiler
	compileErrs map[types.ProviderID]error
	providers   map[types.ProviderID]provider.Provider

	repo  PatternRepo
	cache ResultCache
	group singleflight.Group

	maxConcurrency int
	logger         *logger.Logger
}

// NewSearchUseCase builds a compiler for every config. A compiler that cannot
// be built (Google without an engine id) is remembered and its error returned
// on use. providers holds the searchable subset; repo and cache may be nil.
func NewSearchUseCase(
	configs []*types.ProviderConfig,
	providers map[types.ProviderID]provider.Provider,
	repo PatternRepo,
	cache ResultCache,
	opts Options,
	log *logger.Logger,
) *SearchUseCase {
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 4
	}
	if providers == nil {
		providers = map[types.ProviderID]provider.Provider{}
	}

	uc := &SearchUseCase{
		compilers:      make(map[types.ProviderID]query.Compiler, len(configs)),
		compileErrs:    make(map[types.ProviderID]error),
		providers:      providers,
		repo:           repo,
		cache:          cache,
		maxConcurrency: opts.MaxConcurrency,
		logger:         log,
	}

	for _, cfg := range configs {
		c, err := query.New(cfg)
		if err != nil {
			log.Warn("search provider cannot compile queries",
				zap.String("provider", string(cfg.ID)),
				zap.Error(err),
			)
			uc.compileErrs[cfg.ID] = err
		} else {
			uc.compilers[cfg.ID] = c
		}

		prov, searchable := providers[cfg.ID]
		searchable = searchable && prov.IsAvailable(context.Background())
		uc.infos = append(uc.infos, ProviderInfo{
			ID:         cfg.ID,
			Name:       cfg.Name,
			Compilable: err == nil,
			Searchable: searchable && err == nil,
		})
	}
	sort.Slice(uc.infos, func(i, j int) bool { return uc.infos[i].ID < uc.infos[j].ID })

	return uc
}

// Providers lists the configured providers
func (uc *SearchUseCase) Providers() []ProviderInfo {
	out := make([]ProviderInfo, len(uc.infos))
	copy(out, uc.infos)
	return out
}

// Compile validates the pattern and compiles it for the named provider.
// An empty name selects Google.
func (uc *SearchUseCase) Compile(ctx context.Context, providerName string, p *types.SearchPattern) (query.Request, error) {
	id, err := types.ParseProviderID(providerName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, providerName)
	}

	compiler, err := uc.compiler(id)
	if err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	req := compiler.Compile(p)
	metrics.QueriesCompiled.WithLabelValues(string(id)).Inc()

	logger.FromContext(ctx).Debug("search pattern compiled",
		zap.String("provider", string(id)),
		zap.String("q", req.Query()),
		zap.Int("page", req.Page()),
	)
	return req, nil
}

func (uc *SearchUseCase) compiler(id types.ProviderID) (query.Compiler, error) {
	if c, ok := uc.compilers[id]; ok {
		return c, nil
	}
	if err, ok := uc.compileErrs[id]; ok {
		return nil, err
	}
	return nil, &types.ConfigurationError{Provider: id, Field: "provider", Err: types.ErrProviderNotFound}
}

// Search compiles the pattern and executes it. Identical requests share
// cached and in-flight results.
func (uc *SearchUseCase) Search(ctx context.Context, providerName string, p *types.SearchPattern) (*types.SearchResponse, error) {
	req, err := uc.Compile(ctx, providerName, p)
	if err != nil {
		return nil, err
	}

	prov, ok := uc.providers[req.Provider()]
	if !ok {
		return nil, &types.ConfigurationError{Provider: req.Provider(), Field: "api_key", Err: types.ErrMissingAPIKey}
	}

	key := CacheKey(req)
	if uc.cache != nil {
		if resp, hit := uc.cache.Get(ctx, key); hit {
			return resp, nil
		}
	}

	// The shared call outlives any single caller; the HTTP client timeout
	// bounds it.
	ch := uc.group.DoChan(key, func() (interface{}, error) {
		return uc.execute(context.WithoutCancel(ctx), prov, req, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		resp := res.Val.(*types.SearchResponse)
		if res.Shared {
			logger.FromContext(ctx).Debug("search request deduplicated", zap.String("key", key))
			// every waiter receives the same value
			return resp.Clone(), nil
		}
		return resp, nil
	}
}

func (uc *SearchUseCase) execute(ctx context.Context, prov provider.Provider, req query.Request, key string) (*types.SearchResponse, error) {
	id := string(req.Provider())

	metrics.SearchesInFlight.Inc()
	defer metrics.SearchesInFlight.Dec()

	started := time.Now()
	resp, err := prov.Search(ctx, req)
	metrics.ObserveSearch(id, started, err)

	if err != nil {
		logger.FromContext(ctx).Error("search request failed",
			zap.String("provider", id),
			zap.String("q", req.Query()),
			zap.Error(err),
		)
		return nil, err
	}

	logger.FromContext(ctx).Info("search request completed",
		zap.String("provider", id),
		zap.Int("results", len(resp.Results)),
		zap.Int64("took_ms", resp.Took),
	)

	if uc.cache != nil {
		uc.cache.Set(ctx, key, resp)
	}
	return resp, nil
}

// CacheKey identifies a compiled request. Values encode in sorted key order,
// so equal requests hash equally.
func CacheKey(req query.Request) string {
	sum := sha256.Sum256([]byte(req.Values().Encode()))
	return string(req.Provider()) + ":" + hex.EncodeToString(sum[:])
}
