package data

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"
	pkgredis "github.com/lk2023060901/property-research-backend/internal/pkg/redis"
	"github.com/lk2023060901/property-research-backend/internal/websearch/biz"
	"github.com/lk2023060901/property-research-backend/internal/websearch/metrics"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"

	"github.com/hashicorp/golang-lru/v2/expirable"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "websearch:result:"

// ResultCache keeps responses in an in-process LRU backed by redis.
// A nil redis client gives a memory-only cache.
type ResultCache struct {
	local *expirable.LRU[string, *types.SearchResponse]
	redis goredis.Cmdable
	ttl   time.Duration
}

// NewResultCache creates a cache holding up to size entries locally for ttl
func NewResultCache(rdb goredis.Cmdable, size int, ttl time.Duration) biz.ResultCache {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &ResultCache{
		local: expirable.NewLRU[string, *types.SearchResponse](size, nil, ttl),
		redis: rdb,
		ttl:   ttl,
	}
}

// Get returns a copy of the cached response marked as cached
func (c *ResultCache) Get(ctx context.Context, key string) (*types.SearchResponse, bool) {
	if resp, ok := c.local.Get(key); ok {
		metrics.ObserveCache(metrics.TierMemory, true)
		return markCached(resp), true
	}
	metrics.ObserveCache(metrics.TierMemory, false)

	if c.redis == nil {
		return nil, false
	}

	raw, err := c.redis.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err != nil {
		if !pkgredis.IsNil(err) {
			logger.FromContext(ctx).Warn("result cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.ObserveCache(metrics.TierRedis, false)
		return nil, false
	}

	var resp types.SearchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		logger.FromContext(ctx).Warn("result cache entry corrupt", zap.String("key", key), zap.Error(err))
		metrics.ObserveCache(metrics.TierRedis, false)
		return nil, false
	}
	metrics.ObserveCache(metrics.TierRedis, true)

	c.local.Add(key, &resp)
	return markCached(&resp), true
}

// Set stores a copy of resp in both tiers
func (c *ResultCache) Set(ctx context.Context, key string, resp *types.SearchResponse) {
	c.local.Add(key, resp.Clone())

	if c.redis == nil {
		return
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		logger.FromContext(ctx).Warn("result cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.redis.Set(ctx, cacheKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("result cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func markCached(resp *types.SearchResponse) *types.SearchResponse {
	out := resp.Clone()
	out.Cached = true
	return out
}
