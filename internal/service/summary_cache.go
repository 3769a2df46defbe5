// internal/service/summary_cache.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"commission-ledger/internal/models"
	"commission-ledger/pkg/redis"
)

// SummaryCache holds recently computed commission summaries for display-only
// contexts (dashboards). It is advisory: the withdrawal path always bypasses
// it and reads fresh sums.
type SummaryCache struct {
	redis    *redis.Client
	logger   *zap.Logger
	memCache *memoryCache
	ttl      time.Duration
}

type memoryCache struct {
	mu     sync.RWMutex
	data   map[string]*cacheEntry
	maxAge time.Duration
}

type cacheEntry struct {
	Summary  *models.CommissionSummary
	CachedAt time.Time
}

// NewSummaryCache creates the two-layer cache. redisClient may be nil, in
// which case only the in-memory layer is used.
func NewSummaryCache(redisClient *redis.Client, logger *zap.Logger) *SummaryCache {
	return &SummaryCache{
		redis:    redisClient,
		logger:   logger,
		memCache: newMemoryCache(5 * time.Minute),
		ttl:      5 * time.Minute,
	}
}

func newMemoryCache(maxAge time.Duration) *memoryCache {
	cache := &memoryCache{
		data:   make(map[string]*cacheEntry),
		maxAge: maxAge,
	}
	go cache.cleanup()
	return cache
}

// Get checks memory first, then Redis. A miss returns nil.
func (sc *SummaryCache) Get(ctx context.Context, agentID string) *models.CommissionSummary {
	key := sc.cacheKey(agentID)

	if summary := sc.memCache.get(key); summary != nil {
		return summary
	}

	if sc.redis == nil {
		return nil
	}
	data, err := sc.redis.Get(ctx, key)
	if err != nil {
		return nil
	}
	var summary models.CommissionSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		sc.logger.Warn("discarding malformed cached summary",
			zap.String("agent_id", agentID),
			zap.Error(err))
		return nil
	}
	sc.memCache.set(key, &summary)
	return &summary
}

// Set stores a summary in both layers. Cache write failures are logged and
// ignored; the summary has already been computed.
func (sc *SummaryCache) Set(ctx context.Context, summary *models.CommissionSummary) {
	key := sc.cacheKey(summary.AgentID)
	sc.memCache.set(key, summary)

	if sc.redis == nil {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := sc.redis.Set(ctx, key, data, sc.ttl); err != nil {
		sc.logger.Warn("failed to cache summary in redis",
			zap.String("agent_id", summary.AgentID),
			zap.Error(err))
	}
}

// Invalidate drops the cached summary after a balance-changing operation.
func (sc *SummaryCache) Invalidate(ctx context.Context, agentID string) {
	key := sc.cacheKey(agentID)
	sc.memCache.delete(key)
	if sc.redis != nil {
		if err := sc.redis.Delete(ctx, key); err != nil {
			sc.logger.Warn("failed to invalidate cached summary",
				zap.String("agent_id", agentID),
				zap.Error(err))
		}
	}
}

func (sc *SummaryCache) cacheKey(agentID string) string {
	return fmt.Sprintf("commission-summary:%s", agentID)
}

func (mc *memoryCache) get(key string) *models.CommissionSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	entry, exists := mc.data[key]
	if !exists {
		return nil
	}
	if time.Since(entry.CachedAt) > mc.maxAge {
		return nil
	}
	return entry.Summary
}

func (mc *memoryCache) set(key string, summary *models.CommissionSummary) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.data[key] = &cacheEntry{Summary: summary, CachedAt: time.Now()}
}

func (mc *memoryCache) delete(key string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	delete(mc.data, key)
}

func (mc *memoryCache) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		mc.mu.Lock()
		now := time.Now()
		for key, entry := range mc.data {
			if now.Sub(entry.CachedAt) > mc.maxAge {
				delete(mc.data, key)
			}
		}
		mc.mu.Unlock()
	}
}
