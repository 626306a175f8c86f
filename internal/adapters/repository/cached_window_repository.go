package repository

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/syaqirshaq/fasting-tracker/internal/core/domain"
)

var _ domain.WindowCache = (*CachedWindowRepository)(nil)

const (
	windowCacheKey = "ramadan_window"
	windowCacheTTL = 7 * 24 * time.Hour
)

// CachedWindowRepository puts Redis in front of the durable window store.
// Redis errors are logged and fall through to the next store.
type CachedWindowRepository struct {
	next  domain.WindowCache
	cache *redis.Client
}

func NewCachedWindowRepository(next domain.WindowCache, cache *redis.Client) *CachedWindowRepository {
	return &CachedWindowRepository{
		next:  next,
		cache: cache,
	}
}

func (r *CachedWindowRepository) invalidate(ctx context.Context) {
	if err := r.cache.Del(ctx, windowCacheKey).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate window: %v", err)
	}
}

func (r *CachedWindowRepository) Load(ctx context.Context) (*domain.RamadanWindow, error) {
	val, err := r.cache.Get(ctx, windowCacheKey).Result()
	if err == nil {
		var w domain.RamadanWindow
		if err := json.Unmarshal([]byte(val), &w); err == nil && w.Validate() == nil {
			return &w, nil
		}

		log.Printf("[CACHE] Corrupted window data, cleaning up key")
		r.cache.Del(ctx, windowCacheKey)
	} else if err != redis.Nil {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	w, err := r.next.Load(ctx)
	if err != nil || w == nil {
		return w, err
	}

	if data, err := json.Marshal(w); err == nil {
		if setErr := r.cache.Set(ctx, windowCacheKey, data, windowCacheTTL).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return w, nil
}

func (r *CachedWindowRepository) Store(ctx context.Context, w *domain.RamadanWindow) error {
	if err := r.next.Store(ctx, w); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}
