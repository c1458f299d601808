package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"casper-learning/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the module catalog from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.Module, error)
}

// CatalogRepository caches the catalog in Redis as one JSON document and
// falls back to a loader on cache miss:
//
//	SET {namespace}catalog:modules <json array of modules> EX <ttl>
type CatalogRepository struct {
	client    *redis.Client
	loader    CatalogLoader
	ttl       time.Duration
	namespace string
	sf        singleflight.Group
	rnd       *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, namespace string, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client:    client,
		loader:    loader,
		ttl:       ttl,
		namespace: namespace,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) Modules(ctx context.Context) ([]domain.Module, error) {
	if modules, ok := r.cached(ctx); ok {
		return modules, nil
	}

	result, err, _ := r.sf.Do(r.key(), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if modules, ok := r.cached(ctx); ok {
			return modules, nil
		}

		modules, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(modules)
		if err != nil {
			return nil, err
		}
		// Caching is best-effort; the loaded catalog is served either way.
		if err := r.client.Set(ctx, r.key(), data, r.ttlWithJitter()).Err(); err != nil {
			slog.Warn("cache catalog in redis", "error", err)
		}
		return modules, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Module), nil
}

func (r *CatalogRepository) cached(ctx context.Context) ([]domain.Module, bool) {
	raw, err := r.client.Get(ctx, r.key()).Bytes()
	if err != nil {
		return nil, false
	}
	var modules []domain.Module
	if err := json.Unmarshal(raw, &modules); err != nil {
		slog.Warn("cached catalog unreadable, reloading", "error", err)
		return nil, false
	}
	return modules, true
}

func (r *CatalogRepository) key() string {
	return r.namespace + "catalog:modules"
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
