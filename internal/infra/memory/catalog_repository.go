package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"casper-learning/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches the module catalog from a backing store (file, Postgres, ...).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) ([]domain.Module, error)
}

const catalogKey = "catalog"

// CatalogRepository caches the catalog with TTL to avoid repeated loads.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	modules   []domain.Module
	expiresAt time.Time
	loaded    bool
}

func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) Modules(ctx context.Context) ([]domain.Module, error) {
	if modules, ok := r.cached(r.clock()); ok {
		return modules, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		now := r.clock()
		if modules, ok := r.cached(now); ok {
			return modules, nil
		}

		modules, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.modules = modules
		r.loaded = true
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return modules, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Module), nil
}

// cached returns the catalog when it is loaded and, with a positive TTL, not expired.
func (r *CatalogRepository) cached(now time.Time) ([]domain.Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return nil, false
	}
	if r.ttl > 0 && !r.expiresAt.After(now) {
		return nil, false
	}
	return r.modules, true
}

// StaticCatalogLoader is a simple loader backed by an in-memory slice (useful for tests/demos).
type StaticCatalogLoader struct {
	modules []domain.Module
}

func NewStaticCatalogLoader(modules []domain.Module) *StaticCatalogLoader {
	return &StaticCatalogLoader{modules: modules}
}

func (l *StaticCatalogLoader) LoadCatalog(_ context.Context) ([]domain.Module, error) {
	return l.modules, nil
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
