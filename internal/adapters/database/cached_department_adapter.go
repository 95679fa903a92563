package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/entities"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/providers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
)

// CachedDepartmentAdapter wraps a DepartmentRepository with a short-lived read-through cache.
// The occupancy ledger never reads through it; it only invalidates after commits.
//
// A read that started before an invalidation must not repopulate the cache with the
// row it loaded. Within a process this is enforced by a per-hospital generation that
// Invalidate bumps; across replicas a second delete after reinvalidateAfter removes
// anything a slow reader wrote back.
type CachedDepartmentAdapter struct {
	adapter repositories.DepartmentRepository
	cache   providers.CacheProvider
	ttl     int
	metrics *observability.Metrics

	reinvalidateAfter time.Duration
	generations       sync.Map // hospital id -> *atomic.Uint64
}

// CachedDepartmentOption configures a CachedDepartmentAdapter
type CachedDepartmentOption func(*CachedDepartmentAdapter)

// WithReinvalidateAfter sets the delay of the second invalidation; zero disables it
func WithReinvalidateAfter(d time.Duration) CachedDepartmentOption {
	return func(a *CachedDepartmentAdapter) { a.reinvalidateAfter = d }
}

// NewCachedDepartmentAdapter creates a new cached department adapter
func NewCachedDepartmentAdapter(adapter repositories.DepartmentRepository, cache providers.CacheProvider, ttlSeconds int, metrics *observability.Metrics, opts ...CachedDepartmentOption) *CachedDepartmentAdapter {
	a := &CachedDepartmentAdapter{
		adapter:           adapter,
		cache:             cache,
		ttl:               ttlSeconds,
		metrics:           metrics,
		reinvalidateAfter: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func departmentCacheKey(hospitalID, id string) string {
	return fmt.Sprintf("department:%s:%s", hospitalID, id)
}

func departmentsListCacheKey(hospitalID string) string {
	return fmt.Sprintf("departments:list:%s", hospitalID)
}

func (a *CachedDepartmentAdapter) generation(hospitalID string) *atomic.Uint64 {
	g, _ := a.generations.LoadOrStore(hospitalID, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

// Create creates a department and drops the cached list
func (a *CachedDepartmentAdapter) Create(ctx context.Context, department *entities.Department) error {
	if err := a.adapter.Create(ctx, department); err != nil {
		return err
	}
	a.Invalidate(ctx, department.HospitalID)
	return nil
}

// GetByID retrieves a department with caching
func (a *CachedDepartmentAdapter) GetByID(ctx context.Context, hospitalID, id string) (*entities.Department, error) {
	return readThrough(ctx, a, hospitalID, departmentCacheKey(hospitalID, id), "department",
		func() (*entities.Department, error) { return a.adapter.GetByID(ctx, hospitalID, id) })
}

// ListByHospital lists departments with caching
func (a *CachedDepartmentAdapter) ListByHospital(ctx context.Context, hospitalID string) ([]*entities.Department, error) {
	return readThrough(ctx, a, hospitalID, departmentsListCacheKey(hospitalID), "departments",
		func() ([]*entities.Department, error) { return a.adapter.ListByHospital(ctx, hospitalID) })
}

// readThrough serves key from the cache or loads it and caches the result.
// The result is not cached if the cache failed or the hospital was invalidated meanwhile.
func readThrough[T any](ctx context.Context, a *CachedDepartmentAdapter, hospitalID, key, kind string, load func() (T, error)) (T, error) {
	gen := a.generation(hospitalID)
	before := gen.Load()

	cached, err := a.cache.Get(ctx, key)
	switch {
	case err == nil:
		var value T
		decodeErr := json.Unmarshal(cached, &value)
		if decodeErr == nil {
			observability.RecordCacheHit(ctx, a.metrics, kind)
			return value, nil
		}
		log.Warn().Err(decodeErr).Str("key", key).Msg("Failed to unmarshal cached department")
	case !errors.Is(err, providers.ErrCacheMiss):
		// cache unavailable: serve from the database and leave the cache alone
		log.Warn().Err(err).Str("key", key).Msg("Department cache unavailable")
		return load()
	}
	observability.RecordCacheMiss(ctx, a.metrics, kind)

	value, err := load()
	if err != nil {
		return value, err
	}
	if gen.Load() == before {
		a.store(ctx, key, value)
	}
	return value, nil
}

// UpdateDetails updates a department and invalidates its cache entries
func (a *CachedDepartmentAdapter) UpdateDetails(ctx context.Context, department *entities.Department) error {
	if err := a.adapter.UpdateDetails(ctx, department); err != nil {
		return err
	}
	a.Invalidate(ctx, department.HospitalID, department.ID)
	return nil
}

// Invalidate drops the hospital's cached list and the given departments.
// Cache failures are logged, never returned.
func (a *CachedDepartmentAdapter) Invalidate(ctx context.Context, hospitalID string, departmentIDs ...string) {
	a.generation(hospitalID).Add(1)

	keys := make([]string, 0, len(departmentIDs)+1)
	keys = append(keys, departmentsListCacheKey(hospitalID))
	for _, id := range departmentIDs {
		keys = append(keys, departmentCacheKey(hospitalID, id))
	}
	a.delete(ctx, keys)

	if a.reinvalidateAfter > 0 {
		ctx = context.WithoutCancel(ctx)
		time.AfterFunc(a.reinvalidateAfter, func() { a.delete(ctx, keys) })
	}
}

func (a *CachedDepartmentAdapter) delete(ctx context.Context, keys []string) {
	if err := a.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("Failed to invalidate department cache")
	}
}

func (a *CachedDepartmentAdapter) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to marshal department for cache")
		return
	}
	if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache department")
	}
}
