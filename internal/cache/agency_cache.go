// internal/cache/agency_cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"retention-service/internal/domain/agency"
	"retention-service/internal/observability"
	xerrors "retention-service/internal/pkg/errors"
	"retention-service/internal/service/customer"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const DefaultTTL = time.Hour

// RowCache is a shared store of raw rows so several instances can reuse one
// warehouse read. Implementations report a miss with ok == false.
type RowCache interface {
	GetRows(ctx context.Context, agencyName string) (rows []customer.Row, ok bool, err error)
	SetRows(ctx context.Context, agencyName string, rows []customer.Row, ttl time.Duration) error
	DeleteRows(ctx context.Context, agencyName string) error
}

type Options struct {
	TTL     time.Duration
	Shared  RowCache
	Metrics *observability.Metrics
	// Now overrides the clock.
	Now func() time.Time
	// PreloadConcurrency bounds concurrent loads in Preload.
	PreloadConcurrency int
}

// AgencyCache holds the record store of every loaded agency. Entries expire
// after the TTL and concurrent loads of the same agency are collapsed.
type AgencyCache struct {
	registry *agency.Registry
	source   customer.Source
	shared   RowCache
	metrics  *observability.Metrics
	logger   *zap.Logger
	ttl      time.Duration
	now      func() time.Time
	parallel int

	mu      sync.RWMutex
	entries map[string]*customer.Snapshot
	// gens is bumped on invalidation; a load started under an older
	// generation is never cached.
	gens map[string]uint64

	version atomic.Uint64
	group   singleflight.Group
}

func NewAgencyCache(registry *agency.Registry, source customer.Source, opts Options, logger *zap.Logger) *AgencyCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PreloadConcurrency <= 0 {
		opts.PreloadConcurrency = 4
	}
	return &AgencyCache{
		registry: registry,
		source:   source,
		shared:   opts.Shared,
		metrics:  opts.Metrics,
		logger:   logger,
		ttl:      opts.TTL,
		now:      opts.Now,
		parallel: opts.PreloadConcurrency,
		entries:  make(map[string]*customer.Snapshot),
		gens:     make(map[string]uint64),
	}
}

// AgencyStatus describes the cache entry of one agency.
type AgencyStatus struct {
	Agency      string     `json:"agency"`
	Cached      bool       `json:"cached"`
	LastUpdated *time.Time `json:"lastUpdated"`
	RowCount    int        `json:"rowCount"`
	Version     uint64     `json:"version,omitempty"`
}

type Status struct {
	Agencies          []AgencyStatus `json:"agencies"`
	TotalCacheEntries int            `json:"totalCacheEntries"`
	CacheSize         string         `json:"cacheSize"`
}

type PreloadResult struct {
	Agency string `json:"agency"`
	Rows   int    `json:"rows"`
	Error  string `json:"error,omitempty"`
}

// Get returns the current snapshot of an agency, loading it when missing or
// expired.
func (c *AgencyCache) Get(ctx context.Context, agencyName string) (*customer.Snapshot, error) {
	if snap := c.fresh(agencyName); snap != nil {
		c.metrics.CacheHit(agencyName)
		return snap, nil
	}
	c.metrics.CacheMiss(agencyName)
	return c.load(ctx, agencyName)
}

// Reload forces a new load of an agency regardless of the TTL.
func (c *AgencyCache) Reload(ctx context.Context, agencyName string) (*customer.Snapshot, error) {
	if err := c.Invalidate(ctx, agencyName); err != nil {
		return nil, err
	}
	return c.load(ctx, agencyName)
}

func (c *AgencyCache) fresh(agencyName string) *customer.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.entries[agencyName]
	if !ok || c.now().Sub(snap.LoadedAt) >= c.ttl {
		return nil
	}
	return snap
}

func (c *AgencyCache) load(ctx context.Context, agencyName string) (*customer.Snapshot, error) {
	a, err := c.registry.Get(agencyName)
	if err != nil {
		return nil, err
	}

	// The load outlives a single caller so joined callers are not cancelled
	// with it.
	loadCtx := context.WithoutCancel(ctx)
	gen := c.generation(agencyName)
	key := fmt.Sprintf("%s#%d", agencyName, gen)
	v, err, _ := c.group.Do(key, func() (any, error) {
		if snap := c.fresh(agencyName); snap != nil {
			return snap, nil
		}
		return c.build(loadCtx, a, gen)
	})
	if err != nil {
		return nil, err
	}
	return v.(*customer.Snapshot), nil
}

func (c *AgencyCache) generation(agencyName string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gens[agencyName]
}

func (c *AgencyCache) build(ctx context.Context, a agency.Agency, gen uint64) (*customer.Snapshot, error) {
	start := c.now()
	rows, err := c.fetch(ctx, a, gen)
	if err != nil {
		c.metrics.CacheLoad(a.Name, 0, err)
		c.logger.Error("failed to load agency records",
			zap.String("agency", a.Name),
			zap.Error(err),
		)
		return nil, err
	}

	store := customer.NewStore(customer.Normalize(rows, a, c.logger))
	snap := &customer.Snapshot{
		Agency:   a,
		Store:    store,
		Version:  c.version.Add(1),
		LoadedAt: c.now(),
	}

	c.mu.Lock()
	current := c.gens[a.Name] == gen
	if current {
		c.entries[a.Name] = snap
	}
	c.mu.Unlock()
	if !current {
		c.logger.Info("discarding agency load started before invalidation", zap.String("agency", a.Name))
	}

	c.metrics.CacheLoad(a.Name, store.Len(), nil)
	c.logger.Info("agency records loaded",
		zap.String("agency", a.Name),
		zap.Int("rows", store.Len()),
		zap.Uint64("version", snap.Version),
		zap.Duration("took", c.now().Sub(start)),
	)
	return snap, nil
}

func (c *AgencyCache) fetch(ctx context.Context, a agency.Agency, gen uint64) ([]customer.Row, error) {
	if c.shared != nil {
		rows, ok, err := c.shared.GetRows(ctx, a.Name)
		if err != nil {
			c.logger.Warn("shared row cache read failed", zap.String("agency", a.Name), zap.Error(err))
		} else if ok {
			return rows, nil
		}
	}

	rows, err := c.source.Fetch(ctx, a)
	if err != nil {
		return nil, xerrors.Unavailable(a.Name, err)
	}

	if c.shared != nil && c.generation(a.Name) == gen {
		if err := c.shared.SetRows(ctx, a.Name, rows, c.ttl); err != nil {
			c.logger.Warn("shared row cache write failed", zap.String("agency", a.Name), zap.Error(err))
		}
	}
	return rows, nil
}

// Invalidate drops the entry of one agency, locally and in the shared cache.
func (c *AgencyCache) Invalidate(ctx context.Context, agencyName string) error {
	if _, err := c.registry.Get(agencyName); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.entries, agencyName)
	c.gens[agencyName]++
	c.mu.Unlock()

	if c.shared != nil {
		if err := c.shared.DeleteRows(ctx, agencyName); err != nil {
			return fmt.Errorf("failed to invalidate shared rows: %w", err)
		}
	}
	c.logger.Info("agency cache invalidated", zap.String("agency", agencyName))
	return nil
}

func (c *AgencyCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]*customer.Snapshot)
	for _, name := range c.registry.Names() {
		c.gens[name]++
	}
	c.mu.Unlock()

	if c.shared != nil {
		for _, name := range c.registry.Names() {
			if err := c.shared.DeleteRows(ctx, name); err != nil {
				return fmt.Errorf("failed to invalidate shared rows: %w", err)
			}
		}
	}
	c.logger.Info("agency cache cleared")
	return nil
}

// Preload loads the given agencies concurrently, every configured agency
// when none is named. A failing agency does not stop the others.
func (c *AgencyCache) Preload(ctx context.Context, agencyNames ...string) ([]PreloadResult, error) {
	if len(agencyNames) == 0 {
		agencyNames = c.registry.Names()
	}
	for _, name := range agencyNames {
		if _, err := c.registry.Get(name); err != nil {
			return nil, fmt.Errorf("%w: %s", err, name)
		}
	}

	results := make([]PreloadResult, len(agencyNames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallel)
	for i, name := range agencyNames {
		g.Go(func() error {
			results[i].Agency = name
			snap, err := c.Get(gctx, name)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Rows = snap.Store.Len()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Status reports every configured agency, cached or not. CacheSize is the
// JSON size of the cached records in KB.
func (c *AgencyCache) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Status{Agencies: make([]AgencyStatus, 0, len(c.registry.Names()))}
	size := 0
	for _, name := range c.registry.Names() {
		as := AgencyStatus{Agency: name}
		if snap, ok := c.entries[name]; ok && c.now().Sub(snap.LoadedAt) < c.ttl {
			loaded := snap.LoadedAt
			as.Cached = true
			as.LastUpdated = &loaded
			as.RowCount = snap.Store.Len()
			as.Version = snap.Version
			if b, err := json.Marshal(snap.Store.Records()); err == nil {
				size += len(b)
			}
		}
		st.Agencies = append(st.Agencies, as)
	}
	st.TotalCacheEntries = len(c.entries)
	st.CacheSize = fmt.Sprintf("%.2f KB", float64(size)/1024)
	return st
}
