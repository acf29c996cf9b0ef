package lgd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"lgd_site/config"
	"lgd_site/metrics"
	"lgd_site/models"
)

const (
	defaultFetchTimeout = 2 * time.Minute
	defaultCacheTTL     = 24 * time.Hour
)

// Result is the outcome of loading one tier: exactly one of Dataset and Err
// is set.
type Result struct {
	Tier    models.Tier
	Dataset *models.Dataset
	Err     error
}

// OK reports whether the dataset loaded.
func (r Result) OK() bool {
	return r.Err == nil && r.Dataset != nil
}

// TierStatus describes the cache state of a tier.
type TierStatus struct {
	Tier      models.Tier `json:"tier"`
	URL       string      `json:"url"`
	Cached    bool        `json:"cached"`
	Rows      int         `json:"rows,omitempty"`
	LoadedAt  *time.Time  `json:"loaded_at,omitempty"`
	ExpiresAt *time.Time  `json:"expires_at,omitempty"`
}

// Store loads tier datasets on demand and keeps them in a TTL cache. Cached
// datasets are shared read-only; concurrent cold loads of one tier collapse
// into a single fetch.
type Store struct {
	source  Source
	urls    map[models.Tier]string
	cache   *cache.Cache
	ttl     time.Duration
	timeout time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics

	// genMu guards gens. A fetch only caches its dataset if the tier's
	// generation is unchanged since the fetch started.
	genMu sync.Mutex
	gens  map[models.Tier]uint64
	log     *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSource sets how dataset URLs are opened.
func WithSource(src Source) StoreOption {
	return func(s *Store) { s.source = src }
}

// WithURLs overrides the CSV location of individual tiers.
func WithURLs(urls map[models.Tier]string) StoreOption {
	return func(s *Store) {
		for tier, u := range urls {
			if u != "" {
				s.urls[tier] = u
			}
		}
	}
}

// WithCache shares an existing cache. Entries are stored with the store TTL.
func WithCache(c *cache.Cache) StoreOption {
	return func(s *Store) { s.cache = c }
}

// WithTTL sets how long a loaded dataset is served before re-fetching.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithFetchTimeout bounds a single fetch and parse.
func WithFetchTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMetrics records loads and cache lookups.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore builds a store reading the default snapshot URLs.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		urls:    DefaultURLs(DefaultBaseURL),
		ttl:     defaultCacheTTL,
		timeout: defaultFetchTimeout,
		gens:    make(map[models.Tier]uint64),
		log:     slog.Default().With("component", "lgd-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.source == nil {
		s.source = NewSchemeSource(s.timeout)
	}
	if s.cache == nil {
		s.cache = cache.New(s.ttl, 2*s.ttl)
	}
	return s
}

// URL returns the CSV location of a tier.
func (s *Store) URL(tier models.Tier) string {
	return s.urls[tier]
}

func (s *Store) cacheKey(tier models.Tier) string {
	return config.GetCacheKey("dataset", tier, s.urls[tier])
}

// Load returns the tier dataset, fetching it on a cold cache. Every failure
// is reported as a *DataLoadError.
func (s *Store) Load(ctx context.Context, tier models.Tier) (*models.Dataset, error) {
	spec, err := Spec(tier)
	if err != nil {
		return nil, &DataLoadError{Tier: tier, Err: err}
	}
	url, ok := s.urls[tier]
	if !ok || url == "" {
		return nil, &DataLoadError{Tier: tier, Err: fmt.Errorf("no url configured")}
	}

	key := s.cacheKey(tier)
	if v, found := s.cache.Get(key); found {
		s.metrics.CacheLookup(string(tier), true)
		return v.(*models.Dataset), nil
	}
	s.metrics.CacheLookup(string(tier), false)

	ch := s.group.DoChan(key, func() (interface{}, error) {
		if v, found := s.cache.Get(key); found {
			return v, nil
		}
		gen := s.generation(tier)
		ds, err := s.fetch(context.WithoutCancel(ctx), spec, url)
		if err != nil {
			return nil, err
		}
		s.genMu.Lock()
		if s.gens[tier] == gen {
			s.cache.Set(key, ds, s.ttl)
		} else {
			s.log.Info("discarding dataset fetched before refresh", "tier", tier)
		}
		s.genMu.Unlock()
		return ds, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Dataset), nil
	case <-ctx.Done():
		return nil, &DataLoadError{Tier: tier, Source: url, Err: ctx.Err()}
	}
}

func (s *Store) generation(tier models.Tier) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[tier]
}

func (s *Store) fetch(ctx context.Context, spec TierSpec, url string) (*models.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	s.log.Info("loading dataset", "tier", spec.Tier, "url", url)

	ds, err := s.read(ctx, spec, url)
	s.metrics.ObserveLoad(string(spec.Tier), err, time.Since(start), ds.Len())
	if err != nil {
		s.log.Error("dataset load failed", "tier", spec.Tier, "url", url, "error", err)
		return nil, &DataLoadError{Tier: spec.Tier, Source: url, Err: err}
	}

	ds.Source = url
	ds.LoadedAt = time.Now().UTC()
	s.log.Info("dataset loaded",
		"tier", spec.Tier,
		"rows", ds.Len(),
		"columns", len(ds.Columns),
		"duration", time.Since(start))
	return ds, nil
}

func (s *Store) read(ctx context.Context, spec TierSpec, url string) (*models.Dataset, error) {
	rc, err := s.source.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := ReadDataset(spec, rc)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ctx.Err(), err)
		}
		return nil, err
	}
	return ds, nil
}

// LoadAll loads every tier concurrently. A failing tier never affects the
// others.
func (s *Store) LoadAll(ctx context.Context) map[models.Tier]Result {
	var wg sync.WaitGroup
	var mutex sync.Mutex
	results := make(map[models.Tier]Result, len(models.Tiers))

	for _, tier := range models.Tiers {
		wg.Add(1)
		go func(t models.Tier) {
			defer wg.Done()
			ds, err := s.Load(ctx, t)

			mutex.Lock()
			results[t] = Result{Tier: t, Dataset: ds, Err: err}
			mutex.Unlock()
		}(tier)
	}

	wg.Wait()
	return results
}

// Refresh drops the cached dataset of a tier so the next Load re-fetches it.
func (s *Store) Refresh(tier models.Tier) error {
	if _, err := Spec(tier); err != nil {
		return err
	}
	key := s.cacheKey(tier)
	s.genMu.Lock()
	s.gens[tier]++
	s.cache.Delete(key)
	s.genMu.Unlock()
	s.group.Forget(key)
	s.log.Info("dataset cache invalidated", "tier", tier)
	return nil
}

// RefreshAll drops every cached tier.
func (s *Store) RefreshAll() {
	for _, tier := range models.Tiers {
		_ = s.Refresh(tier)
	}
}

// Status reports the cache state of every tier without loading anything.
func (s *Store) Status() []TierStatus {
	out := make([]TierStatus, 0, len(models.Tiers))
	for _, tier := range models.Tiers {
		st := TierStatus{Tier: tier, URL: s.urls[tier]}
		if v, exp, found := s.cache.GetWithExpiration(s.cacheKey(tier)); found {
			ds := v.(*models.Dataset)
			st.Cached = true
			st.Rows = ds.Len()
			loaded := ds.LoadedAt
			st.LoadedAt = &loaded
			if !exp.IsZero() {
				st.ExpiresAt = &exp
			}
		}
		out = append(out, st)
	}
	return out
}
