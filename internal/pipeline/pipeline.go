// Package pipeline serves derived views of the earthquake table. Every view
// runs Filter → Sample → Sequence/Aggregate on a fresh copy of the memoised
// canonical table; identical selections are answered from a bounded cache.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-explorer/internal/analysis"
	"github.com/couchcryptid/quake-explorer/internal/domain"
	"github.com/couchcryptid/quake-explorer/internal/lru"
	"github.com/couchcryptid/quake-explorer/internal/observability"
)

// TableLoader reads the data file into a canonical table. Implementations
// return the same *Table while the file is unchanged.
type TableLoader interface {
	Load(path string) (*domain.Table, error)
}

// Options configures a Service.
type Options struct {
	DataFile  string
	Sample    analysis.SampleOptions
	Density   analysis.DensityOptions
	CacheSize int
}

// Service owns the canonical table and computes views from it. It is safe
// for concurrent use; the table is shared read-only.
type Service struct {
	loader   TableLoader
	resolver domain.RegionResolver
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu     sync.RWMutex
	source *domain.Table // last table returned by the loader
	table  *domain.Table // source after region backfill

	views *lru.Cache[string, any]
	ready atomic.Bool
}

// New creates a Service. resolver may be nil to skip region backfill.
func New(loader TableLoader, resolver domain.RegionResolver, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.Density.Points == 0 && opts.Density.MinRows == 0 {
		opts.Density = analysis.DefaultDensityOptions()
	}
	return &Service{
		loader:   loader,
		resolver: resolver,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
		views:    lru.New[string, any](opts.CacheSize),
	}
}

// CheckReadiness returns nil once the data file has been loaded successfully.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("data file has not been loaded yet")
	}
	return nil
}

// Table returns the canonical table, loading the data file on first use and
// reloading it when its content changes.
func (s *Service) Table(ctx context.Context) (*domain.Table, error) {
	src, err := s.loader.Load(s.opts.DataFile)
	if err != nil {
		s.metrics.TableLoads.WithLabelValues("error").Inc()
		s.logger.Error("data file load failed", "path", s.opts.DataFile, "error", err)
		return nil, err
	}

	s.mu.RLock()
	if src == s.source && s.table != nil {
		t := s.table
		s.mu.RUnlock()
		s.metrics.TableLoads.WithLabelValues("unchanged").Inc()
		return t, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if src == s.source && s.table != nil {
		return s.table, nil
	}

	t := s.backfill(ctx, src)
	s.source, s.table = src, t
	s.views.Purge()
	s.ready.Store(true)

	s.metrics.TableLoads.WithLabelValues("loaded").Inc()
	s.metrics.RowsLoaded.Set(float64(len(t.Events)))
	s.metrics.RowsDropped.Reset()
	for reason, n := range t.Report.Dropped {
		s.metrics.RowsDropped.WithLabelValues(reason).Set(float64(n))
	}
	return t, nil
}

// Refresh drops the current table and view cache and loads the file again.
func (s *Service) Refresh(ctx context.Context) (*domain.Table, error) {
	s.mu.Lock()
	s.source, s.table = nil, nil
	s.views.Purge()
	s.mu.Unlock()
	return s.Table(ctx)
}

// backfill fills blank region labels into a copy of src. src itself is the
// loader's memoised table and is never modified.
func (s *Service) backfill(ctx context.Context, src *domain.Table) *domain.Table {
	if s.resolver == nil {
		return src
	}
	start := time.Now()
	events, filled := domain.BackfillRegions(ctx, src.Events, s.resolver, s.logger)
	if filled == 0 {
		return src
	}
	t := *src
	t.Events = events
	s.logger.Info("region labels backfilled", "events", filled, "duration", time.Since(start))
	return &t
}

// Result wraps a view with the row counts and warnings behind it.
type Result[T any] struct {
	Data     T                `json:"data"`
	Rows     int              `json:"rows"`              // rows after filtering
	Sampled  int              `json:"sampled,omitempty"` // rows after sampling, when sampled
	Empty    bool             `json:"empty"`
	Warnings []domain.Warning `json:"warnings,omitempty"`
}

// selection is the filtered (and optionally sampled) subset a view works on.
type selection struct {
	table    *domain.Table
	filtered []domain.Event
	events   []domain.Event
	sampled  bool
}

// viewFunc computes one view from a selection.
type viewFunc[T any] func(sel selection) (T, []domain.Warning)

// runView loads the table, applies q, and computes the named view, consulting
// the cache first. sample controls whether the selection is down-sampled.
func runView[T any](ctx context.Context, s *Service, name string, q Query, sample bool, fn viewFunc[T]) (Result[T], error) {
	start := time.Now()
	defer func() {
		s.metrics.ViewDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	t, err := s.Table(ctx)
	if err != nil {
		s.metrics.ViewRequests.WithLabelValues(name, "unavailable").Inc()
		return Result[T]{}, err
	}

	key := fmt.Sprintf("%s|%s|%s", name, q.Key(), t.Checksum)
	if cached, ok := s.views.Get(key); ok {
		if r, ok := cached.(Result[T]); ok {
			s.metrics.ViewCache.WithLabelValues("hit").Inc()
			s.metrics.ViewRequests.WithLabelValues(name, outcome(r.Empty)).Inc()
			return r, nil
		}
	}
	s.metrics.ViewCache.WithLabelValues("miss").Inc()

	sel := s.selection(t, q, sample)
	var res Result[T]
	res.Rows = len(sel.filtered)
	if sel.sampled {
		res.Sampled = len(sel.events)
	}
	if len(sel.filtered) == 0 {
		res.Empty = true
		res.Warnings = []domain.Warning{domain.EmptySelection()}
	} else {
		res.Data, res.Warnings = fn(sel)
	}

	for _, w := range res.Warnings {
		if w.Kind == domain.WarnInsufficientGroupSize {
			s.metrics.GroupsSkipped.WithLabelValues(name).Inc()
		}
	}
	s.metrics.ViewRequests.WithLabelValues(name, outcome(res.Empty)).Inc()
	s.views.Put(key, res)

	s.logger.Debug("view computed",
		"view", name,
		"rows", res.Rows,
		"sampled", res.Sampled,
		"warnings", len(res.Warnings),
		"duration", time.Since(start),
	)
	return res, nil
}

func outcome(empty bool) string {
	if empty {
		return "empty"
	}
	return "ok"
}

func (s *Service) selection(t *domain.Table, q Query, sample bool) selection {
	sel := selection{table: t, filtered: analysis.Filter(t.Events, q.predicate(t.Events))}
	sel.events = sel.filtered
	if !sample {
		return sel
	}
	opts := q.sampleOptions(s.opts.Sample)
	if opts.Target > 0 && opts.Target < len(sel.filtered) {
		sel.events = analysis.Sample(sel.filtered, opts)
		sel.sampled = true
	}
	return sel
}
