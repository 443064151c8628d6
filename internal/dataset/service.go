// Package dataset owns the current snapshot. It loads raw records through a
// Loader, normalizes and aggregates them, and swaps the result in atomically.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"wastedash/internal/aggregate"
	"wastedash/internal/core"
	"wastedash/internal/log"
	"wastedash/internal/metrics"
)

// ErrNoLoader is returned by NewService when no loader is configured.
var ErrNoLoader = errors.New("dataset loader is required")

// Loader fetches raw records from a backing source.
type Loader interface {
	Load(ctx context.Context) ([]core.RawRecord, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) ([]core.RawRecord, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context) ([]core.RawRecord, error) {
	return f(ctx)
}

// Options configures a Service.
type Options struct {
	Source        string
	MaterialLimit int
	Timeout       time.Duration
	Logger        *log.Logger
	Metrics       *metrics.Metrics
}

// Status summarizes the service state for health endpoints.
type Status struct {
	Ready        bool      `json:"ready"`
	Source       string    `json:"source"`
	Version      uint64    `json:"version"`
	LoadedAt     time.Time `json:"loaded_at,omitempty"`
	Observations int       `json:"observations"`
	Rejected     int       `json:"rejected"`
	LastError    string    `json:"last_error,omitempty"`
}

// Service holds the current snapshot and rebuilds it on Reload.
type Service struct {
	loader  Loader
	opts    Options
	logger  *log.Logger
	slog    *log.StructuredLogger
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.Mutex // serializes reloads
	version uint64
	lastErr atomic.Pointer[string]
	current atomic.Pointer[aggregate.Snapshot]
	ready   atomic.Bool
}

// NewService creates a service serving an empty snapshot until the first
// successful Reload.
func NewService(loader Loader, opts Options) (*Service, error) {
	if loader == nil {
		return nil, ErrNoLoader
	}
	if opts.MaterialLimit == 0 {
		opts.MaterialLimit = aggregate.DefaultMaterialLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentDataset)

	s := &Service{
		loader:  loader,
		opts:    opts,
		logger:  logger,
		slog:    log.NewStructuredLogger(logger),
		metrics: opts.Metrics,
		now:     time.Now,
	}
	empty := aggregate.Empty()
	empty.Source = opts.Source
	s.current.Store(empty)
	return s, nil
}

// Snapshot returns the current snapshot. It is never nil.
func (s *Service) Snapshot() *aggregate.Snapshot {
	return s.current.Load()
}

// Ready reports whether a load has succeeded.
func (s *Service) Ready() bool {
	return s.ready.Load()
}

// Status returns the state reported by the health endpoints.
func (s *Service) Status() Status {
	snap := s.Snapshot()
	st := Status{
		Ready:        s.Ready(),
		Source:       s.opts.Source,
		Version:      snap.Version,
		LoadedAt:     snap.LoadedAt,
		Observations: snap.Len(),
		Rejected:     snap.Rejected.Total(),
	}
	if msg := s.lastErr.Load(); msg != nil {
		st.LastError = *msg
	}
	return st
}

// Reload loads, normalizes and aggregates the dataset and installs the
// result as the current snapshot. On failure the previous snapshot stays in
// place and the error is returned.
func (s *Service) Reload(ctx context.Context) (*aggregate.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	records, err := s.loader.Load(ctx)
	if err != nil {
		err = fmt.Errorf("load %s: %w", s.opts.Source, err)
		msg := err.Error()
		s.lastErr.Store(&msg)
		s.metrics.ObserveLoad(s.now().Sub(start), err)
		s.slog.LogError(ctx, "Dataset load failed, keeping previous snapshot", err, log.OpLoad,
			log.NewFields().WithLoad(s.opts.Source, 0, s.Snapshot().Len(), 0))
		return s.Snapshot(), err
	}

	obs, rej := core.NormalizeAll(records)
	snap := aggregate.Build(obs, s.opts.MaterialLimit)
	s.version++
	snap.Version = s.version
	snap.Source = s.opts.Source
	snap.LoadedAt = s.now()
	snap.Rejected = rej

	s.current.Store(snap)
	s.ready.Store(true)
	s.lastErr.Store(nil)

	s.metrics.ObserveLoad(s.now().Sub(start), nil)
	s.metrics.ObserveSnapshot(snap.Version, snap.Len(), rej, snap.LoadedAt)
	s.slog.LogLoad(ctx, s.opts.Source, snap.Version, len(records), snap.Len(), rej.Total())
	if rej.Total() > 0 {
		s.logger.InfoContext(ctx, "Dropped malformed rows",
			"missing_field", rej.MissingField,
			"invalid_year", rej.InvalidYear,
			"invalid_month", rej.InvalidMonth,
			"invalid_weight", rej.InvalidWeight)
	}
	return snap, nil
}
