// Package http serves the dashboard page, the chart JSON API and the
// operational endpoints.
package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"wastedash/internal/aggregate"
	"wastedash/internal/cache"
	"wastedash/internal/dataset"
	"wastedash/internal/filter"
	"wastedash/internal/log"
	"wastedash/internal/metrics"
	"wastedash/internal/middleware/ratelimit"
	"wastedash/internal/middleware/security"
	"wastedash/internal/middleware/trace"
	appweb "wastedash/web"
)

const (
	cacheCleanupInterval = 5 * time.Minute
	shutdownTimeout      = 15 * time.Second
	staticMaxAge         = 3600
)

// Dataset is the read side of dataset.Service.
type Dataset interface {
	Snapshot() *aggregate.Snapshot
	Ready() bool
	Status() dataset.Status
}

// Config holds server options.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	CacheSize          int
	CacheTTL           time.Duration
	PieOther           bool
	Logger             *log.Logger
	Metrics            *metrics.Metrics
}

type Server struct {
	http.Server
	dataset   Dataset
	templates *template.Template
	opts      filter.Options
	logger    *log.Logger
	metrics   *metrics.Metrics
	started   time.Time

	views       *cache.Versioned[filter.Dashboard]
	viewCache   *cache.LRUCache[filter.Dashboard]
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates.
func NewServer(ds Dataset, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	viewCache := cache.NewLRUCache[filter.Dashboard](cfg.CacheSize, cfg.CacheTTL)
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		dataset:   ds,
		opts:      filter.Options{PieOther: cfg.PieOther},
		logger:    logger,
		metrics:   cfg.Metrics,
		started:   time.Now(),
		viewCache: viewCache,
		views:     cache.NewVersioned[filter.Dashboard](viewCache, cfg.Metrics),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMinute,
			Metrics:           cfg.Metrics,
		}),
		detector: security.NewDetector(logger, cfg.Metrics),
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)

	mux.Handle("GET /{$}", limited(http.HandlerFunc(s.handleIndex)))
	mux.Handle("GET /api/dashboard", limited(http.HandlerFunc(s.handleDashboard)))
	mux.Handle("GET /api/charts/{chart}", limited(http.HandlerFunc(s.handleChart)))
	mux.Handle("GET /api/categories", limited(http.HandlerFunc(s.handleCategories)))
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.metrics.Handler())

	// The trace middleware must wrap the mux directly; the others do not
	// replace the request.
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP, s.logger, s.metrics)
	return tracer.Middleware(headers.Middleware(s.detector.Middleware(mux)))
}

// Run serves until ctx is done, then shuts down gracefully. It also drives
// view cache cleanup.
func (s *Server) Run(ctx context.Context) error {
	manager := cache.NewManager(s.logger)
	manager.Register(s.viewCache)
	go manager.Run(ctx, cacheCleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.Addr)
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops the rate limiter and the HTTP server. It runs once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
		s.logger.Info("HTTP server stopped", log.FieldOperation, log.OpShutdown)
	})
	return err
}
