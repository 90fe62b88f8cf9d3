package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-feed/internal/domain"
	"github.com/couchcryptid/quake-feed/internal/store"
)

// FeedStore is the store surface the API exposes.
type FeedStore interface {
	sharedobs.ReadinessChecker
	State() store.State
	Subscribe(fn func(store.State)) (unsubscribe func())
	UpdateFilters(ctx context.Context, patch domain.FilterPatch) store.State
	Refresh(ctx context.Context) store.State
	LookupEvent(ctx context.Context, id string) (domain.EarthquakeEvent, error)
}

// Server exposes the feed API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	store      FeedStore
	logger     *slog.Logger

	// heartbeat is the idle interval between SSE keep-alive comments.
	heartbeat time.Duration

	// closing ends open streams; Shutdown alone would wait on them.
	closing   chan struct{}
	closeOnce sync.Once
}

// NewServer creates an HTTP server with the /api/v1 routes and /healthz,
// /readyz, and /metrics.
func NewServer(addr string, st FeedStore, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: mux,
			// A fetch cycle can take up to USGS_TIMEOUT; the stream clears
			// its own write deadline.
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:     st,
		logger:    logger,
		heartbeat: 15 * time.Second,
		closing:   make(chan struct{}),
	}

	mux.HandleFunc("GET /api/v1/state", s.handleState)
	mux.HandleFunc("PATCH /api/v1/filters", s.handleUpdateFilters)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/v1/events/{id}", s.handleEvent)
	mux.HandleFunc("GET /api/v1/tiers", s.handleTiers)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(st))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closing) })
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
