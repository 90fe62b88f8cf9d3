package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/quake-feed/internal/domain"
	"github.com/couchcryptid/quake-feed/internal/observability"
)

// LoadErrorMessage is the only error text list-fetch consumers ever see.
const LoadErrorMessage = "Failed to load earthquake data. Please try again later."

// EventSource fetches raw features from upstream.
type EventSource interface {
	FetchEvents(ctx context.Context, q domain.Query) ([]domain.Feature, error)
	FetchEvent(ctx context.Context, id string) (domain.Feature, error)
}

// SnapshotCache persists the last successful fetch across restarts.
type SnapshotCache interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap domain.Snapshot) error
}

// State is a point-in-time copy of the store. Callers own the slices.
type State struct {
	Filters    domain.FilterSpec        `json:"filters"`
	Events     []domain.EarthquakeEvent `json:"events"`
	Loading    bool                     `json:"loading"`
	Error      string                   `json:"error,omitempty"`
	Generation uint64                   `json:"generation"`
	Version    uint64                   `json:"version"`
	UpdatedAt  time.Time                `json:"updated_at,omitzero"`
}

func (s State) clone() State {
	s.Filters = s.Filters.Clone()
	s.Events = slices.Clone(s.Events)
	return s
}

// Option configures a Store.
type Option func(*Store)

// WithInitialFilters replaces the default starting filters.
func WithInitialFilters(f domain.FilterSpec) Option {
	return func(s *Store) { s.state.Filters = f.Clone() }
}

// WithSnapshotCache enables warm start and saves after each successful cycle.
func WithSnapshotCache(c SnapshotCache) Option {
	return func(s *Store) { s.snapshots = c }
}

// Store holds the current filters and the events they select. Every fetch
// cycle takes a new generation; only the cycle holding the current
// generation may write its result, so the latest request always wins.
type Store struct {
	source    EventSource
	snapshots SnapshotCache
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	mu    sync.Mutex
	state State

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int

	// notifyMu serializes delivery; delivered is the last version sent.
	notifyMu  sync.Mutex
	delivered uint64
}

// New creates a store with default filters and no events.
func New(source EventSource, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Store {
	s := &Store{
		source:  source,
		logger:  logger,
		metrics: metrics,
		state:   State{Filters: domain.DefaultFilterSpec(), Events: []domain.EarthquakeEvent{}},
		subs:    make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive every state change, in version order.
// fn runs on the goroutine that made the change and must not call the
// store's mutating methods synchronously.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// CheckReadiness returns nil once events have been loaded at least once,
// either by a fetch or from a snapshot.
func (s *Store) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("store has not loaded any earthquake data yet")
	}
	return nil
}

// UpdateFilters merges patch into the current filters and runs a fetch
// cycle. It returns the state once this cycle settles, which may already
// reflect a newer cycle.
func (s *Store) UpdateFilters(ctx context.Context, patch domain.FilterPatch) State {
	return s.runCycle(ctx, &patch)
}

// Refresh runs a fetch cycle with the current filters.
func (s *Store) Refresh(ctx context.Context) State {
	return s.runCycle(ctx, nil)
}

// LookupEvent fetches a single event. Errors are returned unchanged so the
// caller can tell domain.ErrNotFound from domain.ErrFetchFailure.
func (s *Store) LookupEvent(ctx context.Context, id string) (domain.EarthquakeEvent, error) {
	f, err := s.source.FetchEvent(ctx, id)
	if err != nil {
		return domain.EarthquakeEvent{}, err
	}
	return domain.Normalize(f), nil
}

// Warm seeds events from the snapshot cache when its filters match the
// current ones and no cycle has written yet. A missing snapshot is not an
// error.
func (s *Store) Warm(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	snap, err := s.snapshots.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrNoSnapshot):
		s.metrics.SnapshotOps.WithLabelValues("load", "miss").Inc()
		return nil
	case err != nil:
		s.metrics.SnapshotOps.WithLabelValues("load", "error").Inc()
		return err
	}
	s.metrics.SnapshotOps.WithLabelValues("load", "success").Inc()

	s.mu.Lock()
	if s.state.Generation != 0 || !s.state.Filters.Equal(snap.Filters) {
		s.mu.Unlock()
		s.logger.Info("snapshot ignored", "saved_at", snap.SavedAt)
		return nil
	}
	s.state.Events = slices.Clone(snap.Events)
	s.state.UpdatedAt = snap.SavedAt
	out := s.bumpLocked()
	s.mu.Unlock()

	s.ready.Store(true)
	s.metrics.EventsHeld.Set(float64(len(out.Events)))
	s.logger.Info("store warmed from snapshot", "events", len(out.Events), "saved_at", snap.SavedAt)
	s.notify(out)
	return nil
}

func (s *Store) runCycle(ctx context.Context, patch *domain.FilterPatch) State {
	s.mu.Lock()
	if patch != nil {
		s.state.Filters = s.state.Filters.Merge(*patch)
	}
	s.state.Generation++
	gen := s.state.Generation
	filters := s.state.Filters.Clone()
	s.state.Loading = true
	s.state.Error = ""
	started := s.bumpLocked()
	s.mu.Unlock()

	s.metrics.StoreLoading.Set(1)
	s.notify(started)

	features, err := s.source.FetchEvents(ctx, domain.NewQuery(filters))
	var events []domain.EarthquakeEvent
	if err == nil {
		events = domain.NormalizeAll(features)
	}

	s.mu.Lock()
	if gen != s.state.Generation {
		current := s.state.clone()
		s.mu.Unlock()
		s.metrics.FetchCycles.WithLabelValues("stale").Inc()
		s.logger.Debug("discarding stale fetch result", "generation", gen, "current_generation", current.Generation)
		return current
	}

	// A cycle abandoned because ctx ended (shutdown) is not a load failure.
	canceled := err != nil && ctx.Err() != nil
	s.state.Loading = false
	switch {
	case canceled:
	case err != nil:
		s.state.Error = LoadErrorMessage
	default:
		s.state.Events = events
		s.state.UpdatedAt = domain.Now()
	}
	done := s.bumpLocked()
	s.mu.Unlock()

	s.metrics.StoreLoading.Set(0)
	switch {
	case canceled:
		s.metrics.FetchCycles.WithLabelValues("canceled").Inc()
		s.logger.Debug("fetch cycle canceled", "generation", gen, "reason", ctx.Err())
	case err != nil:
		s.metrics.FetchCycles.WithLabelValues("error").Inc()
		s.logger.Error("fetch cycle failed", "generation", gen, "error", err)
	default:
		s.metrics.FetchCycles.WithLabelValues("success").Inc()
		s.metrics.EventsHeld.Set(float64(len(events)))
		s.ready.Store(true)
		s.logger.Info("fetch cycle complete", "generation", gen, "events", len(events))
		s.save(ctx, done)
	}

	s.notify(done)
	return done
}

// bumpLocked advances the version and returns a copy for delivery.
// Caller holds s.mu.
func (s *Store) bumpLocked() State {
	s.state.Version++
	return s.state.clone()
}

// notify delivers st to subscribers unless a newer version already went out.
func (s *Store) notify(st State) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if st.Version <= s.delivered {
		return
	}
	s.delivered = st.Version

	s.subMu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(st.clone())
	}
}

func (s *Store) save(ctx context.Context, st State) {
	if s.snapshots == nil {
		return
	}
	snap := domain.Snapshot{Filters: st.Filters, Events: st.Events, SavedAt: st.UpdatedAt}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		s.metrics.SnapshotOps.WithLabelValues("save", "error").Inc()
		s.logger.Warn("snapshot save failed", "error", err)
		return
	}
	s.metrics.SnapshotOps.WithLabelValues("save", "success").Inc()
}
