// Package alerting raises notifications for nearby strong earthquakes as the
// store's event list changes.
package alerting

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/quake-feed/internal/domain"
	"github.com/couchcryptid/quake-feed/internal/observability"
	"github.com/couchcryptid/quake-feed/internal/store"
)

// Publisher delivers alerts downstream.
type Publisher interface {
	PublishAlerts(ctx context.Context, alerts []domain.Alert) error
}

// StateSource is the part of the store the watcher reads.
type StateSource interface {
	State() store.State
	Subscribe(fn func(store.State)) (unsubscribe func())
}

// Watcher evaluates every settled store state against the alert settings and
// publishes each qualifying event once.
type Watcher struct {
	source    StateSource
	publisher Publisher
	settings  domain.AlertSettings
	logger    *slog.Logger
	metrics   *observability.Metrics

	// seen maps event id to occurrence time; entries older than MaxAge are
	// pruned since they can no longer qualify.
	seen map[string]time.Time
}

// NewWatcher creates a watcher. It does nothing until Run is called.
func NewWatcher(source StateSource, publisher Publisher, settings domain.AlertSettings, logger *slog.Logger, metrics *observability.Metrics) *Watcher {
	return &Watcher{
		source:    source,
		publisher: publisher,
		settings:  settings,
		logger:    logger,
		metrics:   metrics,
		seen:      make(map[string]time.Time),
	}
}

// Run evaluates the current state, then every subsequent one, until ctx is
// cancelled. Intermediate states are skipped when evaluation falls behind.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.settings.Enabled {
		w.logger.Info("alert watcher disabled")
		return nil
	}

	latest := make(chan store.State, 1)
	unsubscribe := w.source.Subscribe(func(st store.State) {
		// Replace any pending state with the newer one.
		select {
		case <-latest:
		default:
		}
		latest <- st
	})
	defer unsubscribe()

	w.logger.Info("alert watcher started",
		"min_magnitude", w.settings.MinMagnitude,
		"max_distance_km", w.settings.MaxDistanceKm,
	)
	w.evaluate(ctx, w.source.State())

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("alert watcher stopping", "reason", ctx.Err())
			return nil
		case st := <-latest:
			w.evaluate(ctx, st)
		}
	}
}

// evaluate publishes alerts for events in st not yet raised. Returns the
// number published.
func (w *Watcher) evaluate(ctx context.Context, st store.State) int {
	if st.Loading || len(st.Events) == 0 {
		return 0
	}

	now := domain.Now()
	w.prune(now)

	var fresh []domain.Alert
	for _, a := range domain.EvaluateAlerts(st.Events, w.settings, now) {
		if _, ok := w.seen[a.Event.ID]; ok {
			continue
		}
		fresh = append(fresh, a)
	}
	if len(fresh) == 0 {
		return 0
	}

	if err := w.publisher.PublishAlerts(ctx, fresh); err != nil {
		// Not marked seen, so the next state retries them.
		w.metrics.AlertPublishErrors.Inc()
		w.logger.Error("publish alerts failed", "count", len(fresh), "error", err)
		return 0
	}

	for _, a := range fresh {
		w.seen[a.Event.ID] = a.Event.OccurredAt
	}
	w.metrics.AlertsPublished.Add(float64(len(fresh)))
	return len(fresh)
}

func (w *Watcher) prune(now time.Time) {
	for id, occurred := range w.seen {
		if now.Sub(occurred) > w.settings.MaxAge {
			delete(w.seen, id)
		}
	}
}

// LogPublisher writes alerts to the log. Used when Kafka is disabled.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a publisher that logs at warn level.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishAlerts(_ context.Context, alerts []domain.Alert) error {
	for _, a := range alerts {
		p.logger.Warn("earthquake alert",
			"alert_id", a.ID,
			"event_id", a.Event.ID,
			"magnitude", a.Event.Magnitude,
			"tier", a.Event.Tier,
			"place", a.Event.Place,
			"distance_km", a.DistanceKm,
			"bearing_deg", a.BearingDeg,
			"occurred_at", a.Event.OccurredAt,
		)
	}
	return nil
}
