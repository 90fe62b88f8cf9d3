package alerting

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-feed/internal/domain"
	"github.com/couchcryptid/quake-feed/internal/observability"
	"github.com/couchcryptid/quake-feed/internal/store"
)

var now = time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]domain.Alert
	err     error
}

func (p *recordingPublisher) PublishAlerts(_ context.Context, alerts []domain.Alert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, alerts)
	return nil
}

func (p *recordingPublisher) ids() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, b := range p.batches {
		for _, a := range b {
			out = append(out, a.Event.ID)
		}
	}
	return out
}

type fakeSource struct {
	mu    sync.Mutex
	state store.State
	fn    func(store.State)
}

func (f *fakeSource) State() store.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSource) Subscribe(fn func(store.State)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fn = fn
	return func() {
		f.mu.Lock()
		f.fn = nil
		f.mu.Unlock()
	}
}

func (f *fakeSource) push(st store.State) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

func (f *fakeSource) subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fn != nil
}

func event(id string, mag, lat, lon float64, age time.Duration) domain.EarthquakeEvent {
	return domain.EarthquakeEvent{ID: id, Magnitude: mag, Latitude: lat, Longitude: lon, OccurredAt: now.Add(-age)}
}

func settings() domain.AlertSettings {
	s := domain.DefaultAlertSettings()
	s.Enabled = true
	return s
}

func setup(t *testing.T, src StateSource, pub Publisher, s domain.AlertSettings) (*Watcher, *observability.Metrics) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { domain.SetClock(nil) })
	m := observability.NewMetricsForTesting()
	return NewWatcher(src, pub, s, slog.New(slog.NewTextHandler(io.Discard, nil)), m), m
}

func TestWatcher_PublishesQualifyingOnce(t *testing.T) {
	pub := &recordingPublisher{}
	w, m := setup(t, &fakeSource{}, pub, settings())

	st := store.State{Events: []domain.EarthquakeEvent{
		event("near", 5.0, 1, 1, time.Hour),
		event("weak", 3.0, 1, 1, time.Hour),
		event("far", 6.0, 40, 40, time.Hour),
		event("old", 6.0, 1, 1, 48*time.Hour),
	}}

	assert.Equal(t, 1, w.evaluate(context.Background(), st))
	assert.Equal(t, 0, w.evaluate(context.Background(), st), "already raised")

	st.Events = append(st.Events, event("second", 4.6, -1, 0, time.Minute))
	assert.Equal(t, 1, w.evaluate(context.Background(), st))

	assert.Equal(t, []string{"near", "second"}, pub.ids())
	assert.InDelta(t, 2, testutil.ToFloat64(m.AlertsPublished), 0)
}

func TestWatcher_SkipsLoadingState(t *testing.T) {
	pub := &recordingPublisher{}
	w, _ := setup(t, &fakeSource{}, pub, settings())

	st := store.State{Loading: true, Events: []domain.EarthquakeEvent{event("near", 5.0, 1, 1, time.Hour)}}
	assert.Equal(t, 0, w.evaluate(context.Background(), st))
	assert.Empty(t, pub.ids())
}

func TestWatcher_RetriesAfterPublishError(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	w, m := setup(t, &fakeSource{}, pub, settings())

	st := store.State{Events: []domain.EarthquakeEvent{event("near", 5.0, 1, 1, time.Hour)}}
	assert.Equal(t, 0, w.evaluate(context.Background(), st))
	assert.InDelta(t, 1, testutil.ToFloat64(m.AlertPublishErrors), 0)

	pub.mu.Lock()
	pub.err = nil
	pub.mu.Unlock()
	assert.Equal(t, 1, w.evaluate(context.Background(), st))
	assert.Equal(t, []string{"near"}, pub.ids())
}

func TestWatcher_PrunesExpired(t *testing.T) {
	w, _ := setup(t, &fakeSource{}, &recordingPublisher{}, settings())
	w.seen["stale"] = now.Add(-25 * time.Hour)
	w.seen["recent"] = now.Add(-time.Hour)

	w.prune(now)

	assert.NotContains(t, w.seen, "stale")
	assert.Contains(t, w.seen, "recent")
}

func TestWatcher_RunDisabled(t *testing.T) {
	src := &fakeSource{}
	w, _ := setup(t, src, &recordingPublisher{}, domain.DefaultAlertSettings())

	require.NoError(t, w.Run(context.Background()))
	assert.False(t, src.subscribed())
}

func TestWatcher_Run(t *testing.T) {
	src := &fakeSource{state: store.State{Events: []domain.EarthquakeEvent{event("initial", 5.0, 1, 1, time.Hour)}}}
	pub := &recordingPublisher{}
	w, _ := setup(t, src, pub, settings())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, src.subscribed, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return len(pub.ids()) == 1 }, time.Second, 5*time.Millisecond)

	src.push(store.State{Events: []domain.EarthquakeEvent{
		event("initial", 5.0, 1, 1, time.Hour),
		event("pushed", 6.1, 2, 2, time.Minute),
	}})
	require.Eventually(t, func() bool { return len(pub.ids()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"initial", "pushed"}, pub.ids())

	cancel()
	require.NoError(t, <-done)
	assert.False(t, src.subscribed())
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := p.PublishAlerts(context.Background(), []domain.Alert{{
		ID:         domain.AlertID("us1"),
		Event:      domain.EarthquakeEvent{ID: "us1", Magnitude: 6.2, Tier: "Major"},
		DistanceKm: 120.5,
	}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"alert_id":"alert-us1"`)
	assert.Contains(t, buf.String(), `"distance_km":120.5`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}
