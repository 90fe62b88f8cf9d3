package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateAlerts(t *testing.T) {
	settings := DefaultAlertSettings()
	settings.Enabled = true
	settings.HomeLatitude = 0
	settings.HomeLongitude = 0

	events := []EarthquakeEvent{
		{ID: "near-strong", Magnitude: 5.1, Latitude: 0, Longitude: 1, OccurredAt: fixedNow.Add(-time.Hour)},
		{ID: "near-weak", Magnitude: 3.0, Latitude: 0, Longitude: 1, OccurredAt: fixedNow.Add(-time.Hour)},
		{ID: "far-strong", Magnitude: 6.5, Latitude: 0, Longitude: 30, OccurredAt: fixedNow.Add(-time.Hour)},
		{ID: "near-old", Magnitude: 6.0, Latitude: 1, Longitude: 0, OccurredAt: fixedNow.Add(-48 * time.Hour)},
		{ID: "north-threshold", Magnitude: 4.5, Latitude: 2, Longitude: 0, OccurredAt: fixedNow},
	}

	alerts := EvaluateAlerts(events, settings, fixedNow)
	require.Len(t, alerts, 2)

	assert.Equal(t, "alert-near-strong", alerts[0].ID)
	assert.Equal(t, "near-strong", alerts[0].Event.ID)
	assert.InDelta(t, 111.2, alerts[0].DistanceKm, 1.0)
	assert.InDelta(t, 90, alerts[0].BearingDeg, 0.5)
	assert.Equal(t, fixedNow, alerts[0].RaisedAt)

	assert.Equal(t, "alert-north-threshold", alerts[1].ID)
	assert.InDelta(t, 0, alerts[1].BearingDeg, 0.5)
}

func TestEvaluateAlerts_Disabled(t *testing.T) {
	events := []EarthquakeEvent{{ID: "x", Magnitude: 8, OccurredAt: fixedNow}}
	assert.Nil(t, EvaluateAlerts(events, DefaultAlertSettings(), fixedNow))
}

func TestAlertID_Deterministic(t *testing.T) {
	assert.Equal(t, AlertID("us7000abcd"), AlertID("us7000abcd"))
	assert.NotEqual(t, AlertID("a"), AlertID("b"))
}
