package domain

import (
	"time"

	"github.com/skypies/geo"
)

// AlertSettings decides which events are worth notifying about.
type AlertSettings struct {
	Enabled       bool
	MinMagnitude  float64       `validate:"gte=0"`
	MaxDistanceKm float64       `validate:"gt=0"`
	HomeLatitude  float64       `validate:"lat"`
	HomeLongitude float64       `validate:"lng"`
	MaxAge        time.Duration `validate:"gt=0"` // older events are history, not alerts
}

// DefaultAlertSettings mirrors the app's out-of-the-box alert preferences.
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{
		MinMagnitude:  4.5,
		MaxDistanceKm: 500,
		MaxAge:        24 * time.Hour,
	}
}

// Home returns the reference location distances are measured from.
func (s AlertSettings) Home() geo.Latlong {
	return geo.Latlong{Lat: s.HomeLatitude, Long: s.HomeLongitude}
}

// Alert is a notification that an event met the alert settings.
type Alert struct {
	ID         string          `json:"id"`
	Event      EarthquakeEvent `json:"event"`
	DistanceKm float64         `json:"distance_km"`
	BearingDeg float64         `json:"bearing_deg"` // from home towards the epicenter, [0,360)
	RaisedAt   time.Time       `json:"raised_at"`
}

// AlertID is deterministic per event so downstream consumers can deduplicate.
func AlertID(eventID string) string {
	return "alert-" + eventID
}

// EvaluateAlerts returns an alert for each event that is strong enough, close
// enough to home, and recent enough. Order follows events.
func EvaluateAlerts(events []EarthquakeEvent, s AlertSettings, now time.Time) []Alert {
	if !s.Enabled {
		return nil
	}

	home := s.Home()
	var alerts []Alert
	for _, e := range events {
		if e.Magnitude < s.MinMagnitude {
			continue
		}
		if now.Sub(e.OccurredAt) > s.MaxAge {
			continue
		}
		dist := home.DistKM(e.Latlong())
		if dist > s.MaxDistanceKm {
			continue
		}
		alerts = append(alerts, Alert{
			ID:         AlertID(e.ID),
			Event:      e,
			DistanceKm: dist,
			BearingDeg: home.BearingTowards(e.Latlong()),
			RaisedAt:   now,
		})
	}
	return alerts
}
