package domain

import "time"

// Snapshot is a persisted copy of the store's last successful fetch.
type Snapshot struct {
	Filters FilterSpec        `json:"filters"`
	Events  []EarthquakeEvent `json:"events"`
	SavedAt time.Time         `json:"saved_at"`
}
