package domain

import (
	"time"

	"github.com/skypies/geo"
)

// Feature is the strict intermediate form of one upstream GeoJSON feature.
// Every field here was present in the body; optional upstream fields stay
// pointers.
type Feature struct {
	ID         string
	Magnitude  float64
	Place      string
	TimeMillis int64
	URL        string
	Felt       *int
	Alert      *string
	Status     string
	Tsunami    int
	Type       string
	Title      string
	Longitude  float64
	Latitude   float64
	Depth      float64
}

// EarthquakeEvent is the normalized internal representation of a seismic event.
// SeverityColor and Tier are fixed at normalization time from Magnitude.
type EarthquakeEvent struct {
	ID            string    `json:"id"`
	Magnitude     float64   `json:"magnitude"`
	Place         string    `json:"place"`
	OccurredAt    time.Time `json:"occurred_at"`
	Longitude     float64   `json:"longitude"`
	Latitude      float64   `json:"latitude"`
	DepthKm       float64   `json:"depth_km"`
	FeltReports   *int      `json:"felt_reports"`
	TsunamiFlag   int       `json:"tsunami_flag"`
	Status        string    `json:"status"`
	SourceURL     string    `json:"source_url"`
	SeverityColor string    `json:"severity_color"`
	Tier          string    `json:"tier"`

	AlertLevel *string `json:"alert_level,omitempty"` // PAGER level
	EventType  string  `json:"event_type,omitempty"`
	Title      string  `json:"title,omitempty"`
}

// Latlong returns the epicenter as a geo point.
func (e EarthquakeEvent) Latlong() geo.Latlong {
	return geo.Latlong{Lat: e.Latitude, Long: e.Longitude}
}

// DistanceFromKm returns the great-circle distance from (lat, lon) to the epicenter.
func (e EarthquakeEvent) DistanceFromKm(lat, lon float64) float64 {
	return geo.Latlong{Lat: lat, Long: lon}.DistKM(e.Latlong())
}

// Region is a circular geographic constraint: center point plus radius.
type Region struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
}

// NewRegion builds a region from optionally-present parts. A region is only
// meaningful with all three parts, so any missing part yields nil (global).
func NewRegion(lat, lon, radiusKm *float64) *Region {
	if lat == nil || lon == nil || radiusKm == nil {
		return nil
	}
	return &Region{Latitude: *lat, Longitude: *lon, RadiusKm: *radiusKm}
}

// Default filter values.
const (
	DefaultMinMagnitude  = 2.5
	DefaultTimeRangeDays = 30
)

// FilterSpec selects which events the store holds.
type FilterSpec struct {
	MinMagnitude  float64 `json:"min_magnitude"`
	TimeRangeDays int     `json:"time_range_days"`
	Region        *Region `json:"region"` // nil means global
}

// DefaultFilterSpec returns the filters a store starts with.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		MinMagnitude:  DefaultMinMagnitude,
		TimeRangeDays: DefaultTimeRangeDays,
	}
}

// Clone returns a copy that shares no memory with s.
func (s FilterSpec) Clone() FilterSpec {
	if s.Region != nil {
		r := *s.Region
		s.Region = &r
	}
	return s
}

// FilterPatch is a partial FilterSpec. Nil fields leave the current value
// untouched. Region is only applied when SetRegion is true, so a patch can
// clear the region back to global.
type FilterPatch struct {
	MinMagnitude  *float64
	TimeRangeDays *int
	Region        *Region
	SetRegion     bool
}

// Merge shallow-merges p into s and returns the result. s is not modified.
func (s FilterSpec) Merge(p FilterPatch) FilterSpec {
	out := s.Clone()
	if p.MinMagnitude != nil {
		out.MinMagnitude = *p.MinMagnitude
	}
	if p.TimeRangeDays != nil {
		out.TimeRangeDays = *p.TimeRangeDays
	}
	if p.SetRegion {
		out.Region = nil
		if p.Region != nil {
			r := *p.Region
			out.Region = &r
		}
	}
	return out
}

// Equal reports whether two specs select the same events.
func (s FilterSpec) Equal(o FilterSpec) bool {
	if s.MinMagnitude != o.MinMagnitude || s.TimeRangeDays != o.TimeRangeDays {
		return false
	}
	if s.Region == nil || o.Region == nil {
		return s.Region == nil && o.Region == nil
	}
	return *s.Region == *o.Region
}
