package domain

import "time"

// Normalize maps one parsed feature to an EarthquakeEvent and classifies it.
// It is pure: the same feature always yields the same event. Coordinates and
// magnitude are taken as delivered.
func Normalize(f Feature) EarthquakeEvent {
	tier := Classify(f.Magnitude)
	return EarthquakeEvent{
		ID:            f.ID,
		Magnitude:     f.Magnitude,
		Place:         f.Place,
		OccurredAt:    time.UnixMilli(f.TimeMillis).UTC(),
		Longitude:     f.Longitude,
		Latitude:      f.Latitude,
		DepthKm:       f.Depth,
		FeltReports:   f.Felt,
		TsunamiFlag:   f.Tsunami,
		Status:        f.Status,
		SourceURL:     f.URL,
		SeverityColor: tier.Color,
		Tier:          tier.Name,
		AlertLevel:    f.Alert,
		EventType:     f.Type,
		Title:         f.Title,
	}
}

// NormalizeAll normalizes each feature independently, preserving order.
func NormalizeAll(features []Feature) []EarthquakeEvent {
	out := make([]EarthquakeEvent, len(features))
	for i, f := range features {
		out[i] = Normalize(f)
	}
	return out
}
