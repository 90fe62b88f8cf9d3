package domain

import (
	"net/url"
	"strconv"
	"time"
)

// Fixed query shape: a bounded, time-descending result set keeps repeated
// identical queries stable.
const (
	QueryLimit   = 500
	QueryOrderBy = "time"
	QueryFormat  = "geojson"
)

// isoMillis matches the upstream's ISO-8601 form, e.g. 2024-04-26T15:10:00.000Z.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Query is the parameter set for one list fetch.
type Query struct {
	StartTime    time.Time
	EndTime      time.Time
	MinMagnitude float64
	Region       *Region
	OrderBy      string
	Limit        int
}

// BuildQuery converts a filter spec into query parameters for a window ending
// at now. The spec is copied, never validated; the upstream decides what is
// acceptable.
func BuildQuery(spec FilterSpec, now time.Time) Query {
	spec = spec.Clone()
	return Query{
		StartTime:    now.AddDate(0, 0, -spec.TimeRangeDays),
		EndTime:      now,
		MinMagnitude: spec.MinMagnitude,
		Region:       spec.Region,
		OrderBy:      QueryOrderBy,
		Limit:        QueryLimit,
	}
}

// NewQuery builds a query for a window ending at the package clock's now.
func NewQuery(spec FilterSpec) Query {
	return BuildQuery(spec, clock.Now())
}

// Values renders q as upstream URL parameters.
func (q Query) Values() url.Values {
	v := url.Values{
		"format":       {QueryFormat},
		"starttime":    {q.StartTime.UTC().Format(isoMillis)},
		"endtime":      {q.EndTime.UTC().Format(isoMillis)},
		"minmagnitude": {formatFloat(q.MinMagnitude)},
		"orderby":      {q.OrderBy},
		"limit":        {strconv.Itoa(q.Limit)},
	}
	if q.Region != nil {
		v.Set("latitude", formatFloat(q.Region.Latitude))
		v.Set("longitude", formatFloat(q.Region.Longitude))
		v.Set("maxradiuskm", formatFloat(q.Region.RadiusKm))
	}
	return v
}

// DetailValues renders the identifier-scoped query for a single event.
func DetailValues(id string) url.Values {
	return url.Values{
		"format":  {QueryFormat},
		"eventid": {id},
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
