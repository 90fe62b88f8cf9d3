package domain

import (
	"encoding/json"
	"fmt"
)

// Upstream GeoJSON wire types. Required fields are pointers so absence can be
// told apart from a zero value.

type wireDocument struct {
	Type     string          `json:"type"`
	Features *[]wireFeature  `json:"features"`
	ID       *string         `json:"id"`
	Props    *wireProperties `json:"properties"`
	Geometry *wireGeometry   `json:"geometry"`
}

type wireFeature struct {
	ID       *string         `json:"id"`
	Props    *wireProperties `json:"properties"`
	Geometry *wireGeometry   `json:"geometry"`
}

type wireProperties struct {
	Mag     *float64 `json:"mag"`
	Place   *string  `json:"place"`
	Time    *int64   `json:"time"`
	URL     string   `json:"url"`
	Felt    *int     `json:"felt"`
	Alert   *string  `json:"alert"`
	Status  string   `json:"status"`
	Tsunami int      `json:"tsunami"`
	Type    string   `json:"type"`
	Title   string   `json:"title"`
}

type wireGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
}

// ParseFeatureCollection parses a list response body. The features array must
// be present (it may be empty) and every feature must be complete.
func ParseFeatureCollection(data []byte) ([]Feature, error) {
	var doc wireDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode body: %w", ErrMalformedResponse, err)
	}
	if doc.Features == nil {
		return nil, fmt.Errorf("%w: missing features", ErrMalformedResponse)
	}

	out := make([]Feature, 0, len(*doc.Features))
	for i, wf := range *doc.Features {
		f, err := wf.strict()
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// ParseFeature parses a detail response body, which upstream sends either as
// a single Feature or as a FeatureCollection. A collection with no features
// yields ErrNotFound.
func ParseFeature(data []byte) (Feature, error) {
	var doc wireDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Feature{}, fmt.Errorf("%w: decode body: %w", ErrMalformedResponse, err)
	}

	if doc.Features != nil {
		if len(*doc.Features) == 0 {
			return Feature{}, ErrNotFound
		}
		return (*doc.Features)[0].strict()
	}
	if doc.Type != "Feature" {
		return Feature{}, fmt.Errorf("%w: unexpected document type %q", ErrMalformedResponse, doc.Type)
	}
	return wireFeature{ID: doc.ID, Props: doc.Props, Geometry: doc.Geometry}.strict()
}

func (wf wireFeature) strict() (Feature, error) {
	switch {
	case wf.ID == nil || *wf.ID == "":
		return Feature{}, fmt.Errorf("%w: missing id", ErrMalformedResponse)
	case wf.Props == nil:
		return Feature{}, fmt.Errorf("%w: %s: missing properties", ErrMalformedResponse, *wf.ID)
	case wf.Props.Mag == nil:
		return Feature{}, fmt.Errorf("%w: %s: missing properties.mag", ErrMalformedResponse, *wf.ID)
	case wf.Props.Time == nil:
		return Feature{}, fmt.Errorf("%w: %s: missing properties.time", ErrMalformedResponse, *wf.ID)
	case wf.Geometry == nil || len(wf.Geometry.Coordinates) < 3:
		return Feature{}, fmt.Errorf("%w: %s: geometry needs [lon, lat, depth]", ErrMalformedResponse, *wf.ID)
	}

	p := wf.Props
	f := Feature{
		ID:         *wf.ID,
		Magnitude:  *p.Mag,
		TimeMillis: *p.Time,
		URL:        p.URL,
		Felt:       p.Felt,
		Alert:      p.Alert,
		Status:     p.Status,
		Tsunami:    p.Tsunami,
		Type:       p.Type,
		Title:      p.Title,
		Longitude:  wf.Geometry.Coordinates[0],
		Latitude:   wf.Geometry.Coordinates[1],
		Depth:      wf.Geometry.Coordinates[2],
	}
	if p.Place != nil {
		f.Place = *p.Place
	}
	return f, nil
}
