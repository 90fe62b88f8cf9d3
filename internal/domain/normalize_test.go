package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "metadata": {"count": 2},
  "features": [
    {
      "type": "Feature",
      "id": "abc",
      "properties": {
        "mag": 5.2, "place": "10 km SSW of Somewhere", "time": 1714144200000,
        "url": "https://earthquake.usgs.gov/earthquakes/eventpage/abc",
        "felt": 12, "alert": "green", "status": "reviewed", "tsunami": 1,
        "type": "earthquake", "title": "M 5.2 - 10 km SSW of Somewhere"
      },
      "geometry": {"type": "Point", "coordinates": [20, 10, 15]}
    },
    {
      "type": "Feature",
      "id": "def",
      "properties": {
        "mag": 1.1, "place": null, "time": 1714140000000,
        "url": "", "felt": null, "alert": null, "status": "automatic", "tsunami": 0,
        "type": "earthquake", "title": "M 1.1"
      },
      "geometry": {"type": "Point", "coordinates": [-150.1, 61.2, -0.5]}
    }
  ]
}`

func TestParseFeatureCollection(t *testing.T) {
	features, err := ParseFeatureCollection([]byte(sampleCollection))
	require.NoError(t, err)
	require.Len(t, features, 2)

	f := features[0]
	assert.Equal(t, "abc", f.ID)
	assert.Equal(t, 5.2, f.Magnitude)
	assert.Equal(t, "10 km SSW of Somewhere", f.Place)
	assert.Equal(t, int64(1714144200000), f.TimeMillis)
	require.NotNil(t, f.Felt)
	assert.Equal(t, 12, *f.Felt)
	require.NotNil(t, f.Alert)
	assert.Equal(t, "green", *f.Alert)
	assert.Equal(t, 20.0, f.Longitude)
	assert.Equal(t, 10.0, f.Latitude)
	assert.Equal(t, 15.0, f.Depth)

	g := features[1]
	assert.Empty(t, g.Place)
	assert.Nil(t, g.Felt)
	assert.Nil(t, g.Alert)
	assert.Equal(t, -0.5, g.Depth)
}

func TestParseFeatureCollection_Empty(t *testing.T) {
	features, err := ParseFeatureCollection([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	assert.Empty(t, features)
}

func TestParseFeatureCollection_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `<html>`, "decode body"},
		{"missing features", `{"type":"FeatureCollection"}`, "missing features"},
		{"missing id", `{"features":[{"properties":{"mag":1,"time":1},"geometry":{"coordinates":[1,2,3]}}]}`, "missing id"},
		{"missing properties", `{"features":[{"id":"x","geometry":{"coordinates":[1,2,3]}}]}`, "missing properties"},
		{"missing mag", `{"features":[{"id":"x","properties":{"time":1},"geometry":{"coordinates":[1,2,3]}}]}`, "properties.mag"},
		{"missing time", `{"features":[{"id":"x","properties":{"mag":1},"geometry":{"coordinates":[1,2,3]}}]}`, "properties.time"},
		{"short coordinates", `{"features":[{"id":"x","properties":{"mag":1,"time":1},"geometry":{"coordinates":[1,2]}}]}`, "geometry"},
		{"missing geometry", `{"features":[{"id":"x","properties":{"mag":1,"time":1}}]}`, "geometry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFeatureCollection([]byte(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
			assert.ErrorIs(t, err, ErrFetchFailure)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseFeature(t *testing.T) {
	t.Run("single feature document", func(t *testing.T) {
		body := `{"type":"Feature","id":"ci123","properties":{"mag":3.4,"place":"Ridgecrest","time":1714144200000,"status":"reviewed"},"geometry":{"coordinates":[-117.6,35.7,8.1]}}`
		f, err := ParseFeature([]byte(body))
		require.NoError(t, err)
		assert.Equal(t, "ci123", f.ID)
		assert.Equal(t, "reviewed", f.Status)
		assert.Equal(t, 35.7, f.Latitude)
	})

	t.Run("collection takes first feature", func(t *testing.T) {
		f, err := ParseFeature([]byte(sampleCollection))
		require.NoError(t, err)
		assert.Equal(t, "abc", f.ID)
	})

	t.Run("empty collection is not found", func(t *testing.T) {
		_, err := ParseFeature([]byte(`{"type":"FeatureCollection","features":[]}`))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrFetchFailure)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := ParseFeature([]byte(`{"type":"Point"}`))
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestNormalize(t *testing.T) {
	features, err := ParseFeatureCollection([]byte(sampleCollection))
	require.NoError(t, err)

	e := Normalize(features[0])

	assert.Equal(t, "abc", e.ID)
	assert.Equal(t, 20.0, e.Longitude)
	assert.Equal(t, 10.0, e.Latitude)
	assert.Equal(t, 15.0, e.DepthKm)
	assert.Equal(t, 5.2, e.Magnitude)
	assert.Equal(t, time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC), e.OccurredAt)
	assert.Equal(t, "https://earthquake.usgs.gov/earthquakes/eventpage/abc", e.SourceURL)
	assert.Equal(t, 1, e.TsunamiFlag)
	assert.Equal(t, "reviewed", e.Status)
	assert.Equal(t, "earthquake", e.EventType)
	require.NotNil(t, e.FeltReports)
	assert.Equal(t, 12, *e.FeltReports)

	// 5.2 sits in the [5.0, 6.0) band.
	assert.Equal(t, Classify(5.2).Color, e.SeverityColor)
	assert.Equal(t, "#FF9500", e.SeverityColor)
	assert.Equal(t, "Strong", e.Tier)
}

func TestNormalize_ModerateTier(t *testing.T) {
	e := Normalize(Feature{ID: "m", Magnitude: 4.6, Longitude: 20, Latitude: 10, Depth: 15})
	assert.Equal(t, "Moderate", e.Tier)
	assert.Equal(t, "#FFFF00", e.SeverityColor)
}

func TestNormalize_AcceptsOutOfRangeValues(t *testing.T) {
	e := Normalize(Feature{ID: "odd", Magnitude: -2, Longitude: 540, Latitude: -123})
	assert.Equal(t, 540.0, e.Longitude)
	assert.Equal(t, -123.0, e.Latitude)
	assert.Equal(t, "Minor", e.Tier)
}

func TestNormalize_Idempotent(t *testing.T) {
	features, err := ParseFeatureCollection([]byte(sampleCollection))
	require.NoError(t, err)

	first := Normalize(features[0])
	second := Normalize(features[0])
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("normalize not idempotent (-first +second):\n%s", diff)
	}
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	features := []Feature{
		{ID: "old", TimeMillis: 1000},
		{ID: "new", TimeMillis: 9000},
		{ID: "mid", TimeMillis: 5000},
	}

	events := NormalizeAll(features)
	require.Len(t, events, 3)
	assert.Equal(t, "old", events[0].ID)
	assert.Equal(t, "new", events[1].ID)
	assert.Equal(t, "mid", events[2].ID)

	assert.Empty(t, NormalizeAll(nil))
}
