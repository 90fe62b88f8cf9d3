// Package domain models USGS earthquake event data.
//
// # Data Source
//
// Events come from the USGS FDSN event web service,
// https://earthquake.usgs.gov/fdsnws/event/1/query, requested with
// format=geojson. A list query answers with a FeatureCollection; a detail
// query (eventid=...) answers with a single Feature.
//
// # GeoJSON Conventions
//
// Coordinates:
//
//	geometry.coordinates = [longitude, latitude, depth]
//	Longitude comes first. Depth is in kilometers below the surface and may be
//	negative for events located above the sea-level reference.
//
// Time:
//
//	properties.time is milliseconds since the Unix epoch, UTC.
//	Query windows (starttime/endtime) are sent as ISO-8601 UTC timestamps.
//
// Optional fields:
//
//	properties.felt  - number of "Did You Feel It?" reports, null when none.
//	properties.alert - PAGER alert level (green, yellow, orange, red), null when
//	                   not assessed.
//	properties.place - may be null for remote events; normalized to "".
//
// Review status:
//
//	"automatic" solutions are revised by seismologists and may change;
//	"reviewed" solutions are stable. Only reviewed events are cached.
//
// # Severity Classification
//
// Magnitude maps to one of six tiers, each with a display color:
//
//	<2.5 Minor (blue) | <4.0 Light (green) | <5.0 Moderate (yellow)
//	<6.0 Strong (orange) | <7.0 Major (red) | >=7.0 Great (crimson)
//
// Thresholds are exclusive upper bounds, so 4.0 is Moderate. See [Classify].
//
// # Trust Boundary
//
// The upstream body is parsed into a strict intermediate [Feature]: missing
// structural fields fail with [ErrMalformedResponse]. Values are not range
// checked; coordinates and magnitudes are trusted as delivered.
package domain
