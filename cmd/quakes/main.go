// Command quakes runs a one-shot earthquake query against the USGS event
// service and prints the result as a table, most recent first.
//
// Usage:
//
//	go run ./cmd/quakes -min-mag 4.5 -days 7
//	go run ./cmd/quakes -lat 35.68 -lon 139.69 -radius 300
//	go run ./cmd/quakes -id us7000abcd
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/couchcryptid/quake-feed/internal/adapter/usgs"
	"github.com/couchcryptid/quake-feed/internal/config"
	"github.com/couchcryptid/quake-feed/internal/domain"
	"github.com/couchcryptid/quake-feed/internal/observability"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, observability.NewMetrics()))
}

// optionalFloat is a float flag that remembers whether it was set.
type optionalFloat struct{ v *float64 }

func (o *optionalFloat) String() string {
	if o.v == nil {
		return ""
	}
	return strconv.FormatFloat(*o.v, 'f', -1, 64)
}

func (o *optionalFloat) Set(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	o.v = &f
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, metrics *observability.Metrics) int {
	fs := flag.NewFlagSet("quakes", flag.ContinueOnError)
	fs.SetOutput(stderr)

	minMag := fs.Float64("min-mag", domain.DefaultMinMagnitude, "minimum magnitude")
	days := fs.Int("days", domain.DefaultTimeRangeDays, "days back from now")
	var lat, lon, radius optionalFloat
	fs.Var(&lat, "lat", "region center latitude")
	fs.Var(&lon, "lon", "region center longitude")
	fs.Var(&radius, "radius", "region radius in km")
	id := fs.String("id", "", "look up a single event by id instead of listing")
	baseURL := fs.String("base-url", config.DefaultUSGSBaseURL, "USGS event query endpoint")
	timeout := fs.Duration("timeout", 10*time.Second, "request timeout")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client := usgs.NewClient(*baseURL, *timeout, 2, 1, logger, metrics)

	if *id != "" {
		f, err := client.FetchEvent(ctx, *id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				fmt.Fprintf(stderr, "earthquake %s not found\n", *id)
			} else {
				fmt.Fprintf(stderr, "fetch failed: %v\n", err)
			}
			return 1
		}
		return printEvents(stdout, stderr, []domain.EarthquakeEvent{domain.Normalize(f)}, *asJSON)
	}

	region := domain.NewRegion(lat.v, lon.v, radius.v)
	if region == nil && (lat.v != nil || lon.v != nil || radius.v != nil) {
		fmt.Fprintln(stderr, "warning: -lat, -lon and -radius must all be set; searching globally")
	}
	spec := domain.FilterSpec{MinMagnitude: *minMag, TimeRangeDays: *days, Region: region}

	features, err := client.FetchEvents(ctx, domain.NewQuery(spec))
	if err != nil {
		fmt.Fprintf(stderr, "fetch failed: %v\n", err)
		return 1
	}
	return printEvents(stdout, stderr, domain.NormalizeAll(features), *asJSON)
}

func printEvents(stdout, stderr io.Writer, events []domain.EarthquakeEvent, asJSON bool) int {
	slices.SortStableFunc(events, func(a, b domain.EarthquakeEvent) int {
		return b.OccurredAt.Compare(a.OccurredAt)
	})

	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(events); err != nil {
			fmt.Fprintf(stderr, "encode: %v\n", err)
			return 1
		}
		return 0
	}

	if len(events) == 0 {
		fmt.Fprintln(stdout, "No earthquakes found.")
		return 0
	}

	now := domain.Now()
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tMAG\tTIER\tDEPTH\tPLACE\tID")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%.1f km\t%s\t%s\n",
			domain.FormatRelativeTime(e.OccurredAt, now),
			e.Magnitude, e.Tier, e.DepthKm, placeOrUnknown(e.Place), e.ID)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "write: %v\n", err)
		return 1
	}
	return 0
}

func placeOrUnknown(p string) string {
	if strings.TrimSpace(p) == "" {
		return "Unknown location"
	}
	return p
}
