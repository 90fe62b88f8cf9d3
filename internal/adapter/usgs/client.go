package usgs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/quake-feed/internal/domain"
	"github.com/couchcryptid/quake-feed/internal/observability"
)

// errNoContent marks a list query that upstream answered with 204.
var errNoContent = errors.New("no content")

// maxBodyBytes bounds a single response; 500 features is well under this.
const maxBodyBytes = 16 << 20

// Client fetches earthquake data from the USGS FDSN event service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a USGS client. Outbound requests are limited to
// ratePerSec with the given burst.
func NewClient(baseURL string, timeout time.Duration, ratePerSec float64, burst int, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), burst),
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchEvents runs a list query and returns the strict features, in upstream
// order.
func (c *Client) FetchEvents(ctx context.Context, q domain.Query) ([]domain.Feature, error) {
	body, err := c.get(ctx, "list", q.Values().Encode())
	if errors.Is(err, errNoContent) {
		c.metrics.FetchRequests.WithLabelValues("list", "success").Inc()
		return []domain.Feature{}, nil
	}
	if err != nil {
		return nil, err
	}
	features, err := domain.ParseFeatureCollection(body)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("list", "error").Inc()
		return nil, err
	}
	c.metrics.FetchRequests.WithLabelValues("list", "success").Inc()
	c.logger.Debug("fetched earthquakes", "count", len(features), "min_magnitude", q.MinMagnitude)
	return features, nil
}

// FetchEvent looks up a single event by identifier.
func (c *Client) FetchEvent(ctx context.Context, id string) (domain.Feature, error) {
	body, err := c.get(ctx, "detail", domain.DetailValues(id).Encode())
	if err != nil {
		return domain.Feature{}, err
	}
	f, err := domain.ParseFeature(body)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.metrics.FetchRequests.WithLabelValues("detail", "not_found").Inc()
		return domain.Feature{}, err
	case err != nil:
		c.metrics.FetchRequests.WithLabelValues("detail", "error").Inc()
		return domain.Feature{}, err
	}
	c.metrics.FetchRequests.WithLabelValues("detail", "success").Inc()
	return f, nil
}

// get issues a rate-limited GET and returns the body of a 200 response.
// For detail lookups 204 and 404 map to domain.ErrNotFound; for lists 204 is
// errNoContent. Everything else that is not a 200 is a domain.ErrFetchFailure.
func (c *Client) get(ctx context.Context, method, rawQuery string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		c.metrics.FetchRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%w: rate limit: %w", domain.ErrFetchFailure, err)
	}

	start := time.Now()
	defer func() {
		c.metrics.FetchDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+rawQuery, nil)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%w: create request: %w", domain.ErrFetchFailure, err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%w: %s request: %w", domain.ErrFetchFailure, method, err)
	}
	defer resp.Body.Close()

	notFound := resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound
	switch {
	case notFound && method == "detail":
		c.metrics.FetchRequests.WithLabelValues(method, "not_found").Inc()
		return nil, domain.ErrNotFound
	case resp.StatusCode == http.StatusNoContent:
		return nil, errNoContent
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.FetchRequests.WithLabelValues(method, "error").Inc()
		c.logger.Warn("usgs request failed", "method", method, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: usgs API error: status %d: %s", domain.ErrFetchFailure, resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("%w: read body: %w", domain.ErrFetchFailure, err)
	}
	return body, nil
}
