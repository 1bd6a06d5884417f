// Package geonames resolves IANA timezone identifiers for coordinates using
// the GeoNames timezone web service.
package geonames

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/clime-app/ipeds-etl/internal/observability"
)

// Version is reported in the User-Agent header.
const Version = "0.1.0"

// DefaultBaseURL is the public GeoNames web service endpoint.
const DefaultBaseURL = "http://api.geonames.org"

var errNoTimezone = errors.New("geonames returned no timezone")

// Client implements domain.TimezoneResolver using the GeoNames timezoneJSON
// endpoint.
type Client struct {
	http     *resty.Client
	username string
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewClient creates a GeoNames client. username is the GeoNames account name
// sent with every request.
func NewClient(baseURL, username string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		http:     newHTTPClient(baseURL, timeout),
		username: username,
		metrics:  metrics,
		logger:   logger,
	}
}

func newHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "clime ipeds-etl v"+Version)
}

// ResolveTimezone returns the timezone id for the given location.
func (c *Client) ResolveTimezone(ctx context.Context, lat, lon float64) (string, error) {
	var body timezoneResponse

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":      strconv.FormatFloat(lat, 'f', 6, 64),
			"lng":      strconv.FormatFloat(lon, 'f', 6, 64),
			"username": c.username,
		}).
		ForceContentType("application/json").
		SetResult(&body).
		Get("/timezoneJSON")
	c.metrics.TimezoneAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("timezone request: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("geonames API error: status %d: %s", resp.StatusCode(), resp.String())
	}
	if body.Status != nil {
		return "", fmt.Errorf("geonames API error %d: %s", body.Status.Value, body.Status.Message)
	}
	if body.TimezoneID == "" {
		return "", errNoTimezone
	}

	c.logger.Debug("timezone resolved", "lat", lat, "lon", lon, "timezone", body.TimezoneID)
	return body.TimezoneID, nil
}

// GeoNames API response types.

type timezoneResponse struct {
	TimezoneID  string       `json:"timezoneId"`
	CountryCode string       `json:"countryCode"`
	Status      *errorStatus `json:"status"`
}

type errorStatus struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}
