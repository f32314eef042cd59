// Package nea fetches the NEA 4-day weather outlook from data.gov.sg.
package nea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/shoresquad/internal/domain"
)

// DefaultURL is the public 4-day outlook endpoint.
const DefaultURL = "https://api.data.gov.sg/v1/environment/4-day-weather-forecast"

var (
	// ErrStatus is returned for any non-2xx response.
	ErrStatus = errors.New("nea: unexpected status")
	// ErrMalformedPayload is returned when the body decodes but lacks the expected shape.
	ErrMalformedPayload = errors.New("nea: malformed payload")
)

// Client implements forecast.Source against the NEA API.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *slog.Logger
}

// NewClient creates an NEA client. A zero timeout leaves the transport default in place.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		logger:     logger,
	}
}

// FetchForecast issues a single GET and parses the outlook. It never retries.
func (c *Client) FetchForecast(ctx context.Context) (domain.ForecastBundle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.ForecastBundle{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ForecastBundle{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.ForecastBundle{}, fmt.Errorf("%w: %d: %s", ErrStatus, resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.ForecastBundle{}, fmt.Errorf("%w: decode response: %v", ErrMalformedPayload, err)
	}

	bundle, err := payload.bundle()
	if err != nil {
		return domain.ForecastBundle{}, err
	}
	c.logger.Debug("forecast retrieved", "days", len(bundle.Days), "updated_at", bundle.UpdatedAt)
	return bundle, nil
}
