// Package mapbox implements domain.Geocoder with the Mapbox Geocoding API.
package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/shoresquad/internal/domain"
	"github.com/couchcryptid/shoresquad/internal/observability"
)

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

	// Degrees added around the seeded beaches when building the search box.
	coastlinePadding = 0.5

	forwardTypes = "poi,locality,place"
	reverseTypes = "poi,address,neighborhood,locality,place"
)

// ErrStatus is returned when Mapbox answers with a non-200 status.
var ErrStatus = errors.New("mapbox API error")

// Bias steers forward geocoding toward the coastline the map shows. A zero
// Bias sends no hints.
type Bias struct {
	Proximity *domain.Coordinate
	// BBox is min lng, min lat, max lng, max lat.
	BBox *[4]float64
}

// CoastlineBias centers searches on the seeded beaches and limits them to a
// padded box around them.
func CoastlineBias(beaches []domain.Beach) Bias {
	if len(beaches) == 0 {
		return Bias{}
	}
	first := beaches[0].Location
	box := [4]float64{first.Lng, first.Lat, first.Lng, first.Lat}
	var sumLat, sumLng float64
	for _, b := range beaches {
		sumLat += b.Location.Lat
		sumLng += b.Location.Lng
		box[0] = min(box[0], b.Location.Lng)
		box[1] = min(box[1], b.Location.Lat)
		box[2] = max(box[2], b.Location.Lng)
		box[3] = max(box[3], b.Location.Lat)
	}
	box[0] -= coastlinePadding
	box[1] -= coastlinePadding
	box[2] += coastlinePadding
	box[3] += coastlinePadding

	n := float64(len(beaches))
	center := domain.Coordinate{Lat: sumLat / n, Lng: sumLng / n}
	return Bias{Proximity: &center, BBox: &box}
}

// Contains reports whether at lies inside the bias box. Without a box every
// point is inside.
func (b Bias) Contains(at domain.Coordinate) bool {
	if b.BBox == nil {
		return true
	}
	return at.Lng >= b.BBox[0] && at.Lat >= b.BBox[1] && at.Lng <= b.BBox[2] && at.Lat <= b.BBox[3]
}

func (b Bias) apply(params url.Values) {
	if b.Proximity != nil {
		params.Set("proximity", lngLat(*b.Proximity))
	}
	if b.BBox != nil {
		params.Set("bbox", fmt.Sprintf("%s,%s,%s,%s",
			formatDegrees(b.BBox[0]), formatDegrees(b.BBox[1]),
			formatDegrees(b.BBox[2]), formatDegrees(b.BBox[3])))
	}
}

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	bias       Bias
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client whose searches are steered by bias.
func NewClient(token string, timeout time.Duration, bias Bias, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		bias:       bias,
		metrics:    metrics,
		logger:     logger,
	}
}

// ForwardGeocode resolves beach search text. Matches outside the coastline
// box count as no match.
func (c *Client) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	params := url.Values{"types": {forwardTypes}}
	c.bias.apply(params)

	f, ok, err := c.lookup(ctx, "forward", url.PathEscape(query), params)
	if err != nil || !ok {
		return domain.GeocodingResult{}, err
	}
	result := f.result()
	if !c.bias.Contains(result.Location) {
		c.logger.Debug("geocode match outside coastline", "query", query, "place", result.PlaceName)
		return domain.GeocodingResult{}, nil
	}
	return result, nil
}

// ReverseGeocode labels the user's position.
func (c *Client) ReverseGeocode(ctx context.Context, at domain.Coordinate) (domain.GeocodingResult, error) {
	params := url.Values{"types": {reverseTypes}}

	f, ok, err := c.lookup(ctx, "reverse", lngLat(at), params)
	if err != nil || !ok {
		return domain.GeocodingResult{}, err
	}
	return f.result(), nil
}

// lookup fetches the best feature for path. ok is false when Mapbox found nothing.
func (c *Client) lookup(ctx context.Context, method, path string, params url.Values) (feature, bool, error) {
	params.Set("access_token", c.token)
	params.Set("limit", "1")
	endpoint := c.baseURL + "/" + path + ".json?" + params.Encode()

	outcome := "error"
	defer func() { c.metrics.GeocodeRequests.WithLabelValues(method, outcome).Inc() }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return feature{}, false, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return feature{}, false, fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return feature{}, false, fmt.Errorf("%w: status %d: %s", ErrStatus, resp.StatusCode, body)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return feature{}, false, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Features) == 0 {
		outcome = "empty"
		return feature{}, false, nil
	}

	outcome = "success"
	c.logger.Debug("geocoded", "method", method, "place", body.Features[0].Text)
	return body.Features[0], true, nil
}

// Mapbox orders coordinates lng,lat.
func lngLat(at domain.Coordinate) string {
	return formatDegrees(at.Lng) + "," + formatDegrees(at.Lat)
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lng, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}

func (f feature) result() domain.GeocodingResult {
	r := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		r.Location = domain.Coordinate{Lat: f.Center[1], Lng: f.Center[0]}
	}
	return r
}
