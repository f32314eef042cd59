// Package forecast loads the multi-day outlook and keeps the forecast panel
// in either its rendered or its fallback state.
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/shoresquad/internal/domain"
	"golang.org/x/time/rate"
)

// Source retrieves a forecast bundle from an upstream provider.
type Source interface {
	FetchForecast(ctx context.Context) (domain.ForecastBundle, error)
}

// RateLimitedSource wraps a Source with a token-bucket limiter so that page
// reloads cannot hammer the upstream API. A denied wait is reported as an
// ordinary fetch failure.
type RateLimitedSource struct {
	source  Source
	limiter *rate.Limiter
}

// NewRateLimitedSource allows perMinute requests per minute with a burst of burst.
// A non-positive perMinute disables limiting.
func NewRateLimitedSource(source Source, perMinute, burst int) *RateLimitedSource {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &RateLimitedSource{
		source:  source,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// FetchForecast forwards to the wrapped source once the limiter allows it.
func (r *RateLimitedSource) FetchForecast(ctx context.Context) (domain.ForecastBundle, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.ForecastBundle{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.source.FetchForecast(ctx)
}
