package forecast

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/shoresquad/internal/adapter/nea"
	"github.com/couchcryptid/shoresquad/internal/domain"
	"github.com/couchcryptid/shoresquad/internal/observability"
)

// Renderer receives the outcome of a load. Exactly one method is called per load.
type Renderer interface {
	Render(bundle domain.ForecastBundle)
	RenderFallback()
}

// Loader fetches the forecast and hands it to the renderer, or falls back.
type Loader struct {
	source   Source
	renderer Renderer
	logger   *slog.Logger
	metrics  *observability.Metrics
	loaded   atomic.Bool
}

// NewLoader creates a Loader.
func NewLoader(source Source, renderer Renderer, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		source:   source,
		renderer: renderer,
		logger:   logger,
		metrics:  metrics,
	}
}

// LoadForecast performs one fetch. Every failure (transport, status, payload
// shape) is logged and turned into the fallback render; nothing is retried
// and no error reaches the caller.
func (l *Loader) LoadForecast(ctx context.Context) {
	start := time.Now()
	bundle, err := l.source.FetchForecast(ctx)
	l.metrics.ForecastFetchDuration.Observe(time.Since(start).Seconds())
	defer l.loaded.Store(true)

	if err != nil {
		l.logger.Error("weather forecast unavailable", "kind", failureKind(err), "error", err)
		l.renderer.RenderFallback()
		l.metrics.ForecastLoads.WithLabelValues("fallback").Inc()
		l.metrics.ForecastDays.Set(0)
		return
	}

	l.logger.Info("weather forecast retrieved", "days", len(bundle.Days), "updated_at", bundle.UpdatedAt)
	l.renderer.Render(bundle)
	l.metrics.ForecastLoads.WithLabelValues("rendered").Inc()
	l.metrics.ForecastDays.Set(float64(len(bundle.Days)))
}

// CheckReadiness returns nil once at least one load has completed, whichever
// renderer it ended in.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if !l.loaded.Load() {
		return errors.New("forecast has not been loaded yet")
	}
	return nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, nea.ErrStatus):
		return "status"
	case errors.Is(err, nea.ErrMalformedPayload):
		return "payload"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "transport"
	}
}
