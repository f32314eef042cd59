// Package analytics records user interactions. Every event is logged; a sink
// may additionally publish it elsewhere.
package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/shoresquad/internal/domain"
	"github.com/couchcryptid/shoresquad/internal/observability"
)

// Event is one tracked interaction.
type Event struct {
	Name       string            `json:"name"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// Sink publishes events to an external system.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Tracker logs events and forwards them to an optional sink. Sink failures
// are logged and never surface to the caller.
type Tracker struct {
	sink    Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTracker creates a Tracker. sink may be nil.
func NewTracker(sink Sink, logger *slog.Logger, metrics *observability.Metrics) *Tracker {
	return &Tracker{sink: sink, logger: logger, metrics: metrics}
}

// Track records an event.
func (t *Tracker) Track(ctx context.Context, name string, data map[string]string) {
	event := Event{Name: name, Data: data, OccurredAt: domain.Now().UTC()}

	attrs := make([]any, 0, 2+2*len(data))
	attrs = append(attrs, "event", name)
	for k, v := range data {
		attrs = append(attrs, k, v)
	}
	t.logger.Info("event tracked", attrs...)

	if t.sink == nil {
		t.metrics.AnalyticsEvents.WithLabelValues(name, "tracked").Inc()
		return
	}
	if err := t.sink.Publish(ctx, event); err != nil {
		t.logger.Warn("analytics publish failed", "event", name, "error", err)
		t.metrics.AnalyticsEvents.WithLabelValues(name, "error").Inc()
		return
	}
	t.metrics.AnalyticsEvents.WithLabelValues(name, "tracked").Inc()
}
