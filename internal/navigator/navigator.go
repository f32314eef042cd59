// Package navigator tracks which page section is visible.
package navigator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/shoresquad/internal/domain"
	"github.com/couchcryptid/shoresquad/internal/observability"
	"github.com/jonboulle/clockwork"
)

// DefaultResizeDelay is how long after showing the map its layout is recomputed.
const DefaultResizeDelay = 100 * time.Millisecond

// ErrUnknownSection is returned when a section identifier matches no section.
var ErrUnknownSection = errors.New("unknown section")

// MapWidget is the part of the map component the navigator needs. Widgets
// laid out while hidden render at the wrong size until told to recompute.
type MapWidget interface {
	InvalidateSize()
}

// Navigator shows exactly one section at a time. It is not safe for
// concurrent use; the owning controller serializes calls.
type Navigator struct {
	state   *domain.AppState
	widget  MapWidget
	clock   clockwork.Clock
	delay   time.Duration
	visible map[domain.Section]bool
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Navigator showing the state's current section. widget may be
// nil when the page has no map.
func New(state *domain.AppState, widget MapWidget, clock clockwork.Clock, delay time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Navigator {
	n := &Navigator{
		state:   state,
		widget:  widget,
		clock:   clock,
		delay:   delay,
		visible: make(map[domain.Section]bool, len(domain.Sections)),
		logger:  logger,
		metrics: metrics,
	}
	n.show(state.CurrentSection)
	return n
}

// SwitchSection shows the named section and hides every other one. Switching
// to the map schedules a one-shot layout recomputation after the resize
// delay. Pending recomputations are not cancelled by later switches; they
// only resize the widget and never change visibility.
func (n *Navigator) SwitchSection(name domain.Section) error {
	if !name.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}

	n.show(name)
	n.state.CurrentSection = name
	n.metrics.SectionSwitches.WithLabelValues(string(name)).Inc()

	if name == domain.SectionMap && n.widget != nil {
		widget := n.widget
		n.clock.AfterFunc(n.delay, func() {
			widget.InvalidateSize()
			n.metrics.MapResizes.Inc()
		})
	}

	n.logger.Debug("switched section", "section", name)
	return nil
}

// Current returns the active section.
func (n *Navigator) Current() domain.Section {
	return n.state.CurrentSection
}

// Visible reports the visibility of every section.
func (n *Navigator) Visible() map[domain.Section]bool {
	out := make(map[domain.Section]bool, len(n.visible))
	for s, v := range n.visible {
		out[s] = v
	}
	return out
}

func (n *Navigator) show(name domain.Section) {
	for _, s := range domain.Sections {
		n.visible[s] = s == name
	}
}
