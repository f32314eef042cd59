package forecast

import (
	"sync"

	"github.com/couchcryptid/shoresquad/internal/domain"
)

// FallbackLines is the static notice shown when no forecast is available.
var FallbackLines = [2]string{
	"Unable to load real-time weather data.",
	"Please check your internet connection and try again.",
}

// PanelState is a point-in-time copy of the forecast panel.
type PanelState struct {
	Cards        []domain.Card `json:"cards"`
	Fallback     []string      `json:"fallback,omitempty"`
	UpdatedLabel string        `json:"updated_label,omitempty"`
}

// Panel is the forecast section of the page. It shows either a set of cards
// or the fallback notice, never both.
type Panel struct {
	mu           sync.RWMutex
	cards        []domain.Card
	fallback     bool
	updatedLabel string
}

// NewPanel returns an empty panel.
func NewPanel() *Panel {
	return &Panel{}
}

// Render replaces any previous content with one card per day and updates the
// "last updated" label.
func (p *Panel) Render(bundle domain.ForecastBundle) {
	cards := bundle.Cards()
	label := domain.UpdatedLabel(bundle.UpdatedAt)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cards = cards
	p.fallback = false
	p.updatedLabel = label
}

// RenderFallback clears all cards and shows the fallback notice. The updated
// label keeps whatever it last showed.
func (p *Panel) RenderFallback() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cards = nil
	p.fallback = true
}

// Snapshot returns a copy safe to hand to templates or encoders.
func (p *Panel) Snapshot() PanelState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	state := PanelState{
		Cards:        append([]domain.Card(nil), p.cards...),
		UpdatedLabel: p.updatedLabel,
	}
	if state.Cards == nil {
		state.Cards = []domain.Card{}
	}
	if p.fallback {
		state.Fallback = append([]string(nil), FallbackLines[:]...)
	}
	return state
}
