package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/couchcryptid/shoresquad/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	pageCookie       = "shoresquad_page"
	pageCookieMaxAge = 30 * 24 * time.Hour
)

// PageFactory builds the controller for one browser. id is stable across
// page loads from that browser.
type PageFactory func(id string) Controller

type openPage struct {
	ctrl     Controller
	lastSeen time.Time
}

// Pages keeps one controller per browser, keyed by a cookie. Controllers idle
// for longer than the idle timeout are closed and dropped.
type Pages struct {
	mu      sync.Mutex
	open    map[string]*openPage
	factory PageFactory
	clock   clockwork.Clock
	idle    time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPages creates an empty registry.
func NewPages(factory PageFactory, clock clockwork.Clock, idle time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Pages {
	return &Pages{
		open:    make(map[string]*openPage),
		factory: factory,
		clock:   clock,
		idle:    idle,
		logger:  logger,
		metrics: metrics,
	}
}

// Load starts a fresh page for the browser, replacing whatever state it had.
func (p *Pages) Load(w http.ResponseWriter, r *http.Request) Controller {
	id := p.identify(w, r)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweep()
	if old, ok := p.open[id]; ok {
		old.ctrl.Close()
		delete(p.open, id)
	}
	return p.start(id)
}

// Current returns the browser's page, starting one if it has none.
func (p *Pages) Current(w http.ResponseWriter, r *http.Request) Controller {
	id := p.identify(w, r)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweep()
	if pg, ok := p.open[id]; ok {
		pg.lastSeen = p.clock.Now()
		return pg.ctrl
	}
	return p.start(id)
}

// Len reports how many pages are open.
func (p *Pages) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.open)
}

// Close closes every open page.
func (p *Pages) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pg := range p.open {
		pg.ctrl.Close()
		delete(p.open, id)
	}
	p.metrics.PagesOpen.Set(0)
}

// identify reads the browser's ID from its cookie, issuing a new one when
// the cookie is missing or not one of ours.
func (p *Pages) identify(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(pageCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     pageCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(pageCookieMaxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// Caller holds p.mu.
func (p *Pages) start(id string) Controller {
	ctrl := p.factory(id)
	p.open[id] = &openPage{ctrl: ctrl, lastSeen: p.clock.Now()}
	p.metrics.PagesOpen.Set(float64(len(p.open)))
	p.logger.Debug("page opened", "page", id, "open", len(p.open))
	return ctrl
}

// Caller holds p.mu.
func (p *Pages) sweep() {
	cutoff := p.clock.Now().Add(-p.idle)
	for id, pg := range p.open {
		if pg.lastSeen.Before(cutoff) {
			pg.ctrl.Close()
			delete(p.open, id)
			p.logger.Debug("page expired", "page", id)
		}
	}
	p.metrics.PagesOpen.Set(float64(len(p.open)))
}
