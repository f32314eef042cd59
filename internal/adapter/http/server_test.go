package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/shoresquad/internal/adapter/http"
	"github.com/couchcryptid/shoresquad/internal/analytics"
	"github.com/couchcryptid/shoresquad/internal/app"
	"github.com/couchcryptid/shoresquad/internal/domain"
	"github.com/couchcryptid/shoresquad/internal/forecast"
	"github.com/couchcryptid/shoresquad/internal/observability"
	"github.com/couchcryptid/shoresquad/internal/store"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	bundle domain.ForecastBundle
	err    error
}

func (s *stubSource) FetchForecast(_ context.Context) (domain.ForecastBundle, error) {
	return s.bundle, s.err
}

type harness struct {
	srv    *httpadapter.Server
	pages  *httpadapter.Pages
	loader *forecast.Loader
	clock  *clockwork.FakeClock
}

func newHarness(t *testing.T, src *stubSource, loaded bool) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewFakeClock()
	st := store.NewMemory(logger)
	tracker := analytics.NewTracker(nil, logger, metrics)

	panel := forecast.NewPanel()
	loader := forecast.NewLoader(src, panel, logger, metrics)
	if loaded {
		loader.LoadForecast(context.Background())
	}

	pages := httpadapter.NewPages(func(id string) httpadapter.Controller {
		a := app.New(app.Options{
			Store:         st,
			Tracker:       tracker,
			Clock:         clock,
			Logger:        logger,
			Metrics:       metrics,
			Panel:         panel,
			Loader:        loader,
			SessionID:     id,
			OfflineWorker: true,
		})
		a.Open()
		return a
	}, clock, 30*time.Minute, logger, metrics)
	t.Cleanup(pages.Close)

	srv, err := httpadapter.NewServer(":0", pages, loader, logger)
	require.NoError(t, err)
	return &harness{srv: srv, pages: pages, loader: loader, clock: clock}
}

// browser keeps the page cookie between requests.
type browser struct {
	h      *harness
	cookie *http.Cookie
}

func (h *harness) browser() *browser {
	return &browser{h: h}
}

func (b *browser) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.h.srv.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "shoresquad_page" {
			b.cookie = c
		}
	}
	return rec
}

func (b *browser) snapshot(t *testing.T) app.Snapshot {
	t.Helper()
	rec := b.do(http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap app.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func (b *browser) drain(t *testing.T) []string {
	t.Helper()
	rec := b.do(http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var ns []domain.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ns))
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Message
	}
	return out
}

func sampleSource() *stubSource {
	return &stubSource{bundle: domain.ForecastBundle{
		UpdatedAt: time.Date(2026, 10, 19, 5, 30, 0, 0, time.UTC),
		Days: []domain.ForecastDay{{
			Date:          time.Date(2026, 10, 20, 0, 0, 0, 0, domain.Singapore),
			Summary:       "Thundery showers in the afternoon",
			Temperature:   domain.Range{Low: 24, High: 32},
			Humidity:      domain.Range{Low: 60, High: 95},
			WindSpeed:     domain.Range{Low: 10, High: 20},
			WindDirection: "SSE",
		}},
	}}
}

// --- operational endpoints ---

func TestHealthzReturns200(t *testing.T) {
	h := newHarness(t, sampleSource(), false)
	assert.Equal(t, http.StatusOK, h.browser().do(http.MethodGet, "/healthz", "").Code)
}

func TestReadyzBeforeFirstLoad(t *testing.T) {
	h := newHarness(t, sampleSource(), false)
	assert.Equal(t, http.StatusServiceUnavailable, h.browser().do(http.MethodGet, "/readyz", "").Code)
}

func TestReadyzAfterFallbackLoad(t *testing.T) {
	h := newHarness(t, &stubSource{err: errors.New("offline")}, true)
	assert.Equal(t, http.StatusOK, h.browser().do(http.MethodGet, "/readyz", "").Code)
}

func TestOperationalRoutesOpenNoPage(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()
	b.do(http.MethodGet, "/healthz", "")
	b.do(http.MethodGet, "/readyz", "")

	assert.Nil(t, b.cookie)
	assert.Equal(t, 0, h.pages.Len())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, sampleSource(), false)
	rec := h.browser().do(http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- page ---

func TestPageRendersForecastCards(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	rec := h.browser().do(http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "Thundery showers in the afternoon")
	assert.Contains(t, body, "⛈️")
	assert.Contains(t, body, "24–32°C")
	assert.Contains(t, body, "Last updated: 19 Oct 2026, 01:30 pm SGT")
	assert.Contains(t, body, `id="weather" class="section" hidden`)
	assert.NotContains(t, body, `id="map" class="section" hidden`)
}

func TestPageRendersFallback(t *testing.T) {
	h := newHarness(t, &stubSource{err: errors.New("offline")}, true)
	body := h.browser().do(http.MethodGet, "/", "").Body.String()

	assert.Contains(t, body, "Unable to load real-time weather data.")
	assert.Contains(t, body, "Please check your internet connection and try again.")
	assert.NotContains(t, body, `class="weather-card"`)
}

func TestPageLoadResetsTheBrowsersState(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()
	b.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/location", `{"lat":1.3521,"lng":103.8198}`).Code)
	require.Equal(t, http.StatusOK, b.do(http.MethodPost, "/api/section", `{"section":"about"}`).Code)

	body := b.do(http.MethodGet, "/", "").Body.String()

	assert.NotContains(t, body, `id="map" class="section" hidden`)
	snap := b.snapshot(t)
	assert.Equal(t, domain.SectionMap, snap.State.CurrentSection)
	assert.Nil(t, snap.State.UserLocation)
	assert.Equal(t, 1, h.pages.Len())
}

func TestBrowsersDoNotShareState(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	alice, bob := h.browser(), h.browser()
	alice.do(http.MethodGet, "/", "")
	bob.do(http.MethodGet, "/", "")
	require.NotEqual(t, alice.cookie.Value, bob.cookie.Value)

	alice.do(http.MethodPost, "/api/location", `{"lat":1.3521,"lng":103.8198}`)
	alice.do(http.MethodPost, "/api/section", `{"section":"about"}`)
	alice.do(http.MethodPost, "/api/events", "")

	rec := bob.do(http.MethodGet, "/api/state", "")
	assert.NotContains(t, rec.Body.String(), "1.3521")
	snap := bob.snapshot(t)
	assert.Nil(t, snap.State.UserLocation)
	assert.Equal(t, domain.SectionMap, snap.State.CurrentSection)
	assert.Empty(t, bob.drain(t))

	body := h.browser().do(http.MethodGet, "/", "").Body.String()
	assert.NotContains(t, body, `id="map" class="section" hidden`)
	assert.Contains(t, body, `id="about" class="section" hidden`)

	assert.Equal(t, []string{"📅 Event creation coming soon!"}, alice.drain(t))
	require.NotNil(t, alice.snapshot(t).State.UserLocation)
	assert.Equal(t, 3, h.pages.Len())
}

func TestJoinedEventsFollowTheBrowser(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	alice, bob := h.browser(), h.browser()
	alice.do(http.MethodGet, "/", "")
	bob.do(http.MethodGet, "/", "")

	require.Equal(t, http.StatusNoContent, alice.do(http.MethodPost, "/api/events/huntington-pier/join", "").Code)
	alice.do(http.MethodGet, "/", "")

	assert.True(t, alice.snapshot(t).Events[2].Joined)
	assert.False(t, bob.snapshot(t).Events[2].Joined)
}

func TestIdlePagesExpire(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()
	b.do(http.MethodGet, "/", "")
	b.do(http.MethodPost, "/api/section", `{"section":"events"}`)

	h.clock.Advance(31 * time.Minute)
	h.browser().do(http.MethodGet, "/", "")
	assert.Equal(t, 1, h.pages.Len())

	assert.Equal(t, domain.SectionMap, b.snapshot(t).State.CurrentSection)
}

func TestUnknownCookieGetsANewPage(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()
	b.cookie = &http.Cookie{Name: "shoresquad_page", Value: "not-a-page-id"}

	b.do(http.MethodGet, "/", "")

	require.NotNil(t, b.cookie)
	assert.NotEqual(t, "not-a-page-id", b.cookie.Value)
	assert.True(t, b.cookie.HttpOnly)
}

func TestSectionLinkIsReadOnly(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()
	b.do(http.MethodGet, "/", "")

	rec := b.do(http.MethodGet, "/section/events", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?section=events#events", rec.Header().Get("Location"))
	assert.Equal(t, domain.SectionMap, b.snapshot(t).State.CurrentSection)

	assert.Equal(t, http.StatusNotFound, b.do(http.MethodGet, "/section/gallery", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, b.do(http.MethodPost, "/section/events", "").Code)
}

func TestPageOpensOnLinkedSection(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()

	body := b.do(http.MethodGet, "/?section=events", "").Body.String()
	assert.NotContains(t, body, `id="events" class="section" hidden`)
	assert.Contains(t, body, `id="map" class="section" hidden`)
	assert.Equal(t, domain.SectionEvents, b.snapshot(t).State.CurrentSection)

	b.do(http.MethodGet, "/?section=gallery", "")
	assert.Equal(t, domain.SectionMap, b.snapshot(t).State.CurrentSection)
}

func TestStartForm(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()
	b.do(http.MethodGet, "/?section=about", "")

	rec := b.do(http.MethodPost, "/start", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `id="map" class="section" hidden`)
	assert.Equal(t, domain.SectionMap, b.snapshot(t).State.CurrentSection)
	assert.Equal(t, []string{"🌊 Welcome to ShoreSquad! Let's find your beach."}, b.drain(t))
}

func TestStaticAssets(t *testing.T) {
	h := newHarness(t, sampleSource(), false)
	b := h.browser()

	for _, name := range []string{"app.js", "style.css", "service-worker.js"} {
		rec := b.do(http.MethodGet, "/static/"+name, "")
		assert.Equal(t, http.StatusOK, rec.Code, name)
		assert.NotEmpty(t, rec.Body.String(), name)
	}
}

func TestServiceWorkerServedFromRoot(t *testing.T) {
	h := newHarness(t, sampleSource(), false)
	b := h.browser()

	rec := b.do(http.MethodGet, "/service-worker.js", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "javascript")
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "shoresquad-v1")

	script := b.do(http.MethodGet, "/static/app.js", "").Body.String()
	assert.Contains(t, script, "register('/service-worker.js')")
}

// --- API ---

func TestAPISection(t *testing.T) {
	h := newHarness(t, sampleSource(), true)

	rec := h.browser().do(http.MethodPost, "/api/section", `{"section":"weather"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap app.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, domain.SectionWeather, snap.State.CurrentSection)
	assert.True(t, snap.Visible[domain.SectionWeather])
	assert.False(t, snap.Visible[domain.SectionMap])
}

func TestAPISection_Errors(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()

	assert.Equal(t, http.StatusNotFound, b.do(http.MethodPost, "/api/section", `{"section":"gallery"}`).Code)
	assert.Equal(t, http.StatusBadRequest, b.do(http.MethodPost, "/api/section", `{"section":`).Code)
	assert.Equal(t, domain.SectionMap, b.snapshot(t).State.CurrentSection)
}

func TestAPIForecast(t *testing.T) {
	src := &stubSource{err: errors.New("offline")}
	h := newHarness(t, src, true)
	b := h.browser()

	var panel forecast.PanelState
	require.NoError(t, json.Unmarshal(b.do(http.MethodGet, "/api/forecast", "").Body.Bytes(), &panel))
	assert.Equal(t, forecast.FallbackLines[:], panel.Fallback)

	*src = *sampleSource()
	rec := b.do(http.MethodPost, "/api/forecast/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reloaded forecast.PanelState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reloaded))
	assert.Empty(t, reloaded.Fallback)
	require.Len(t, reloaded.Cards, 1)
	assert.Equal(t, domain.IconStormy, reloaded.Cards[0].Icon)

	// The forecast is shared, so another browser sees the reload.
	other := h.browser().snapshot(t)
	require.Len(t, other.Forecast.Cards, 1)
}

func TestAPISearchIsDebounced(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()

	assert.Equal(t, http.StatusAccepted, b.do(http.MethodPost, "/api/search", `{"query":"mar"}`).Code)
	assert.Equal(t, http.StatusAccepted, b.do(http.MethodPost, "/api/search", `{"query":"marina"}`).Code)
	assert.Empty(t, b.drain(t))

	h.clock.Advance(300 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return b.snapshot(t).Search.Query == "marina"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{`🔍 Searching for beaches matching "marina"...`}, b.drain(t))
}

func TestAPILocation(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()

	assert.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/location/center", "").Code)
	assert.Equal(t, []string{"Location not available. Please enable location services."}, b.drain(t))

	assert.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/location", `{"error":"User denied Geolocation"}`).Code)
	assert.Nil(t, b.snapshot(t).State.UserLocation)

	assert.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/location", `{"lat":1.3008,"lng":103.9122}`).Code)
	snap := b.snapshot(t)
	require.NotNil(t, snap.State.UserLocation)
	assert.Equal(t, domain.Coordinate{Lat: 1.3008, Lng: 103.9122}, *snap.State.UserLocation)

	assert.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/location/center", "").Code)
	assert.Equal(t, []string{"📍 Centered on your location!"}, b.drain(t))

	assert.Equal(t, http.StatusBadRequest, b.do(http.MethodPost, "/api/location", `{}`).Code)
}

func TestAPIJoinEvent(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()

	assert.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/events/huntington-pier/join", "").Code)
	assert.Equal(t, []string{`🎉 Joined "Huntington Pier Patrol"! Your crew awaits.`}, b.drain(t))

	assert.Equal(t, http.StatusNotFound, b.do(http.MethodPost, "/api/events/moon-base/join", "").Code)
}

func TestAPIJoinBeachAndCreateEvent(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()

	assert.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/beaches/Santa%20Monica%20Beach/join", "").Code)
	assert.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/events", "").Code)

	assert.Equal(t, []string{
		"✅ You've joined the cleanup at Santa Monica Beach!",
		"📅 Event creation coming soon!",
	}, b.drain(t))
}

func TestAPIClientError(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	b := h.browser()

	assert.Equal(t, http.StatusNoContent, b.do(http.MethodPost, "/api/errors", `{"message":"Map failed to load. Please refresh the page."}`).Code)
	assert.Equal(t, []string{"⚠️ Map failed to load. Please refresh the page."}, b.drain(t))

	assert.Equal(t, http.StatusBadRequest, b.do(http.MethodPost, "/api/errors", `{}`).Code)
}

func TestAPINotificationsEmptyList(t *testing.T) {
	h := newHarness(t, sampleSource(), true)
	rec := h.browser().do(http.MethodGet, "/api/notifications", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
