// Package app is the page controller. It owns the application state and
// routes every user interaction to the component that handles it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/shoresquad/internal/analytics"
	"github.com/couchcryptid/shoresquad/internal/debounce"
	"github.com/couchcryptid/shoresquad/internal/domain"
	"github.com/couchcryptid/shoresquad/internal/forecast"
	"github.com/couchcryptid/shoresquad/internal/mapview"
	"github.com/couchcryptid/shoresquad/internal/navigator"
	"github.com/couchcryptid/shoresquad/internal/observability"
	"github.com/couchcryptid/shoresquad/internal/store"
	"github.com/jonboulle/clockwork"
)

// ErrUnknownEvent is returned when an event ID matches no cleanup event.
var ErrUnknownEvent = errors.New("unknown event")

const (
	joinedEventsKey = "shoresquad.joinedEvents"

	// Zoom levels used when following the user.
	locationZoom = 12
	centerZoom   = 13

	minSearchLength = 3
	geocodeTimeout  = 5 * time.Second
)

// User-facing notification texts.
const (
	msgWelcome         = "🌊 Welcome to ShoreSquad! Let's find your beach."
	msgCentered        = "📍 Centered on your location!"
	msgLocationMissing = "Location not available. Please enable location services."
	msgCreateEventStub = "📅 Event creation coming soon!"
	userLocationPopup  = "📍 Your Location"
	searchNotification = "🔍 Searching for beaches matching \"%s\"..."
	joinedEventMessage = "🎉 Joined \"%s\"! Your crew awaits."
	joinedBeachMessage = "✅ You've joined the cleanup at %s!"
	errorMessagePrefix = "⚠️ "
)

// Tracked analytics events.
const (
	eventJoinCleanup     = "join_cleanup"
	eventBeachMarkerJoin = "beach_marker_join"
)

// Options wires the controller's collaborators. Metrics is required, and so
// is Source unless Loader is given. Store, Tracker, Clock and Logger fall
// back to in-memory, log-only, real-time and default implementations.
type Options struct {
	Source   forecast.Source
	Store    *store.Store
	Tracker  *analytics.Tracker
	Geocoder domain.Geocoder // optional
	Clock    clockwork.Clock
	Logger   *slog.Logger
	Metrics  *observability.Metrics

	// Panel and Loader let several pages share one forecast. Both or neither.
	Panel  *forecast.Panel
	Loader *forecast.Loader

	// SessionID scopes persisted joins to one browser.
	SessionID string

	SearchDebounce time.Duration
	ResizeDelay    time.Duration
	OfflineWorker  bool
}

// SearchResult is the outcome of the last debounced search.
type SearchResult struct {
	Query   string         `json:"query"`
	Matches []domain.Beach `json:"matches"`
	// Geocoded is set when no beach matched and the query was resolved by the geocoder.
	Geocoded *domain.GeocodingResult `json:"geocoded,omitempty"`
}

// Snapshot is everything the page needs to draw itself.
type Snapshot struct {
	State         domain.AppState         `json:"state"`
	Visible       map[domain.Section]bool `json:"visible"`
	Forecast      forecast.PanelState     `json:"forecast"`
	Map           mapview.View            `json:"map"`
	Beaches       []domain.Beach          `json:"beaches"`
	Events        []domain.CleanupEvent   `json:"events"`
	Search        SearchResult            `json:"search"`
	LocationLabel string                  `json:"location_label,omitempty"`
	OfflineWorker bool                    `json:"offline_worker"`
}

// App is the page controller. All state changes happen under one mutex, so
// HTTP handlers and timer callbacks observe them in a single order.
type App struct {
	mu sync.Mutex

	state   *domain.AppState
	nav     *navigator.Navigator
	panel   *forecast.Panel
	loader  *forecast.Loader
	mapView *mapview.Map
	search  *debounce.Debouncer[string]

	beaches       []domain.Beach
	events        []domain.CleanupEvent
	notifications []domain.Notification
	lastSearch    SearchResult
	locationLabel string

	store         *store.Store
	tracker       *analytics.Tracker
	geocoder      domain.Geocoder
	clock         clockwork.Clock
	logger        *slog.Logger
	metrics       *observability.Metrics
	offlineWorker bool
	joinedKey     string
}

// New builds the controller with the default beaches and events.
func New(opts Options) *App {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory(opts.Logger)
	}
	if opts.Tracker == nil {
		opts.Tracker = analytics.NewTracker(nil, opts.Logger, opts.Metrics)
	}
	if opts.Panel == nil || opts.Loader == nil {
		opts.Panel = forecast.NewPanel()
		opts.Loader = forecast.NewLoader(opts.Source, opts.Panel, opts.Logger, opts.Metrics)
	}
	joinedKey := joinedEventsKey
	if opts.SessionID != "" {
		joinedKey += "." + opts.SessionID
	}
	if opts.SearchDebounce <= 0 {
		opts.SearchDebounce = debounce.DefaultWait
	}
	if opts.ResizeDelay <= 0 {
		opts.ResizeDelay = navigator.DefaultResizeDelay
	}

	a := &App{
		state:         domain.NewAppState(),
		panel:         opts.Panel,
		loader:        opts.Loader,
		beaches:       domain.DefaultBeaches(),
		events:        domain.DefaultEvents(),
		store:         opts.Store,
		tracker:       opts.Tracker,
		geocoder:      opts.Geocoder,
		clock:         opts.Clock,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		offlineWorker: opts.OfflineWorker,
		joinedKey:     joinedKey,
	}
	a.mapView = mapview.NewBeachMap(a.beaches)
	a.nav = navigator.New(a.state, a.mapView, opts.Clock, opts.ResizeDelay, opts.Logger, opts.Metrics)
	a.search = debounce.New(opts.Clock, opts.SearchDebounce, a.handleSearch)
	return a
}

// Init runs the whole page start-up sequence: Open followed by a forecast load.
func (a *App) Init(ctx context.Context) {
	a.Open()
	a.loader.LoadForecast(ctx)
}

// Open prepares the page without touching the forecast: default section and
// restored joins. Pages sharing a loader open this way.
func (a *App) Open() {
	a.mu.Lock()
	if err := a.nav.SwitchSection(domain.DefaultSection); err != nil {
		a.logger.Error("initial section", "error", err)
	}
	a.restoreJoinedEvents()
	a.mu.Unlock()

	a.logger.Debug("page state reset", "section", domain.DefaultSection, "offline_worker", a.offlineWorker)
}

// ReloadForecast fetches the forecast again. The fetch runs outside the
// controller lock; the panel guards its own state.
func (a *App) ReloadForecast(ctx context.Context) {
	a.loader.LoadForecast(ctx)
}

// CheckReadiness reports ready once the first forecast load has finished.
func (a *App) CheckReadiness(ctx context.Context) error {
	return a.loader.CheckReadiness(ctx)
}

// Navigate shows the named section.
func (a *App) Navigate(name domain.Section) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nav.SwitchSection(name)
}

// Start handles the call-to-action: jump to the map and greet the user.
func (a *App) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.nav.SwitchSection(domain.SectionMap); err != nil {
		a.logger.Error("start", "error", err)
		return
	}
	a.notify(msgWelcome, domain.NotificationDuration)
}

// Search records a keystroke in the search box. The query is handled once
// input has been quiet for the debounce period.
func (a *App) Search(query string) {
	a.metrics.SearchesDebounced.Inc()
	a.search.Trigger(query)
}

func (a *App) handleSearch(raw string) {
	query := strings.ToLower(raw)
	a.metrics.SearchesHandled.Inc()
	a.logger.Info("searching", "query", query)

	if utf8.RuneCountInString(query) < minSearchLength {
		return
	}

	a.mu.Lock()
	a.notify(fmt.Sprintf(searchNotification, query), domain.NotificationDuration)
	matches := domain.MatchBeaches(a.beaches, query)
	a.lastSearch = SearchResult{Query: query, Matches: matches}
	a.mu.Unlock()

	if len(matches) > 0 || a.geocoder == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), geocodeTimeout)
	defer cancel()
	result, err := a.geocoder.ForwardGeocode(ctx, query)
	if err != nil {
		a.logger.Warn("search geocoding failed", "query", query, "error", err)
		return
	}
	if result.FormattedAddress == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastSearch.Query != query {
		// A newer search finished first.
		return
	}
	a.lastSearch.Geocoded = &result
	a.mapView.SetView(result.Location, locationZoom)
}

// ReportLocation stores the position the browser reported, marks it on the
// map and recenters there.
func (a *App) ReportLocation(ctx context.Context, at domain.Coordinate) {
	a.mu.Lock()
	loc := at
	a.state.UserLocation = &loc
	a.mapView.AddMarker(mapview.Marker{
		Position: at,
		Circle:   true,
		Popup:    &mapview.Popup{Title: userLocationPopup},
	})
	a.mapView.SetView(at, locationZoom)
	a.mu.Unlock()

	a.logger.Info("user location obtained", "lat", at.Lat, "lng", at.Lng)

	if a.geocoder == nil {
		return
	}
	result, err := a.geocoder.ReverseGeocode(ctx, at)
	if err != nil {
		a.logger.Warn("reverse geocoding failed", "error", err)
		return
	}
	if result.FormattedAddress == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.UserLocation != nil && *a.state.UserLocation == at {
		a.locationLabel = result.FormattedAddress
	}
}

// ReportLocationError records that the browser refused or failed to locate
// the user. Nothing else changes.
func (a *App) ReportLocationError(reason string) {
	a.logger.Warn("location access denied", "reason", reason)
}

// CenterOnMe recenters the map on the user, or explains why it cannot.
func (a *App) CenterOnMe() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.UserLocation == nil {
		a.notify(msgLocationMissing, domain.NotificationDuration)
		return
	}
	a.mapView.SetView(*a.state.UserLocation, centerZoom)
	a.notify(msgCentered, domain.NotificationDuration)
}

// JoinEvent marks a cleanup event as joined. Joining twice is a no-op.
func (a *App) JoinEvent(ctx context.Context, id string) error {
	a.mu.Lock()
	idx := a.eventIndex(id)
	if idx < 0 {
		a.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownEvent, id)
	}
	if a.events[idx].Joined {
		a.mu.Unlock()
		return nil
	}
	a.events[idx].Joined = true
	name := a.events[idx].Name
	a.persistJoinedEvents()
	a.notify(fmt.Sprintf(joinedEventMessage, name), domain.NotificationDuration)
	a.mu.Unlock()

	a.tracker.Track(ctx, eventJoinCleanup, map[string]string{"eventName": name})
	return nil
}

// JoinBeach handles the "Join Cleanup" button in a beach marker popup.
func (a *App) JoinBeach(ctx context.Context, beach string) {
	a.mu.Lock()
	a.notify(fmt.Sprintf(joinedBeachMessage, beach), domain.NotificationDuration)
	a.mu.Unlock()

	a.tracker.Track(ctx, eventBeachMarkerJoin, map[string]string{"beach": beach})
}

// CreateEvent is the placeholder behind the "Create Event" button.
func (a *App) CreateEvent() {
	a.Notify(msgCreateEventStub)
}

// Notify queues a regular notification.
func (a *App) Notify(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notify(message, domain.NotificationDuration)
}

// HandleError logs message and shows it as a longer-lived warning.
func (a *App) HandleError(message string) {
	a.logger.Error("app error", "message", message)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.notify(errorMessagePrefix+message, domain.ErrorNotificationDuration)
}

// DrainNotifications returns the queued notifications and clears the queue.
func (a *App) DrainNotifications() []domain.Notification {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.notifications
	a.notifications = nil
	if out == nil {
		out = []domain.Notification{}
	}
	return out
}

// Forecast returns the forecast panel as currently rendered.
func (a *App) Forecast() forecast.PanelState {
	return a.panel.Snapshot()
}

// Snapshot returns a consistent copy of the page state.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := *a.state
	if a.state.UserLocation != nil {
		loc := *a.state.UserLocation
		state.UserLocation = &loc
	}
	search := a.lastSearch
	search.Matches = append([]domain.Beach(nil), a.lastSearch.Matches...)

	return Snapshot{
		State:         state,
		Visible:       a.nav.Visible(),
		Forecast:      a.panel.Snapshot(),
		Map:           a.mapView.Snapshot(),
		Beaches:       append([]domain.Beach(nil), a.beaches...),
		Events:        append([]domain.CleanupEvent(nil), a.events...),
		Search:        search,
		LocationLabel: a.locationLabel,
		OfflineWorker: a.offlineWorker,
	}
}

// Close discards any pending search.
func (a *App) Close() {
	a.search.Stop()
}

// notify appends a notification. Caller holds a.mu.
func (a *App) notify(message string, d time.Duration) {
	a.notifications = append(a.notifications, domain.Notification{
		Message:   message,
		Duration:  d,
		CreatedAt: a.clock.Now(),
	})
	a.metrics.Notifications.Inc()
	a.logger.Debug("notification", "message", message)
}

func (a *App) eventIndex(id string) int {
	for i, e := range a.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Caller holds a.mu.
func (a *App) persistJoinedEvents() {
	ids := make([]string, 0, len(a.events))
	for _, e := range a.events {
		if e.Joined {
			ids = append(ids, e.ID)
		}
	}
	a.store.Save(a.joinedKey, ids)
}

// Caller holds a.mu.
func (a *App) restoreJoinedEvents() {
	var ids []string
	if !a.store.Load(a.joinedKey, &ids) {
		return
	}
	for _, id := range ids {
		if idx := a.eventIndex(id); idx >= 0 {
			a.events[idx].Joined = true
		}
	}
}
