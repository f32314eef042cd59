// Package http serves the ShoreSquad page, its JSON API and the operational
// endpoints.
package http

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/shoresquad/internal/app"
	"github.com/couchcryptid/shoresquad/internal/domain"
	"github.com/couchcryptid/shoresquad/internal/forecast"
	"github.com/couchcryptid/shoresquad/internal/navigator"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed web/templates/*.html.tmpl
var templateFS embed.FS

//go:embed web/static
var staticFS embed.FS

const maxBodyBytes = 1 << 16

// ReadinessChecker reports whether the service can serve pages.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Controller is one browser's page controller.
type Controller interface {
	Navigate(name domain.Section) error
	Start()
	Search(query string)
	ReportLocation(ctx context.Context, at domain.Coordinate)
	ReportLocationError(reason string)
	CenterOnMe()
	JoinEvent(ctx context.Context, id string) error
	JoinBeach(ctx context.Context, beach string)
	CreateEvent()
	HandleError(message string)
	DrainNotifications() []domain.Notification
	ReloadForecast(ctx context.Context)
	Forecast() forecast.PanelState
	Snapshot() app.Snapshot
	Close()
}

// Server exposes the page, the API and the health, readiness and metrics routes.
type Server struct {
	httpServer *http.Server
	pages      *Pages
	page       *template.Template
	static     fs.FS
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers every route. Each browser
// gets its own controller from pages.
func NewServer(addr string, pages *Pages, ready ReadinessChecker, logger *slog.Logger) (*Server, error) {
	page, err := template.New("index.html.tmpl").Funcs(template.FuncMap{
		"sectionTitle": sectionTitle,
		"shown": func(visible map[domain.Section]bool, s domain.Section) bool {
			return visible[s]
		},
	}).ParseFS(templateFS, "web/templates/*.html.tmpl")
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(staticFS, "web/static")
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		pages:  pages,
		page:   page,
		static: static,
		logger: logger,
	}

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /section/{name}", s.handleSectionLink)
	mux.HandleFunc("POST /start", s.handleStartForm)
	mux.HandleFunc("GET /service-worker.js", s.handleServiceWorker)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/forecast", s.handleForecast)
	mux.HandleFunc("POST /api/forecast/reload", s.handleForecastReload)
	mux.HandleFunc("POST /api/section", s.handleSection)
	mux.HandleFunc("POST /api/start", s.handleStart)
	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/location", s.handleLocation)
	mux.HandleFunc("POST /api/location/center", s.handleCenter)
	mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	mux.HandleFunc("POST /api/events/{id}/join", s.handleJoinEvent)
	mux.HandleFunc("POST /api/beaches/{name}/join", s.handleJoinBeach)
	mux.HandleFunc("POST /api/errors", s.handleClientError)
	mux.HandleFunc("GET /api/notifications", s.handleNotifications)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s, nil
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// --- page ---

type pageData struct {
	app.Snapshot
	Sections []domain.Section
}

// handlePage is a page load: the browser's state starts over. ?section=
// picks the section shown first.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Load(w, r)
	if name := domain.Section(r.URL.Query().Get("section")); name != "" {
		if err := ctrl.Navigate(name); err != nil {
			s.logger.Debug("ignoring section link", "section", name, "error", err)
		}
	}
	s.render(w, ctrl)
}

// handleSectionLink is the no-script navigation target. It changes nothing
// and points the browser at a page load that opens on the section.
func (s *Server) handleSectionLink(w http.ResponseWriter, r *http.Request) {
	name := domain.Section(r.PathValue("name"))
	if !name.Valid() {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, "/?section="+string(name)+"#"+string(name), http.StatusSeeOther)
}

// handleStartForm renders in place; a redirect would reload the page and
// reset the section it just switched to.
func (s *Server) handleStartForm(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	ctrl.Start()
	s.render(w, ctrl)
}

// handleServiceWorker serves the offline worker from the root so its scope
// covers the whole page.
func (s *Server) handleServiceWorker(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, s.static, "service-worker.js")
}

func (s *Server) render(w http.ResponseWriter, ctrl Controller) {
	data := pageData{Snapshot: ctrl.Snapshot(), Sections: domain.Sections}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

// --- API ---

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	writeJSON(w, http.StatusOK, ctrl.Forecast())
}

func (s *Server) handleForecastReload(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	ctrl.ReloadForecast(r.Context())
	writeJSON(w, http.StatusOK, ctrl.Forecast())
}

type sectionRequest struct {
	Section domain.Section `json:"section"`
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	var req sectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := ctrl.Navigate(req.Section); err != nil {
		if errors.Is(err, navigator.ErrUnknownSection) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.Snapshot())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	ctrl.Start()
	w.WriteHeader(http.StatusNoContent)
}

type searchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctrl.Search(req.Query)
	w.WriteHeader(http.StatusAccepted)
}

// locationRequest carries either a position or the browser's error message.
type locationRequest struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Error string   `json:"error"`
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	var req locationRequest
	if !s.decode(w, r, &req) {
		return
	}
	switch {
	case req.Error != "":
		ctrl.ReportLocationError(req.Error)
	case req.Lat != nil && req.Lng != nil:
		ctrl.ReportLocation(r.Context(), domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng})
	default:
		writeError(w, http.StatusBadRequest, errors.New("lat and lng, or error, are required"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCenter(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	ctrl.CenterOnMe()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	ctrl.CreateEvent()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJoinEvent(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	if err := ctrl.JoinEvent(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, app.ErrUnknownEvent) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJoinBeach(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	ctrl.JoinBeach(r.Context(), r.PathValue("name"))
	w.WriteHeader(http.StatusNoContent)
}

type clientErrorRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleClientError(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	var req clientErrorRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, errors.New("message is required"))
		return
	}
	ctrl.HandleError(req.Message)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	ctrl := s.pages.Current(w, r)
	writeJSON(w, http.StatusOK, ctrl.DrainNotifications())
}

// --- helpers ---

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Debug("bad request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func sectionTitle(s domain.Section) string {
	switch s {
	case domain.SectionMap:
		return "Beach Map"
	case domain.SectionWeather:
		return "Weather"
	case domain.SectionEvents:
		return "Events"
	case domain.SectionAbout:
		return "About"
	}
	return string(s)
}
