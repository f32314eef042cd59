// Package mapview is the server-side model of the page's Leaflet map. The
// browser draws tiles and markers; this package only holds the configuration
// it draws from and the layout revision it watches.
package mapview

import (
	"strconv"
	"sync"

	"github.com/couchcryptid/shoresquad/internal/domain"
)

const (
	// OpenStreetMapTiles is the default tile layer.
	OpenStreetMapTiles = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	// DefaultZoom frames the default coastline.
	DefaultZoom = 10
)

// DefaultCenter is the Los Angeles coastline.
var DefaultCenter = domain.Coordinate{Lat: 34.0522, Lng: -118.2437}

// TileLayer is a raster tile source.
type TileLayer struct {
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"max_zoom"`
}

// Marker is a point with an optional popup.
type Marker struct {
	Position domain.Coordinate `json:"position"`
	Icon     string            `json:"icon,omitempty"`
	Popup    *Popup            `json:"popup,omitempty"`
	// Circle markers are drawn as a dot instead of an icon.
	Circle bool `json:"circle,omitempty"`
}

// Popup is the content shown when a marker is clicked.
type Popup struct {
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	// JoinBeach, when set, renders a "Join Cleanup" button for that beach.
	JoinBeach string `json:"join_beach,omitempty"`
}

// View is a snapshot of the map configuration.
type View struct {
	Center         domain.Coordinate `json:"center"`
	Zoom           int               `json:"zoom"`
	Layers         []TileLayer       `json:"layers"`
	Markers        []Marker          `json:"markers"`
	LayoutRevision uint64            `json:"layout_revision"`
}

// Map holds the map configuration. It is safe for concurrent use because the
// deferred resize fires from a timer goroutine.
type Map struct {
	mu             sync.RWMutex
	center         domain.Coordinate
	zoom           int
	layers         []TileLayer
	markers        []Marker
	layoutRevision uint64
}

// New creates a map centered on center at zoom.
func New(center domain.Coordinate, zoom int) *Map {
	return &Map{center: center, zoom: zoom}
}

// NewBeachMap creates the default map: OpenStreetMap tiles plus one marker per beach.
func NewBeachMap(beaches []domain.Beach) *Map {
	m := New(DefaultCenter, DefaultZoom)
	m.AddTileLayer(TileLayer{
		URL:         OpenStreetMapTiles,
		Attribution: "© OpenStreetMap contributors",
		MaxZoom:     19,
	})
	for _, b := range beaches {
		m.AddMarker(BeachMarker(b))
	}
	return m
}

// BeachMarker builds the marker for a cleanup site.
func BeachMarker(b domain.Beach) Marker {
	return Marker{
		Position: b.Location,
		Icon:     "🏖️",
		Popup: &Popup{
			Title:     b.Name,
			Body:      "👥 " + strconv.Itoa(b.Crew) + " crew members",
			JoinBeach: b.Name,
		},
	}
}

// AddTileLayer appends a tile layer.
func (m *Map) AddTileLayer(l TileLayer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layers = append(m.layers, l)
}

// AddMarker appends a marker.
func (m *Map) AddMarker(mk Marker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers = append(m.markers, mk)
}

// SetView recenters and re-zooms the map.
func (m *Map) SetView(center domain.Coordinate, zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.center = center
	m.zoom = zoom
}

// InvalidateSize asks the browser to recompute the map layout.
func (m *Map) InvalidateSize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layoutRevision++
}

// Snapshot returns a copy of the current configuration.
func (m *Map) Snapshot() View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return View{
		Center:         m.center,
		Zoom:           m.zoom,
		Layers:         append([]TileLayer{}, m.layers...),
		Markers:        append([]Marker{}, m.markers...),
		LayoutRevision: m.layoutRevision,
	}
}
