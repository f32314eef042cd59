package mapview

import (
	"sync"
	"testing"

	"github.com/couchcryptid/shoresquad/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBeachMap(t *testing.T) {
	beaches := domain.DefaultBeaches()
	view := NewBeachMap(beaches).Snapshot()

	assert.Equal(t, DefaultCenter, view.Center)
	assert.Equal(t, DefaultZoom, view.Zoom)
	require.Len(t, view.Layers, 1)
	assert.Equal(t, OpenStreetMapTiles, view.Layers[0].URL)
	require.Len(t, view.Markers, len(beaches))

	first := view.Markers[0]
	assert.Equal(t, beaches[0].Location, first.Position)
	require.NotNil(t, first.Popup)
	assert.Equal(t, "Sunset Beach", first.Popup.Title)
	assert.Equal(t, "👥 12 crew members", first.Popup.Body)
	assert.Equal(t, "Sunset Beach", first.Popup.JoinBeach)
}

func TestSetView(t *testing.T) {
	m := New(DefaultCenter, DefaultZoom)
	m.SetView(domain.Coordinate{Lat: 1.29, Lng: 103.85}, 13)

	view := m.Snapshot()
	assert.Equal(t, domain.Coordinate{Lat: 1.29, Lng: 103.85}, view.Center)
	assert.Equal(t, 13, view.Zoom)
}

func TestInvalidateSize_Concurrent(t *testing.T) {
	m := New(DefaultCenter, DefaultZoom)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.InvalidateSize()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(10), m.Snapshot().LayoutRevision)
}

func TestSnapshot_IsCopy(t *testing.T) {
	m := NewBeachMap(domain.DefaultBeaches())
	view := m.Snapshot()
	view.Markers[0].Icon = "x"

	assert.Equal(t, "🏖️", m.Snapshot().Markers[0].Icon)
}
