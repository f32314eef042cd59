package domain

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// AppState is the page's runtime state. It is owned by the top-level
// controller and handed by reference to whatever needs to mutate it.
type AppState struct {
	// UserLocation is nil until the browser reports a position.
	UserLocation   *Coordinate `json:"user_location,omitempty"`
	CurrentSection Section     `json:"current_section"`
}

// NewAppState returns the state a freshly loaded page starts with.
func NewAppState() *AppState {
	return &AppState{CurrentSection: DefaultSection}
}
