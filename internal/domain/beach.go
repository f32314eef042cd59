package domain

import (
	"strings"
	"time"
)

// Beach is a cleanup site shown as a map marker.
type Beach struct {
	Name     string     `json:"name"`
	Location Coordinate `json:"location"`
	Crew     int        `json:"crew"`
}

// CleanupEvent is one card in the events section.
type CleanupEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Beach  string `json:"beach"`
	Date   string `json:"date"`
	Joined bool   `json:"joined"`
}

// Notification is a transient message shown to the user.
type Notification struct {
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

const (
	// NotificationDuration is how long a regular notification stays visible.
	NotificationDuration = 3 * time.Second
	// ErrorNotificationDuration is used for error notifications.
	ErrorNotificationDuration = 5 * time.Second
)

// DefaultBeaches are the seeded cleanup sites.
func DefaultBeaches() []Beach {
	return []Beach{
		{Name: "Sunset Beach", Location: Coordinate{Lat: 33.7453, Lng: -118.0545}, Crew: 12},
		{Name: "Marina Bay", Location: Coordinate{Lat: 37.8268, Lng: -122.2832}, Crew: 8},
		{Name: "Santa Monica Beach", Location: Coordinate{Lat: 34.0195, Lng: -118.4912}, Crew: 15},
		{Name: "Huntington Beach", Location: Coordinate{Lat: 33.6603, Lng: -117.9992}, Crew: 10},
	}
}

// DefaultEvents are the seeded event cards.
func DefaultEvents() []CleanupEvent {
	return []CleanupEvent{
		{ID: "sunset-sweep", Name: "Sunset Beach Sweep", Beach: "Sunset Beach", Date: "Sat, 9:00 AM"},
		{ID: "santa-monica-morning", Name: "Santa Monica Morning Cleanup", Beach: "Santa Monica Beach", Date: "Sun, 8:00 AM"},
		{ID: "huntington-pier", Name: "Huntington Pier Patrol", Beach: "Huntington Beach", Date: "Sat, 4:00 PM"},
	}
}

// MatchBeaches returns the beaches whose name contains query, case-insensitively.
func MatchBeaches(beaches []Beach, query string) []Beach {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []Beach
	for _, b := range beaches {
		if strings.Contains(strings.ToLower(b.Name), query) {
			out = append(out, b)
		}
	}
	return out
}
