package domain

import (
	"strconv"
	"time"
)

// Range is a low/high pair as reported by NEA.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ForecastDay is one parsed day of the outlook.
type ForecastDay struct {
	Date          time.Time `json:"date"`
	Summary       string    `json:"summary"`
	Temperature   Range     `json:"temperature"`
	Humidity      Range     `json:"humidity"`
	WindSpeed     Range     `json:"wind_speed"`
	WindDirection string    `json:"wind_direction"`
}

// ForecastBundle is the complete result of one successful fetch. A new bundle
// replaces the previous one wholesale.
type ForecastBundle struct {
	UpdatedAt time.Time     `json:"updated_at"`
	Days      []ForecastDay `json:"days"`
}

// Card is the display form of a ForecastDay.
type Card struct {
	DayName     string `json:"day_name"`
	DateLabel   string `json:"date_label"`
	Icon        Icon   `json:"icon"`
	Summary     string `json:"summary"`
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
	Wind        string `json:"wind"`
}

// Singapore is the calendar forecasts are published in. Singapore has had a
// fixed UTC+8 offset since 1982, so no tzdata lookup is needed.
var Singapore = time.FixedZone("SGT", 8*60*60)

// NewCard formats a day for display.
func NewCard(day ForecastDay) Card {
	date := day.Date.In(Singapore)
	return Card{
		DayName:     date.Format("Mon"),
		DateLabel:   date.Format("2 Jan"),
		Icon:        IconFor(day.Summary),
		Summary:     day.Summary,
		Temperature: formatRange(day.Temperature) + "°C",
		Humidity:    formatRange(day.Humidity) + "%",
		Wind:        formatRange(day.WindSpeed) + " km/h " + day.WindDirection,
	}
}

// Cards formats every day of the bundle, preserving order.
func (b ForecastBundle) Cards() []Card {
	cards := make([]Card, len(b.Days))
	for i, day := range b.Days {
		cards[i] = NewCard(day)
	}
	return cards
}

// UpdatedLabel renders the "last updated" line for a bundle timestamp.
func UpdatedLabel(t time.Time) string {
	return "Last updated: " + t.In(Singapore).Format("02 Jan 2006, 03:04 pm") + " SGT"
}

func formatRange(r Range) string {
	return formatNumber(r.Low) + "–" + formatNumber(r.High)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
