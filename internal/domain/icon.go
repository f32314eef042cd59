package domain

import "strings"

// Icon is the emoji shown on a forecast card.
type Icon string

const (
	IconStormy       Icon = "⛈️"
	IconRainy        Icon = "🌧️"
	IconCloudy       Icon = "☁️"
	IconSunny        Icon = "☀️"
	IconMild         Icon = "🌤️"
	IconHazy         Icon = "🌫️"
	IconWindy        Icon = "💨"
	IconPartlyCloudy Icon = "🌦️"
)

// iconRules is checked in order; the first rule with a matching keyword wins.
var iconRules = []struct {
	keywords []string
	icon     Icon
}{
	{[]string{"thundery", "thunderstorm"}, IconStormy},
	{[]string{"rainy", "rain", "shower"}, IconRainy},
	{[]string{"cloudy", "cloud"}, IconCloudy},
	{[]string{"sunny", "fine"}, IconSunny},
	{[]string{"cool"}, IconMild},
	{[]string{"haze"}, IconHazy},
	{[]string{"windy", "strong wind"}, IconWindy},
}

// IconFor derives the display icon from a forecast summary.
func IconFor(summary string) Icon {
	text := strings.ToLower(summary)
	for _, rule := range iconRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.icon
			}
		}
	}
	return IconPartlyCloudy
}
