// Package domain models the ShoreSquad beach-cleanup page: the NEA multi-day
// forecast, the page sections, beaches and cleanup events.
//
// # Data Source
//
// Forecasts come from the Singapore National Environment Agency (NEA) 4-day
// outlook published at https://api.data.gov.sg/v1/environment/4-day-weather-forecast.
// One payload carries a single item with an update timestamp and one entry per
// day. Each day has a free-text summary and low/high ranges:
//
//	temperature        degrees Celsius
//	relative_humidity  percent
//	wind.speed         km/h, plus a compass direction string ("NE", "VARIABLE")
//
// Four days are expected but the count is not enforced.
//
// # Icons
//
// A day's summary maps to one icon by keyword, first match wins:
//
//	thundery, thunderstorm   stormy
//	rainy, rain, shower      rainy
//	cloudy, cloud            cloudy
//	sunny, fine              sunny
//	cool                     mild
//	haze                     hazy
//	windy, strong wind       windy
//	(anything else)          partly cloudy
//
// "Thundery showers" is therefore stormy, and "Windy with haze" is hazy.
//
// # Time Zone
//
// NEA dates are Singapore calendar dates. Labels are rendered in SGT (UTC+8,
// no daylight saving), independent of the host time zone.
package domain
