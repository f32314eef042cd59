package nea

import (
	"fmt"
	"time"

	"github.com/couchcryptid/shoresquad/internal/domain"
)

// NEA API response types. Nested objects are pointers so that a missing
// field can be told apart from a zero value.

type response struct {
	Items []item `json:"items"`
}

type item struct {
	UpdateTimestamp string      `json:"update_timestamp"`
	Forecasts       *[]dayEntry `json:"forecasts"`
}

type dayEntry struct {
	Date             string     `json:"date"`
	Forecast         string     `json:"forecast"`
	Temperature      *rangeJSON `json:"temperature"`
	RelativeHumidity *rangeJSON `json:"relative_humidity"`
	Wind             *windJSON  `json:"wind"`
}

type rangeJSON struct {
	Low  *float64 `json:"low"`
	High *float64 `json:"high"`
}

type windJSON struct {
	Speed     *rangeJSON `json:"speed"`
	Direction string     `json:"direction"`
}

func (r response) bundle() (domain.ForecastBundle, error) {
	if len(r.Items) == 0 {
		return domain.ForecastBundle{}, fmt.Errorf("%w: no items", ErrMalformedPayload)
	}
	first := r.Items[0]
	if first.Forecasts == nil {
		return domain.ForecastBundle{}, fmt.Errorf("%w: missing forecasts", ErrMalformedPayload)
	}

	updatedAt, err := time.Parse(time.RFC3339, first.UpdateTimestamp)
	if err != nil {
		return domain.ForecastBundle{}, fmt.Errorf("%w: update_timestamp: %v", ErrMalformedPayload, err)
	}

	days := make([]domain.ForecastDay, 0, len(*first.Forecasts))
	for i, entry := range *first.Forecasts {
		day, err := entry.day()
		if err != nil {
			return domain.ForecastBundle{}, fmt.Errorf("%w: forecasts[%d]: %v", ErrMalformedPayload, i, err)
		}
		days = append(days, day)
	}

	return domain.ForecastBundle{UpdatedAt: updatedAt, Days: days}, nil
}

func (e dayEntry) day() (domain.ForecastDay, error) {
	date, err := time.ParseInLocation(time.DateOnly, e.Date, domain.Singapore)
	if err != nil {
		return domain.ForecastDay{}, fmt.Errorf("date: %v", err)
	}
	temp, err := e.Temperature.toRange("temperature")
	if err != nil {
		return domain.ForecastDay{}, err
	}
	humidity, err := e.RelativeHumidity.toRange("relative_humidity")
	if err != nil {
		return domain.ForecastDay{}, err
	}
	if e.Wind == nil {
		return domain.ForecastDay{}, fmt.Errorf("missing wind")
	}
	speed, err := e.Wind.Speed.toRange("wind.speed")
	if err != nil {
		return domain.ForecastDay{}, err
	}

	return domain.ForecastDay{
		Date:          date,
		Summary:       e.Forecast,
		Temperature:   temp,
		Humidity:      humidity,
		WindSpeed:     speed,
		WindDirection: e.Wind.Direction,
	}, nil
}

func (r *rangeJSON) toRange(field string) (domain.Range, error) {
	if r == nil {
		return domain.Range{}, fmt.Errorf("missing %s", field)
	}
	if r.Low == nil || r.High == nil {
		return domain.Range{}, fmt.Errorf("incomplete %s range", field)
	}
	return domain.Range{Low: *r.Low, High: *r.High}, nil
}
