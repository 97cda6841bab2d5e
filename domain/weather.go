package domain

import (
	"context"
	"time"
)

// WeatherSnapshot is a point-in-time weather reading.
type WeatherSnapshot struct {
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feels_like"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	Condition   string    `json:"condition"`
	Icon        string    `json:"icon"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ForecastDay struct {
	Date          time.Time `json:"date"`
	DayOfWeek     string    `json:"day_of_week"`
	TempMin       float64   `json:"temp_min"`
	TempMax       float64   `json:"temp_max"`
	Humidity      int       `json:"humidity"`
	Condition     string    `json:"condition"`
	Icon          string    `json:"icon"`
	IsGoodWeather bool      `json:"is_good_weather"`
}

// WeatherReport bundles the current snapshot with an optional forecast.
type WeatherReport struct {
	Current  WeatherSnapshot
	Forecast []ForecastDay
}

// WeatherClient is the weather collaborator port.
type WeatherClient interface {
	Current(ctx context.Context, city string) (WeatherSnapshot, error)
	Forecast(ctx context.Context, city string, days int) ([]ForecastDay, error)
	// Lookup fetches the snapshot and, best effort, a forecast of days days.
	Lookup(ctx context.Context, city string, days int) (WeatherReport, error)
}
