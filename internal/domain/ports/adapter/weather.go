package adapter

import (
	"context"

	"sitfit-api/internal/domain/model"
)

// WeatherProvider is the hex port for weather data sources.
type WeatherProvider interface {
	Name() string
	Current(ctx context.Context, lat, lon float64) (*model.Weather, error)
	// Forecast returns up to days local calendar days, today first.
	Forecast(ctx context.Context, lat, lon float64, days int) ([]model.DailyForecast, error)
}
