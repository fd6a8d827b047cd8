// File: internal/usecase/weather_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
	"sitfit-api/internal/infra/logging"
	"sitfit-api/internal/infra/metrics"
)

var _ WeatherUseCase = (*weatherUC)(nil)

type WeatherUseCase interface {
	Current(ctx context.Context, lat, lon float64) (*model.WeatherReport, error)
	// Forecast returns 1..5 days; days <= 0 means all five.
	Forecast(ctx context.Context, lat, lon float64, days int) ([]model.ForecastDay, error)
}

const forecastMaxDays = 5

type weatherUC struct {
	provider adapter.WeatherProvider
	log      *zerolog.Logger
}

func NewWeatherUseCase(provider adapter.WeatherProvider, logger *zerolog.Logger) *weatherUC {
	return &weatherUC{provider: provider, log: logger}
}

func validCoords(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("coordinates %v,%v out of range: %w", lat, lon, domain.ErrInvalidArgument)
	}
	return nil
}

func (u *weatherUC) Current(ctx context.Context, lat, lon float64) (*model.WeatherReport, error) {
	if err := validCoords(lat, lon); err != nil {
		return nil, err
	}
	w, err := u.provider.Current(ctx, lat, lon)
	if err != nil {
		return nil, u.unavailable(ctx, "current", err)
	}
	metrics.IncWeather(u.provider.Name(), "current", "ok")
	return &model.WeatherReport{Provider: u.provider.Name(), Weather: *w, Suggestions: model.OutfitFor(*w)}, nil
}

func (u *weatherUC) Forecast(ctx context.Context, lat, lon float64, days int) ([]model.ForecastDay, error) {
	if err := validCoords(lat, lon); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = forecastMaxDays
	}
	if days > forecastMaxDays {
		return nil, fmt.Errorf("forecast covers at most %d days: %w", forecastMaxDays, domain.ErrInvalidArgument)
	}
	daily, err := u.provider.Forecast(ctx, lat, lon, days)
	if err != nil {
		return nil, u.unavailable(ctx, "forecast", err)
	}
	metrics.IncWeather(u.provider.Name(), "forecast", "ok")
	out := make([]model.ForecastDay, 0, len(daily))
	for _, d := range daily {
		out = append(out, model.ForecastDay{DailyForecast: d, Suggestions: model.OutfitFor(d.AsWeather())})
	}
	return out, nil
}

func (u *weatherUC) unavailable(ctx context.Context, kind string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	metrics.IncWeather(u.provider.Name(), kind, "error")
	logging.With(ctx, u.log).Warn().Err(err).Str("provider", u.provider.Name()).Str("kind", kind).Msg("weather lookup failed")
	return fmt.Errorf("%s: %w", err.Error(), domain.ErrWeatherUnavailable)
}
