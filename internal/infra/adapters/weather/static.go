package weather

import (
	"context"
	"time"

	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
)

var _ adapter.WeatherProvider = (*StaticProvider)(nil)

// StaticProvider answers every location with the same conditions. Used for
// local development and tests.
type StaticProvider struct {
	Weather model.Weather
	Now     func() time.Time
}

func NewStaticProvider(w model.Weather) *StaticProvider {
	return &StaticProvider{Weather: w, Now: time.Now}
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) Current(ctx context.Context, lat, lon float64) (*model.Weather, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := p.Weather
	return &w, nil
}

func (p *StaticProvider) Forecast(ctx context.Context, lat, lon float64, days int) ([]model.DailyForecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := p.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]model.DailyForecast, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, model.DailyForecast{
			Date:        today.AddDate(0, 0, i),
			Temp:        p.Weather.Temp,
			Condition:   p.Weather.Condition,
			Description: p.Weather.Description,
			Humidity:    p.Weather.Humidity,
			WindSpeed:   p.Weather.WindSpeed,
			Icon:        p.Weather.Icon,
		})
	}
	return out, nil
}
