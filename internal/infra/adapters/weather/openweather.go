// File: internal/infra/adapters/weather/openweather.go
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
)

var _ adapter.WeatherProvider = (*OpenWeatherClient)(nil)

// The forecast endpoint returns one entry every three hours.
const slotsPerDay = 8

// OpenWeatherClient reads current conditions and the five-day forecast from
// the OpenWeatherMap 2.5 REST API in metric units.
type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenWeatherClient(apiKey, baseURL string, timeout time.Duration) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, errors.New("openweather api key empty")
	}
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenWeatherClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *OpenWeatherClient) Name() string { return "openweather" }

type owmCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  int     `json:"humidity"`
}

type owmWind struct {
	Speed float64 `json:"speed"`
}

type owmCurrent struct {
	Weather []owmCondition `json:"weather"`
	Main    owmMain        `json:"main"`
	Wind    owmWind        `json:"wind"`
}

type owmForecast struct {
	List []struct {
		Dt      int64          `json:"dt"`
		Weather []owmCondition `json:"weather"`
		Main    owmMain        `json:"main"`
		Wind    owmWind        `json:"wind"`
	} `json:"list"`
	City struct {
		Timezone int `json:"timezone"` // seconds east of UTC
	} `json:"city"`
}

func first(cs []owmCondition) owmCondition {
	if len(cs) == 0 {
		return owmCondition{}
	}
	return cs[0]
}

// Current calls GET /weather.
func (c *OpenWeatherClient) Current(ctx context.Context, lat, lon float64) (*model.Weather, error) {
	var out owmCurrent
	if err := c.get(ctx, "/weather", lat, lon, 0, &out); err != nil {
		return nil, err
	}
	cond := first(out.Weather)
	return &model.Weather{
		Temp:        math.Round(out.Main.Temp),
		FeelsLike:   math.Round(out.Main.FeelsLike),
		Condition:   cond.Main,
		Description: cond.Description,
		Humidity:    out.Main.Humidity,
		WindSpeed:   out.Wind.Speed,
		Icon:        cond.Icon,
	}, nil
}

// Forecast calls GET /forecast and folds the three-hour slots into local
// calendar days. The temperature is the day's mean; the other fields come
// from the day's first slot.
func (c *OpenWeatherClient) Forecast(ctx context.Context, lat, lon float64, days int) ([]model.DailyForecast, error) {
	var out owmForecast
	if err := c.get(ctx, "/forecast", lat, lon, days*slotsPerDay, &out); err != nil {
		return nil, err
	}
	zone := time.FixedZone("", out.City.Timezone)

	var (
		res   []model.DailyForecast
		sum   float64
		count int
	)
	flush := func() {
		if count > 0 {
			res[len(res)-1].Temp = math.Round(sum / float64(count))
		}
	}
	for _, slot := range out.List {
		local := time.Unix(slot.Dt, 0).In(zone)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, zone)
		if len(res) == 0 || !res[len(res)-1].Date.Equal(day) {
			flush()
			if len(res) == days {
				return res, nil
			}
			cond := first(slot.Weather)
			res = append(res, model.DailyForecast{
				Date:        day,
				Condition:   cond.Main,
				Description: cond.Description,
				Humidity:    slot.Main.Humidity,
				WindSpeed:   slot.Wind.Speed,
				Icon:        cond.Icon,
			})
			sum, count = 0, 0
		}
		sum += slot.Main.Temp
		count++
	}
	flush()
	return res, nil
}

func (c *OpenWeatherClient) get(ctx context.Context, path string, lat, lon float64, cnt int, out any) error {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)
	if cnt > 0 {
		q.Set("cnt", strconv.Itoa(cnt))
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	hreq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(hreq)
	if err != nil {
		// The request URL carries the key; keep it out of logs.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return fmt.Errorf("openweather: %s: %w", path, uerr.Err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if json.Unmarshal(raw, &e) == nil && e.Message != "" {
			return fmt.Errorf("openweather: %d: %s", resp.StatusCode, e.Message)
		}
		return fmt.Errorf("openweather: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
