package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/sharpline/platform/internal/cache"
	"github.com/sharpline/platform/internal/domain"
	"github.com/sharpline/platform/internal/guard"
)

// ── Weather API response types ──

type weatherForecastResponse struct {
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Hour []struct {
				TimeEpoch    int64   `json:"time_epoch"`
				TempF        float64 `json:"temp_f"`
				WindMPH      float64 `json:"wind_mph"`
				ChanceOfRain float64 `json:"chance_of_rain"`
				ChanceOfSnow float64 `json:"chance_of_snow"`
			} `json:"hour"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// Forecast is the parsed hourly forecast closest to kickoff.
type Forecast struct {
	Location      string
	TempF         float64
	WindMPH       float64
	Precipitation domain.PrecipitationKind
	PrecipProb    float64
	Source        string
	CapturedAt    time.Time
}

// WeatherClient fetches kickoff-hour forecasts by venue location. Fetches are
// memoized for the weather TTL since many games share a capture window.
type WeatherClient struct {
	client  *guard.Client
	baseURL string
	apiKey  string
	cache   *cache.TTLCache
	logger  *slog.Logger
}

// NewWeatherClient builds the adapter on a guarded client.
func NewWeatherClient(client *guard.Client, baseURL, apiKey string, logger *slog.Logger) *WeatherClient {
	return &WeatherClient{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		cache:   cache.ForWeather(),
		logger:  logger,
	}
}

// Forecast returns the hourly forecast nearest the kickoff time for the
// location.
func (c *WeatherClient) Forecast(ctx context.Context, location string, kickoff time.Time) (*Forecast, error) {
	key := cache.Key("forecast", location, kickoff.Format("2006010215"))
	if v, ok := c.cache.Get(key); ok {
		return v.(*Forecast), nil
	}

	endpoint := fmt.Sprintf("%s/forecast.json?key=%s&q=%s&dt=%s",
		c.baseURL, c.apiKey, url.QueryEscape(location), kickoff.Format("2006-01-02"))

	resp, err := c.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var payload weatherForecastResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, domain.ErrParse("weather decode", err)
	}
	if len(payload.Forecast.ForecastDay) == 0 {
		return nil, domain.ErrParse("weather forecast empty", nil)
	}

	fc := pickKickoffHour(&payload, kickoff)
	if fc == nil {
		return nil, domain.ErrParse("no forecast hour near kickoff", nil)
	}
	fc.Location = location
	fc.Source = "weatherapi"
	fc.CapturedAt = time.Now().UTC()

	c.cache.Set(key, fc)
	return fc, nil
}

// pickKickoffHour selects the hourly entry closest to kickoff.
func pickKickoffHour(payload *weatherForecastResponse, kickoff time.Time) *Forecast {
	target := kickoff.Unix()
	var best *Forecast
	bestDelta := int64(1<<62 - 1)

	for _, day := range payload.Forecast.ForecastDay {
		for _, h := range day.Hour {
			delta := h.TimeEpoch - target
			if delta < 0 {
				delta = -delta
			}
			if delta >= bestDelta {
				continue
			}
			bestDelta = delta
			precip := domain.PrecipNone
			prob := h.ChanceOfRain
			if h.ChanceOfSnow > h.ChanceOfRain {
				precip = domain.PrecipSnow
				prob = h.ChanceOfSnow
			} else if h.ChanceOfRain > 0 {
				precip = domain.PrecipRain
			}
			best = &Forecast{
				TempF:         h.TempF,
				WindMPH:       h.WindMPH,
				Precipitation: precip,
				PrecipProb:    prob / 100.0,
			}
		}
	}
	return best
}

// VenueLocation reduces a venue name to a geocodable query string.
func VenueLocation(venue string) string {
	// "Lambeau Field, Green Bay" style names geocode better without the
	// stadium prefix.
	if i := strings.LastIndex(venue, ","); i >= 0 {
		return strings.TrimSpace(venue[i+1:])
	}
	return venue
}
