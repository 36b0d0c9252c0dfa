package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yanqian/smart-irrigation/internal/domain/weather"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client fetches current conditions from OpenWeatherMap.
type Client struct {
	baseURL    string
	apiKey     string
	units      string
	httpClient *http.Client
}

// NewClient builds an API client.
func NewClient(baseURL, apiKey, units string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openweather api key cannot be empty")
	}
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = defaultBaseURL
	}
	if strings.TrimSpace(units) == "" {
		units = "metric"
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		apiKey:  apiKey,
		units:   units,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Current retrieves the current observation for a city.
func (c *Client) Current(ctx context.Context, city string) (weather.Snapshot, error) {
	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", c.apiKey)
	query.Set("units", c.units)
	endpoint := c.baseURL + "/weather?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return weather.Snapshot{}, fmt.Errorf("weather request error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	var raw apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return weather.Snapshot{}, fmt.Errorf("decode weather response: %w", err)
	}
	return normalize(raw, city), nil
}

type apiResponse struct {
	Name       string         `json:"name"`
	Dt         int64          `json:"dt"`
	Main       apiMain        `json:"main"`
	Weather    []apiCondition `json:"weather"`
	Wind       apiWind        `json:"wind"`
	Clouds     apiClouds      `json:"clouds"`
	Rain       *apiRain       `json:"rain,omitempty"`
	Visibility int            `json:"visibility"`
}

type apiMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type apiCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type apiWind struct {
	Speed float64 `json:"speed"`
}

type apiClouds struct {
	All int `json:"all"`
}

type apiRain struct {
	OneHour float64 `json:"1h"`
}

func normalize(raw apiResponse, city string) weather.Snapshot {
	snap := weather.Snapshot{
		City:        raw.Name,
		Temperature: raw.Main.Temp,
		FeelsLike:   raw.Main.FeelsLike,
		TempMin:     raw.Main.TempMin,
		TempMax:     raw.Main.TempMax,
		Humidity:    raw.Main.Humidity,
		Pressure:    raw.Main.Pressure,
		WindSpeed:   raw.Wind.Speed,
		Visibility:  raw.Visibility,
		Source:      weather.SourceOpenWeather,
	}
	if snap.City == "" {
		snap.City = city
	}
	if len(raw.Weather) > 0 {
		snap.Condition = raw.Weather[0].Main
		snap.Description = raw.Weather[0].Description
	}
	if raw.Dt > 0 {
		snap.ObservedAt = time.Unix(raw.Dt, 0).UTC()
	}
	snap.RainChance = rainChance(raw)
	return snap
}

// rainChance approximates precipitation likelihood from the current observation,
// since the current-weather endpoint carries no probability field.
func rainChance(raw apiResponse) int {
	if raw.Rain != nil && raw.Rain.OneHour > 0 {
		return 100
	}
	chance := raw.Clouds.All * 6 / 10
	if raw.Main.Humidity > 80 {
		chance += 20
	}
	if chance > 95 {
		chance = 95
	}
	return chance
}
