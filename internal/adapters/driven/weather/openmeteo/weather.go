// Package openmeteo provides a weather adapter backed by the Open-Meteo
// public APIs (geocoding, forecast and air quality). No API key is
// required; requests are rate limited to stay a polite client.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
	"github.com/custodia-labs/workbench-cli/internal/core/ports/driven"
)

// Ensure Service implements the interface.
var _ driven.WeatherService = (*Service)(nil)

// forecastDays is the short-range forecast length in the composed summary.
const forecastDays = 3

// wmoConditions maps WMO weather codes to human-readable conditions.
var wmoConditions = map[int]string{
	0:  "Clear",
	1:  "Mostly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Light rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Light snow",
	73: "Moderate snow",
	75: "Heavy snow",
	77: "Snow grains",
	80: "Rain showers",
	81: "Heavy rain showers",
	82: "Violent rain showers",
	85: "Snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// Config holds Open-Meteo client configuration.
type Config struct {
	// ForecastBaseURL is the forecast API endpoint.
	ForecastBaseURL string

	// GeocodingBaseURL is the geocoding API endpoint.
	GeocodingBaseURL string

	// AirQualityBaseURL is the air quality API endpoint.
	AirQualityBaseURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// Service implements driven.WeatherService using the Open-Meteo APIs.
type Service struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
}

// NewService creates a new Open-Meteo weather service.
func NewService(config Config) *Service {
	if config.ForecastBaseURL == "" {
		config.ForecastBaseURL = "https://api.open-meteo.com/v1"
	}
	if config.GeocodingBaseURL == "" {
		config.GeocodingBaseURL = "https://geocoding-api.open-meteo.com/v1"
	}
	if config.AirQualityBaseURL == "" {
		config.AirQualityBaseURL = "https://air-quality-api.open-meteo.com/v1"
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	return &Service{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		// One summary costs three API calls plus geocoding.
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

// GetSummary returns the composed weather report for a city: current
// conditions, a short-range forecast and air quality.
func (s *Service) GetSummary(ctx context.Context, city string) (*domain.WeatherSummary, error) {
	loc, err := s.geocode(ctx, city)
	if err != nil {
		return nil, err
	}

	current, err := s.current(ctx, loc)
	if err != nil {
		return nil, err
	}

	forecast, err := s.forecast(ctx, loc, forecastDays)
	if err != nil {
		return nil, err
	}

	air, err := s.airQuality(ctx, loc)
	if err != nil {
		return nil, err
	}

	return &domain.WeatherSummary{
		Current:    *current,
		Forecast:   forecast,
		AirQuality: *air,
		Summary: fmt.Sprintf("%s: %s, %d°C, humidity %d%%, air quality %s.",
			current.Location, current.Condition, current.Temp, current.Humidity, air.Level),
	}, nil
}

// location is a resolved place.
type location struct {
	Lat  float64
	Lon  float64
	Name string
}

// geocode resolves a city name to coordinates.
func (s *Service) geocode(ctx context.Context, city string) (*location, error) {
	endpoint := fmt.Sprintf("%s/search?name=%s&count=1&format=json",
		s.config.GeocodingBaseURL, url.QueryEscape(city))

	var result struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Name      string  `json:"name"`
		} `json:"results"`
	}
	if err := s.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", city, err)
	}

	if len(result.Results) == 0 {
		return nil, fmt.Errorf("%w: unknown city %q", domain.ErrNotFound, city)
	}

	r := result.Results[0]
	return &location{Lat: r.Latitude, Lon: r.Longitude, Name: r.Name}, nil
}

// current fetches the present conditions at a location.
func (s *Service) current(ctx context.Context, loc *location) (*domain.WeatherCurrent, error) {
	endpoint := fmt.Sprintf(
		"%s/forecast?latitude=%g&longitude=%g&current=temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m&timezone=auto",
		s.config.ForecastBaseURL, loc.Lat, loc.Lon)

	var result struct {
		Current struct {
			Temperature float64 `json:"temperature_2m"`
			Humidity    int     `json:"relative_humidity_2m"`
			WeatherCode int     `json:"weather_code"`
			WindSpeed   float64 `json:"wind_speed_10m"`
		} `json:"current"`
	}
	if err := s.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("fetching current weather: %w", err)
	}

	return &domain.WeatherCurrent{
		Temp:      int(math.Round(result.Current.Temperature)),
		Condition: conditionFor(result.Current.WeatherCode),
		Humidity:  result.Current.Humidity,
		WindSpeed: result.Current.WindSpeed,
		Location:  loc.Name,
	}, nil
}

// forecast fetches the daily forecast for a location.
func (s *Service) forecast(ctx context.Context, loc *location, days int) ([]domain.WeatherDay, error) {
	endpoint := fmt.Sprintf(
		"%s/forecast?latitude=%g&longitude=%g&daily=weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max&timezone=auto&forecast_days=%d",
		s.config.ForecastBaseURL, loc.Lat, loc.Lon, days)

	var result struct {
		Daily struct {
			Time          []string  `json:"time"`
			WeatherCode   []int     `json:"weather_code"`
			TempMax       []float64 `json:"temperature_2m_max"`
			TempMin       []float64 `json:"temperature_2m_min"`
			Precipitation []int     `json:"precipitation_probability_max"`
		} `json:"daily"`
	}
	if err := s.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}

	daily := result.Daily
	forecast := make([]domain.WeatherDay, 0, len(daily.Time))
	for i, date := range daily.Time {
		day := domain.WeatherDay{Date: date}
		if i < len(daily.TempMax) {
			day.High = int(math.Round(daily.TempMax[i]))
		}
		if i < len(daily.TempMin) {
			day.Low = int(math.Round(daily.TempMin[i]))
		}
		if i < len(daily.WeatherCode) {
			day.Condition = conditionFor(daily.WeatherCode[i])
		}
		if i < len(daily.Precipitation) {
			day.Precipitation = daily.Precipitation[i]
		}
		forecast = append(forecast, day)
	}

	return forecast, nil
}

// airQuality fetches the current air quality at a location.
func (s *Service) airQuality(ctx context.Context, loc *location) (*domain.AirQuality, error) {
	endpoint := fmt.Sprintf("%s/air-quality?latitude=%g&longitude=%g&current=us_aqi",
		s.config.AirQualityBaseURL, loc.Lat, loc.Lon)

	var result struct {
		Current struct {
			USAQI int `json:"us_aqi"`
		} `json:"current"`
	}
	if err := s.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("fetching air quality: %w", err)
	}

	aqi := result.Current.USAQI
	return &domain.AirQuality{AQI: aqi, Level: aqiLevel(aqi)}, nil
}

// getJSON performs a rate-limited GET request and decodes the JSON body.
func (s *Service) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// conditionFor maps a WMO weather code to a readable condition.
func conditionFor(code int) string {
	if condition, ok := wmoConditions[code]; ok {
		return condition
	}
	return "Unknown"
}

// aqiLevel maps a US AQI value to a readable level.
func aqiLevel(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for sensitive groups"
	default:
		return "Unhealthy"
	}
}
