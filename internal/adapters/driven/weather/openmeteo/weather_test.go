package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
)

// fixtureServers spins up fake geocoding, forecast and air quality endpoints.
func fixtureServers(t *testing.T) Config {
	t.Helper()

	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Hangzhou", r.URL.Query().Get("name"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"latitude":30.25,"longitude":120.17,"name":"Hangzhou"}]}`))
	}))
	t.Cleanup(geo.Close)

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Query().Get("current"), "temperature_2m") {
			_, _ = w.Write([]byte(`{"current":{"temperature_2m":21.6,"relative_humidity_2m":65,"weather_code":2,"wind_speed_10m":12.3}}`))
			return
		}
		assert.Equal(t, "3", r.URL.Query().Get("forecast_days"))
		_, _ = w.Write([]byte(`{"daily":{
			"time":["2026-01-16","2026-01-17","2026-01-18"],
			"weather_code":[2,61,0],
			"temperature_2m_max":[22.4,18.2,20.0],
			"temperature_2m_min":[14.6,12.1,11.8],
			"precipitation_probability_max":[10,80,0]
		}}`))
	}))
	t.Cleanup(forecast.Close)

	air := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current":{"us_aqi":42}}`))
	}))
	t.Cleanup(air.Close)

	return Config{
		ForecastBaseURL:   forecast.URL,
		GeocodingBaseURL:  geo.URL,
		AirQualityBaseURL: air.URL,
	}
}

func TestGetSummary_Success(t *testing.T) {
	svc := NewService(fixtureServers(t))

	summary, err := svc.GetSummary(context.Background(), "Hangzhou")

	require.NoError(t, err)
	assert.Equal(t, "Hangzhou", summary.Current.Location)
	assert.Equal(t, 22, summary.Current.Temp)
	assert.Equal(t, "Partly cloudy", summary.Current.Condition)
	assert.Equal(t, 65, summary.Current.Humidity)
	assert.Equal(t, 12.3, summary.Current.WindSpeed)

	require.Len(t, summary.Forecast, 3)
	assert.Equal(t, "2026-01-17", summary.Forecast[1].Date)
	assert.Equal(t, 18, summary.Forecast[1].High)
	assert.Equal(t, 12, summary.Forecast[1].Low)
	assert.Equal(t, "Light rain", summary.Forecast[1].Condition)
	assert.Equal(t, 80, summary.Forecast[1].Precipitation)

	assert.Equal(t, 42, summary.AirQuality.AQI)
	assert.Equal(t, "Good", summary.AirQuality.Level)

	assert.Equal(t, "Hangzhou: Partly cloudy, 22°C, humidity 65%, air quality Good.", summary.Summary)
}

func TestGetSummary_UnknownCity(t *testing.T) {
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer geo.Close()

	svc := NewService(Config{GeocodingBaseURL: geo.URL})

	_, err := svc.GetSummary(context.Background(), "Atlantis")

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "Atlantis")
}

func TestGetSummary_UpstreamError(t *testing.T) {
	config := fixtureServers(t)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()
	config.AirQualityBaseURL = broken.URL

	svc := NewService(config)

	_, err := svc.GetSummary(context.Background(), "Hangzhou")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching air quality")
}

func TestConditionFor_UnknownCode(t *testing.T) {
	assert.Equal(t, "Clear", conditionFor(0))
	assert.Equal(t, "Unknown", conditionFor(42))
}

func TestAQILevel(t *testing.T) {
	assert.Equal(t, "Good", aqiLevel(10))
	assert.Equal(t, "Moderate", aqiLevel(75))
	assert.Equal(t, "Unhealthy for sensitive groups", aqiLevel(120))
	assert.Equal(t, "Unhealthy", aqiLevel(200))
}
