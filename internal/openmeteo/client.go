// Package openmeteo fetches hourly air quality and weather series from
// the Open-Meteo public APIs.
package openmeteo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"eco-monitor/internal/config"
	"eco-monitor/internal/models"
	"eco-monitor/pkg/logging"
)

// hourlyTimeLayout is the timestamp format of hourly series when the
// timezone query parameter is UTC
const hourlyTimeLayout = "2006-01-02T15:04"

// HourlyAirQuality holds parallel hourly arrays. A nil entry is a gap
// reported by the upstream source.
type HourlyAirQuality struct {
	Time            []string   `json:"time"`
	PM25            []*float64 `json:"pm2_5"`
	PM10            []*float64 `json:"pm10"`
	CarbonMonoxide  []*float64 `json:"carbon_monoxide"`
	NitrogenDioxide []*float64 `json:"nitrogen_dioxide"`
	Ozone           []*float64 `json:"ozone"`
}

// AirQualityResponse is the air quality API response envelope
type AirQualityResponse struct {
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	Hourly    *HourlyAirQuality `json:"hourly"`
}

// HourlyWeather holds parallel hourly weather arrays
type HourlyWeather struct {
	Time               []string   `json:"time"`
	Temperature2M      []*float64 `json:"temperature_2m"`
	RelativeHumidity2M []*float64 `json:"relative_humidity_2m"`
	WindSpeed10M       []*float64 `json:"windspeed_10m"`
}

// WeatherResponse is the weather forecast API response envelope
type WeatherResponse struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Hourly    *HourlyWeather `json:"hourly"`
}

// Client calls the two Open-Meteo APIs. Air quality and weather live on
// different hosts, so each gets its own resty client.
type Client struct {
	airQuality *resty.Client
	weather    *resty.Client
	logger     *logging.StructuredLogger
}

// NewClient creates an Open-Meteo client
func NewClient(cfg config.OpenMeteoConfig, logger *logging.StructuredLogger) *Client {
	newRestyClient := func(baseURL string) *resty.Client {
		return resty.New().
			SetBaseURL(baseURL).
			SetTimeout(cfg.Timeout).
			SetRetryCount(cfg.RetryCount).
			SetRetryWaitTime(1 * time.Second).
			SetRetryMaxWaitTime(5 * time.Second).
			SetHeader("Accept", "application/json")
	}

	return &Client{
		airQuality: newRestyClient(cfg.AirQualityBaseURL),
		weather:    newRestyClient(cfg.WeatherBaseURL),
		logger:     logger,
	}
}

// FetchAirQuality retrieves one day of hourly pollutant readings for a
// coordinate
func (c *Client) FetchAirQuality(ctx context.Context, lat, lon float64) (*AirQualityResponse, error) {
	var out AirQualityResponse
	resp, err := c.airQuality.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":      formatCoord(lat),
			"longitude":     formatCoord(lon),
			"hourly":        "pm10,pm2_5,carbon_monoxide,nitrogen_dioxide,ozone",
			"timezone":      "UTC",
			"forecast_days": "1",
		}).
		SetResult(&out).
		Get("/v1/air-quality")

	if err != nil {
		return nil, &models.ExternalServiceError{Service: "openmeteo_air_quality", Err: err}
	}

	if resp.IsError() {
		return nil, &models.ExternalServiceError{
			Service: "openmeteo_air_quality",
			Err:     fmt.Errorf("unexpected status %s", resp.Status()),
		}
	}

	c.logger.Debug(ctx, "[OPENMETEO_AIR] Air quality fetched", logging.Fields{
		"latitude":  lat,
		"longitude": lon,
		"hours":     hourCount(out.Hourly),
	})

	return &out, nil
}

// FetchWeather retrieves one day of hourly weather readings for a
// coordinate
func (c *Client) FetchWeather(ctx context.Context, lat, lon float64) (*WeatherResponse, error) {
	var out WeatherResponse
	resp, err := c.weather.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":      formatCoord(lat),
			"longitude":     formatCoord(lon),
			"hourly":        "temperature_2m,relative_humidity_2m,windspeed_10m",
			"timezone":      "UTC",
			"forecast_days": "1",
		}).
		SetResult(&out).
		Get("/v1/forecast")

	if err != nil {
		return nil, &models.ExternalServiceError{Service: "openmeteo_weather", Err: err}
	}

	if resp.IsError() {
		return nil, &models.ExternalServiceError{
			Service: "openmeteo_weather",
			Err:     fmt.Errorf("unexpected status %s", resp.Status()),
		}
	}

	return &out, nil
}

// ParseHourlyTime parses an hourly series timestamp as UTC
func ParseHourlyTime(s string) (time.Time, error) {
	return time.Parse(hourlyTimeLayout, s)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func hourCount(h *HourlyAirQuality) int {
	if h == nil {
		return 0
	}
	return len(h.Time)
}
