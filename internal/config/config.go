package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, loaded once at startup and
// passed into components as an immutable value.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Logging    LoggingConfig
	OpenMeteo  OpenMeteoConfig
	Narrative  NarrativeConfig
	Monitoring MonitoringConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string
}

// OpenMeteoConfig holds upstream readings source settings
type OpenMeteoConfig struct {
	AirQualityBaseURL string
	WeatherBaseURL    string
	Timeout           time.Duration
	RetryCount        int
}

// NarrativeConfig holds text-generation service settings.
// An empty APIKey disables the external call; engines fall back
// to fixed narrative text.
type NarrativeConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// MonitoringConfig holds the monitored city set and AQI thresholds
type MonitoringConfig struct {
	Cities     []City
	Thresholds AQIThresholds
}

// City is a monitored city center point
type City struct {
	Name string
	Lat  float64
	Lon  float64
}

// Location is a single monitoring point derived from a city
type Location struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// AQIThresholds holds the category boundaries used by the alerting rules
type AQIThresholds struct {
	Good               int
	Moderate           int
	UnhealthySensitive int
	Unhealthy          int
	VeryUnhealthy      int
}

// defaultCities is the built-in monitored set, overridable via MONITOR_CITIES
var defaultCities = []City{
	{Name: "Moscow", Lat: 55.7558, Lon: 37.6176},
	{Name: "Saint Petersburg", Lat: 59.9311, Lon: 30.3609},
	{Name: "Novosibirsk", Lat: 55.0084, Lon: 82.9357},
	{Name: "Yekaterinburg", Lat: 56.8389, Lon: 60.6057},
	{Name: "Kazan", Lat: 55.7887, Lon: 49.1221},
	{Name: "Nizhny Novgorod", Lat: 56.2965, Lon: 43.9361},
	{Name: "Chelyabinsk", Lat: 55.1644, Lon: 61.4368},
	{Name: "Samara", Lat: 53.1959, Lon: 50.1002},
	{Name: "Ufa", Lat: 54.7388, Lon: 55.9721},
	{Name: "Rostov-on-Don", Lat: 47.2357, Lon: 39.7015},
	{Name: "Delhi", Lat: 28.6139, Lon: 77.2090},
	{Name: "Mumbai", Lat: 19.0760, Lon: 72.8777},
	{Name: "Kolkata", Lat: 22.5726, Lon: 88.3639},
	{Name: "Bangalore", Lat: 12.9716, Lon: 77.5946},
	{Name: "Chennai", Lat: 13.0827, Lon: 80.2707},
	{Name: "Hyderabad", Lat: 17.3850, Lon: 78.4867},
	{Name: "Ahmedabad", Lat: 23.0225, Lon: 72.5714},
	{Name: "Pune", Lat: 18.5204, Lon: 73.8567},
}

// LoadConfig loads configuration from environment variables,
// reading a .env file first if one is present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cities := defaultCities
	if raw := getEnv("MONITOR_CITIES", ""); raw != "" {
		parsed, err := parseCities(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MONITOR_CITIES: %w", err)
		}
		cities = parsed
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "ecomonitor"),
			Password:        getEnv("DB_PASSWORD", "ecomonitor"),
			Database:        getEnv("DB_NAME", "eco_monitoring"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		OpenMeteo: OpenMeteoConfig{
			AirQualityBaseURL: getEnv("OPENMETEO_AIR_QUALITY_URL", "https://air-quality-api.open-meteo.com"),
			WeatherBaseURL:    getEnv("OPENMETEO_WEATHER_URL", "https://api.open-meteo.com"),
			Timeout:           getEnvAsDuration("OPENMETEO_TIMEOUT", 30*time.Second),
			RetryCount:        getEnvAsInt("OPENMETEO_RETRY_COUNT", 2),
		},
		Narrative: NarrativeConfig{
			BaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com"),
			APIKey:      getEnv("GROQ_API_KEY", ""),
			Model:       getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			Timeout:     getEnvAsDuration("GROQ_TIMEOUT", 30*time.Second),
			Temperature: getEnvAsFloat("GROQ_TEMPERATURE", 0.3),
			MaxTokens:   getEnvAsInt("GROQ_MAX_TOKENS", 1024),
		},
		Monitoring: MonitoringConfig{
			Cities: cities,
			Thresholds: AQIThresholds{
				Good:               50,
				Moderate:           100,
				UnhealthySensitive: 150,
				Unhealthy:          200,
				VeryUnhealthy:      300,
			},
		},
	}

	return cfg, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("max open connections must be positive: %d", c.Database.MaxOpenConns)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %q", c.Logging.Level)
	}

	if len(c.Monitoring.Cities) == 0 {
		return fmt.Errorf("at least one monitored city is required")
	}

	t := c.Monitoring.Thresholds
	if !(t.Good < t.Moderate && t.Moderate < t.UnhealthySensitive && t.UnhealthySensitive < t.Unhealthy && t.Unhealthy < t.VeryUnhealthy) {
		return fmt.Errorf("AQI thresholds must be strictly ascending")
	}

	return nil
}

// Locations expands each city into its monitoring points.
// Every city gets a center point plus offset points 0.1 degrees
// north and south of it.
func (m MonitoringConfig) Locations() []Location {
	locations := make([]Location, 0, len(m.Cities)*3)

	for _, city := range m.Cities {
		locations = append(locations,
			Location{Name: city.Name + " (Center)", Latitude: city.Lat, Longitude: city.Lon},
			Location{Name: city.Name + " (North)", Latitude: city.Lat + 0.1, Longitude: city.Lon},
			Location{Name: city.Name + " (South)", Latitude: city.Lat - 0.1, Longitude: city.Lon},
		)
	}

	return locations
}

// parseCities parses the MONITOR_CITIES override.
// Format: "Name:lat:lon;Name:lat:lon"
func parseCities(raw string) ([]City, error) {
	entries := strings.Split(raw, ";")
	cities := make([]City, 0, len(entries))

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("expected name:lat:lon, got %q", entry)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", entry, err)
		}

		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", entry, err)
		}

		cities = append(cities, City{
			Name: strings.TrimSpace(parts[0]),
			Lat:  lat,
			Lon:  lon,
		})
	}

	if len(cities) == 0 {
		return nil, fmt.Errorf("no cities parsed from %q", raw)
	}

	return cities, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
