package config

import (
	"testing"
	"time"
)

func TestParseCities(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    []City
	}{
		{
			name: "single city",
			raw:  "Moscow:55.7558:37.6176",
			want: []City{{Name: "Moscow", Lat: 55.7558, Lon: 37.6176}},
		},
		{
			name: "multiple cities with spaces",
			raw:  "Delhi:28.6139:77.2090; Mumbai:19.0760:72.8777",
			want: []City{
				{Name: "Delhi", Lat: 28.6139, Lon: 77.2090},
				{Name: "Mumbai", Lat: 19.0760, Lon: 72.8777},
			},
		},
		{
			name: "trailing separator ignored",
			raw:  "Kazan:55.7887:49.1221;",
			want: []City{{Name: "Kazan", Lat: 55.7887, Lon: 49.1221}},
		},
		{
			name:    "missing longitude",
			raw:     "Moscow:55.7558",
			wantErr: true,
		},
		{
			name:    "non-numeric latitude",
			raw:     "Moscow:north:37.6176",
			wantErr: true,
		},
		{
			name:    "only separators",
			raw:     ";;",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cities, err := parseCities(tt.raw)

			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCities() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				return
			}

			if len(cities) != len(tt.want) {
				t.Fatalf("parseCities() returned %d cities, want %d", len(cities), len(tt.want))
			}

			for i, want := range tt.want {
				if cities[i] != want {
					t.Errorf("city[%d] = %+v, want %+v", i, cities[i], want)
				}
			}
		})
	}
}

func TestMonitoringLocations(t *testing.T) {
	m := MonitoringConfig{
		Cities: []City{{Name: "Moscow", Lat: 55.7558, Lon: 37.6176}},
	}

	locations := m.Locations()

	if len(locations) != 3 {
		t.Fatalf("Locations() returned %d points, want 3", len(locations))
	}

	center := locations[0]
	if center.Name != "Moscow (Center)" || center.Latitude != 55.7558 {
		t.Errorf("center = %+v", center)
	}

	north := locations[1]
	if north.Name != "Moscow (North)" || north.Latitude != 55.7558+0.1 {
		t.Errorf("north = %+v", north)
	}

	south := locations[2]
	if south.Name != "Moscow (South)" || south.Latitude != 55.7558-0.1 {
		t.Errorf("south = %+v", south)
	}

	for _, loc := range locations {
		if loc.Longitude != 37.6176 {
			t.Errorf("%s longitude = %v, want 37.6176", loc.Name, loc.Longitude)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Monitoring.Thresholds.Moderate != 100 {
		t.Errorf("moderate threshold = %d, want 100", cfg.Monitoring.Thresholds.Moderate)
	}

	if cfg.Monitoring.Thresholds.Unhealthy != 200 {
		t.Errorf("unhealthy threshold = %d, want 200", cfg.Monitoring.Thresholds.Unhealthy)
	}

	if got := len(cfg.Monitoring.Locations()); got != len(cfg.Monitoring.Cities)*3 {
		t.Errorf("locations = %d, want %d", got, len(cfg.Monitoring.Cities)*3)
	}

	if cfg.OpenMeteo.Timeout != 30*time.Second {
		t.Errorf("openmeteo timeout = %v, want 30s", cfg.OpenMeteo.Timeout)
	}
}

func TestLoadConfigCityOverride(t *testing.T) {
	t.Setenv("MONITOR_CITIES", "Pune:18.5204:73.8567")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if len(cfg.Monitoring.Cities) != 1 {
		t.Fatalf("cities = %d, want 1", len(cfg.Monitoring.Cities))
	}

	if cfg.Monitoring.Cities[0].Name != "Pune" {
		t.Errorf("city = %q, want Pune", cfg.Monitoring.Cities[0].Name)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"empty db host", func(c *Config) { c.Database.Host = "" }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"no cities", func(c *Config) { c.Monitoring.Cities = nil }},
		{"inverted thresholds", func(c *Config) { c.Monitoring.Thresholds.Unhealthy = 99 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig()
			if err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}

			tt.mutate(cfg)

			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid configuration")
			}
		})
	}
}
