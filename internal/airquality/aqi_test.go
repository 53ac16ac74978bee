package airquality

import "testing"

func TestAQI(t *testing.T) {
	tests := []struct {
		name string
		pm25 float64
		want int
	}{
		{name: "zero concentration", pm25: 0.0, want: 0},
		{name: "good band interior", pm25: 5.0, want: 20},
		{name: "good band truncates toward zero", pm25: 10.0, want: 41},
		{name: "good band upper boundary", pm25: 12.0, want: 50},
		{name: "moderate band lower boundary", pm25: 12.1, want: 50},
		{name: "moderate band interior", pm25: 20.0, want: 66},
		{name: "moderate band upper boundary", pm25: 35.4, want: 100},
		{name: "sensitive band lower boundary", pm25: 35.5, want: 100},
		{name: "sensitive band interior", pm25: 40.0, want: 111},
		{name: "sensitive band upper boundary", pm25: 55.4, want: 150},
		{name: "unhealthy band lower boundary", pm25: 55.5, want: 150},
		{name: "unhealthy band interior", pm25: 75.0, want: 160},
		{name: "unhealthy band top truncates below 200", pm25: 150.0, want: 199},
		{name: "unhealthy band upper boundary", pm25: 150.4, want: 200},
		{name: "very unhealthy band lower boundary", pm25: 150.5, want: 200},
		{name: "very unhealthy band interior", pm25: 155.0, want: 204},
		{name: "very unhealthy band midpoint", pm25: 200.0, want: 249},
		{name: "very unhealthy band upper boundary", pm25: 250.4, want: 300},
		{name: "hazardous band lower boundary", pm25: 250.5, want: 300},
		{name: "hazardous band interior", pm25: 300.0, want: 339},
		{name: "hazardous band upper boundary", pm25: 500.4, want: 500},
		{name: "extrapolates past top breakpoint unclamped", pm25: 600.0, want: 579},
		{name: "negative input treated as zero", pm25: -5.0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AQI(tt.pm25); got != tt.want {
				t.Errorf("AQI(%v) = %v, want %v", tt.pm25, got, tt.want)
			}
		})
	}
}
