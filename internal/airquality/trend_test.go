package airquality

import "testing"

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Trend
	}{
		{name: "empty series", values: nil, want: TrendInsufficientData},
		{name: "single point", values: []float64{42}, want: TrendInsufficientData},
		{name: "unit slope is increasing", values: []float64{1, 2, 3, 4, 5}, want: TrendIncreasing},
		{name: "steep decline is decreasing", values: []float64{10, 8, 6, 4, 2}, want: TrendDecreasing},
		{name: "constant series is stable", values: []float64{5, 5, 5, 5}, want: TrendStable},
		{name: "noise around a level is stable", values: []float64{5, 5.2, 4.9, 5.1, 5.0}, want: TrendStable},
		{name: "slope exactly at threshold is stable", values: []float64{0, 0.5, 1.0, 1.5}, want: TrendStable},
		{name: "slope exactly at negative threshold is stable", values: []float64{1.5, 1.0, 0.5, 0}, want: TrendStable},
		{name: "two points suffice for a direction", values: []float64{10, 20}, want: TrendIncreasing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTrend(tt.values); got != tt.want {
				t.Errorf("ClassifyTrend(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}
