package airquality

// Trend classifies the direction of a time series
type Trend string

const (
	TrendInsufficientData Trend = "insufficient_data"
	TrendIncreasing       Trend = "increasing"
	TrendDecreasing       Trend = "decreasing"
	TrendStable           Trend = "stable"
	TrendNoData           Trend = "no_data"
)

// trendSlopeThreshold is a fixed constant of the model, not tunable
// per pollutant.
const trendSlopeThreshold = 0.5

// ClassifyTrend fits a least-squares line over the series (x = index)
// and classifies its slope. Fewer than 2 points cannot define a
// direction and return TrendInsufficientData.
func ClassifyTrend(values []float64) Trend {
	if len(values) < 2 {
		return TrendInsufficientData
	}

	slope, _ := LeastSquares(values)

	switch {
	case slope > trendSlopeThreshold:
		return TrendIncreasing
	case slope < -trendSlopeThreshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}
