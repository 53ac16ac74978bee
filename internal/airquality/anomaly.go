package airquality

import "math"

// DefaultAnomalyThreshold is the z-score above which a point is
// considered anomalous.
const DefaultAnomalyThreshold = 2.0

// DetectAnomalies flags indices whose z-score against the population
// mean and population standard deviation exceeds the threshold. Fewer
// than 3 points, or a series with zero variance, yields no anomalies.
func DetectAnomalies(values []float64, threshold float64) []int {
	if len(values) < 3 {
		return nil
	}

	n := float64(len(values))

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / n)

	if std == 0 {
		return nil
	}

	var anomalies []int
	for i, v := range values {
		if math.Abs(v-mean)/std > threshold {
			anomalies = append(anomalies, i)
		}
	}

	return anomalies
}
