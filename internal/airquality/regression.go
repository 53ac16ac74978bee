package airquality

// LeastSquares fits a first-degree line y = slope*x + intercept over the
// series, taking x as the index 0..n-1. The caller is responsible for
// ordering the series; the fit has no notion of time.
// A series shorter than 2 points returns (0, y0) degenerately.
func LeastSquares(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	if len(values) == 0 {
		return 0, 0
	}
	if len(values) == 1 {
		return 0, values[0]
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}

	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n

	return slope, intercept
}

// Extrapolate evaluates a fitted line at index x
func Extrapolate(slope, intercept, x float64) float64 {
	return slope*x + intercept
}

// Clip bounds v to [lo, hi]
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
