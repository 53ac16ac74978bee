// Package airquality provides the pure numeric building blocks of the
// monitoring pipeline: AQI conversion, trend classification, anomaly
// detection, and the shared least-squares fit. No function here performs
// I/O or holds state.
package airquality

// breakpoint maps one PM2.5 concentration band to its AQI band
type breakpoint struct {
	concLow  float64
	concHigh float64
	aqiLow   float64
	aqiHigh  float64
}

// pm25Breakpoints are the interpolation bands, lowest first.
// The last band keeps extrapolating past its upper bound.
var pm25Breakpoints = []breakpoint{
	{0, 12.0, 0, 50},
	{12.1, 35.4, 50, 100},
	{35.5, 55.4, 100, 150},
	{55.5, 150.4, 150, 200},
	{150.5, 250.4, 200, 300},
	{250.5, 500.4, 300, 500},
}

// AQI converts a PM2.5 concentration (µg/m³) to an air quality index by
// piecewise-linear interpolation over the breakpoint bands. The result
// is truncated toward zero, not rounded. Negative input is treated as
// zero; input above the top breakpoint extrapolates on the last band's
// slope without an upper bound.
func AQI(pm25 float64) int {
	if pm25 < 0 {
		pm25 = 0
	}

	band := pm25Breakpoints[len(pm25Breakpoints)-1]
	for _, b := range pm25Breakpoints {
		if pm25 <= b.concHigh {
			band = b
			break
		}
	}

	return int(band.aqiLow + (band.aqiHigh-band.aqiLow)/(band.concHigh-band.concLow)*(pm25-band.concLow))
}
