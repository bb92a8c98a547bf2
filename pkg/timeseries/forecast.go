package timeseries

import "time"

// Forecast extrapolates the series with an ordinary least-squares line over
// (index, value) and returns horizon future points. Timestamps continue the
// cadence of the series tail (the interval between the last two points).
// A series with fewer than two points has neither a slope nor a cadence, so
// the forecast is empty; likewise for a non-positive horizon.
func Forecast(series []DataPoint, horizon int) []DataPoint {
	n := len(series)
	if n < 2 || horizon <= 0 {
		return nil
	}

	slope, intercept := linearFit(series)

	step := series[n-1].Timestamp.Sub(series[n-2].Timestamp)
	if step <= 0 {
		step = time.Hour
	}

	out := make([]DataPoint, 0, horizon)
	last := series[n-1].Timestamp
	for k := 1; k <= horizon; k++ {
		x := float64(n - 1 + k)
		out = append(out, DataPoint{
			Timestamp: last.Add(time.Duration(k) * step),
			Value:     intercept + slope*x,
		})
	}
	return out
}

// linearFit computes the least-squares slope and intercept of value over
// point index.
func linearFit(series []DataPoint) (slope, intercept float64) {
	n := float64(len(series))

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range series {
		x := float64(i)
		sumX += x
		sumY += p.Value
		sumXY += x * p.Value
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
