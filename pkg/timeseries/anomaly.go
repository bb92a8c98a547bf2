package timeseries

import (
	"math"
	"time"
)

// Default anomaly detection parameters. Both are deployment-tunable; the
// defaults flag values more than three window deviations from the rolling
// mean.
const (
	DefaultAnomalyWindow    = 5
	DefaultAnomalyThreshold = 3.0
)

// AnomalyOptions parameterizes detection. Window is the number of preceding
// points the expectation is computed from; Threshold is the deviation
// multiplier above which a point is flagged. Zero values select the
// defaults.
type AnomalyOptions struct {
	Window    int
	Threshold float64
}

// AnomalyPoint is one input point annotated with its expectation and
// deviation.
type AnomalyPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Expected  float64   `json:"expected"`
	Deviation float64   `json:"deviation"`
	IsAnomaly bool      `json:"is_anomaly"`
}

// DetectAnomalies annotates every point of the series. A point's expected
// value is the mean of the Window points before it; its deviation is the
// distance from that mean in units of the window's standard deviation. When
// the window has zero spread the spread floor is 1, so a spike after a flat
// run still registers. Points without a full preceding window are never
// flagged, which also means a series shorter than Window+1 yields zero
// anomalies. The function never fails on short input.
func DetectAnomalies(series []DataPoint, opts AnomalyOptions) []AnomalyPoint {
	window := opts.Window
	if window <= 0 {
		window = DefaultAnomalyWindow
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}

	out := make([]AnomalyPoint, len(series))
	for i, p := range series {
		out[i] = AnomalyPoint{Timestamp: p.Timestamp, Value: p.Value, Expected: p.Value}
		if i < window {
			continue
		}

		mean, std := meanStd(series[i-window : i])
		spread := std
		if spread == 0 {
			spread = 1
		}

		deviation := math.Abs(p.Value-mean) / spread
		out[i].Expected = mean
		out[i].Deviation = deviation
		out[i].IsAnomaly = deviation > threshold
	}
	return out
}

// Anomalies returns only the flagged points of DetectAnomalies.
func Anomalies(series []DataPoint, opts AnomalyOptions) []AnomalyPoint {
	var out []AnomalyPoint
	for _, p := range DetectAnomalies(series, opts) {
		if p.IsAnomaly {
			out = append(out, p)
		}
	}
	return out
}

// meanStd computes the mean and population standard deviation of a window.
func meanStd(window []DataPoint) (float64, float64) {
	if len(window) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, p := range window {
		sum += p.Value
	}
	mean := sum / float64(len(window))

	variance := 0.0
	for _, p := range window {
		d := p.Value - mean
		variance += d * d
	}
	variance /= float64(len(window))

	return mean, math.Sqrt(variance)
}
