package timeseries

// Trend directions.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// stableBandPercent is the symmetric change band classified as stable.
const stableBandPercent = 5.0

// TrendResult summarizes a bucketed series.
type TrendResult struct {
	Direction     string  `json:"direction"`
	ChangePercent float64 `json:"change_percent"`
	Average       float64 `json:"average"`
	Min           float64 `json:"min"`
	Max           float64 `json:"max"`
}

// AnalyzeTrend computes summary statistics over an already-bucketed series.
// Change is (last-first)/first in percent; when the first bucket is zero the
// change is reported as 0 and the direction as stable, since a relative
// change from zero has no meaningful magnitude. Directions outside the
// stable band follow the sign of the change.
func AnalyzeTrend(series []DataPoint) TrendResult {
	if len(series) == 0 {
		return TrendResult{Direction: TrendStable}
	}

	first := series[0].Value
	last := series[len(series)-1].Value

	sum := 0.0
	min := series[0].Value
	max := series[0].Value
	for _, p := range series {
		sum += p.Value
		if p.Value < min {
			min = p.Value
		}
		if p.Value > max {
			max = p.Value
		}
	}

	result := TrendResult{
		Direction: TrendStable,
		Average:   sum / float64(len(series)),
		Min:       min,
		Max:       max,
	}

	if first == 0 {
		return result
	}

	result.ChangePercent = (last - first) / first * 100
	switch {
	case result.ChangePercent > stableBandPercent:
		result.Direction = TrendUp
	case result.ChangePercent < -stableBandPercent:
		result.Direction = TrendDown
	}
	return result
}

// Trend aggregates raw points into period buckets and analyzes the result.
func Trend(points []DataPoint, period Period) TrendResult {
	return AnalyzeTrend(Aggregate(points, period))
}
