// Package timeseries implements the analytics suite over verification
// activity: bucketed aggregation, trend analysis, anomaly detection and
// linear forecasting. All functions are pure and deterministic; callers
// bring their own points.
package timeseries

import (
	"fmt"
	"sort"
	"time"
)

// DataPoint is one raw or bucketed observation.
type DataPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// Period selects the aggregation bucket width.
type Period string

const (
	PeriodHour  Period = "hour"
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name from an external boundary.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	switch p {
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// BucketStart returns the UTC start of the bucket containing t. Weeks start
// on Monday, months on the first. Unknown periods fall back to day buckets.
func BucketStart(t time.Time, period Period) time.Time {
	u := t.UTC()
	switch period {
	case PeriodHour:
		return u.Truncate(time.Hour)
	case PeriodWeek:
		daysPastMonday := (int(u.Weekday()) + 6) % 7
		monday := u.AddDate(0, 0, -daysPastMonday)
		return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodMonth:
		return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// Aggregate groups points into period buckets keyed by bucket start, summing
// values per bucket. The result is ascending by timestamp and sparse: buckets
// with no points are omitted, never zero-filled, so gaps in activity stay
// visible to downstream analysis.
func Aggregate(points []DataPoint, period Period) []DataPoint {
	if len(points) == 0 {
		return nil
	}

	sums := make(map[time.Time]float64)
	for _, p := range points {
		sums[BucketStart(p.Timestamp, period)] += p.Value
	}

	out := make([]DataPoint, 0, len(sums))
	for ts, v := range sums {
		out = append(out, DataPoint{Timestamp: ts, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
