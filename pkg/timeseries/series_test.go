package timeseries_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentid-dev/agentid-core/pkg/timeseries"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestAggregate_HourBucketsSumAndSort(t *testing.T) {
	points := []timeseries.DataPoint{
		{Timestamp: ts("2026-03-10T14:45:00Z"), Value: 2},
		{Timestamp: ts("2026-03-10T13:10:00Z"), Value: 1},
		{Timestamp: ts("2026-03-10T14:05:00Z"), Value: 3},
	}

	got := timeseries.Aggregate(points, timeseries.PeriodHour)
	require.Len(t, got, 2)
	assert.Equal(t, ts("2026-03-10T13:00:00Z"), got[0].Timestamp)
	assert.Equal(t, 1.0, got[0].Value)
	assert.Equal(t, ts("2026-03-10T14:00:00Z"), got[1].Timestamp)
	assert.Equal(t, 5.0, got[1].Value)
}

func TestAggregate_SparseBucketsOmitGaps(t *testing.T) {
	points := []timeseries.DataPoint{
		{Timestamp: ts("2026-03-01T00:30:00Z"), Value: 1},
		{Timestamp: ts("2026-03-05T10:00:00Z"), Value: 1},
	}

	got := timeseries.Aggregate(points, timeseries.PeriodDay)
	// Four empty days between the two points produce no zero buckets.
	require.Len(t, got, 2)
	assert.Equal(t, ts("2026-03-01T00:00:00Z"), got[0].Timestamp)
	assert.Equal(t, ts("2026-03-05T00:00:00Z"), got[1].Timestamp)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Nil(t, timeseries.Aggregate(nil, timeseries.PeriodDay))
}

func TestBucketStart(t *testing.T) {
	// 2026-03-12 is a Thursday.
	at := ts("2026-03-12T15:42:10Z")

	tests := []struct {
		period timeseries.Period
		want   time.Time
	}{
		{timeseries.PeriodHour, ts("2026-03-12T15:00:00Z")},
		{timeseries.PeriodDay, ts("2026-03-12T00:00:00Z")},
		{timeseries.PeriodWeek, ts("2026-03-09T00:00:00Z")},
		{timeseries.PeriodMonth, ts("2026-03-01T00:00:00Z")},
	}
	for _, tc := range tests {
		t.Run(string(tc.period), func(t *testing.T) {
			assert.Equal(t, tc.want, timeseries.BucketStart(at, tc.period))
		})
	}
}

func TestBucketStart_WeekOnSundayRollsBackToMonday(t *testing.T) {
	// 2026-03-15 is a Sunday; its ISO week began Monday the 9th.
	got := timeseries.BucketStart(ts("2026-03-15T08:00:00Z"), timeseries.PeriodWeek)
	assert.Equal(t, ts("2026-03-09T00:00:00Z"), got)
}

func TestParsePeriod(t *testing.T) {
	p, err := timeseries.ParsePeriod("week")
	require.NoError(t, err)
	assert.Equal(t, timeseries.PeriodWeek, p)

	_, err = timeseries.ParsePeriod("fortnight")
	assert.Error(t, err)
}
