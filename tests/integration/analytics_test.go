package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentid-dev/agentid-core/pkg/store"
	"github.com/agentid-dev/agentid-core/pkg/timeseries"
)

// TestAnalyticsOverEventHistory verifies the pipeline the analytics command
// runs: recorded events -> hourly buckets -> trend and forecast.
func TestAnalyticsOverEventHistory(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	s.issue(t, ctx, "cred_1", "agent_1", nil)

	// 1, 2 and 3 verifications across three consecutive hours.
	for hour, n := range []int{1, 2, 3} {
		s.clock = stackNow.Add(time.Duration(hour) * time.Hour)
		for i := 0; i < n; i++ {
			res := s.service.VerifyByID(ctx, "cred_1")
			require.True(t, res.Valid)
		}
	}
	s.drain()

	events, err := s.db.ListEvents(ctx, store.EventFilter{CredentialID: "cred_1"})
	require.NoError(t, err)
	require.Len(t, events, 6)

	points := make([]timeseries.DataPoint, 0, len(events))
	for _, ev := range events {
		points = append(points, timeseries.DataPoint{Timestamp: ev.VerifiedAt, Value: 1})
	}

	series := timeseries.Aggregate(points, timeseries.PeriodHour)
	require.Len(t, series, 3)
	assert.Equal(t, stackNow, series[0].Timestamp)
	assert.Equal(t, []float64{1, 2, 3},
		[]float64{series[0].Value, series[1].Value, series[2].Value})

	trend := timeseries.AnalyzeTrend(series)
	assert.Equal(t, timeseries.TrendUp, trend.Direction)
	assert.InDelta(t, 200.0, trend.ChangePercent, 0.001)
	assert.InDelta(t, 2.0, trend.Average, 0.001)

	forecast := timeseries.Forecast(series, 2)
	require.Len(t, forecast, 2)
	assert.Equal(t, series[2].Timestamp.Add(time.Hour), forecast[0].Timestamp)
	assert.InDelta(t, 4.0, forecast[0].Value, 0.001)
	assert.InDelta(t, 5.0, forecast[1].Value, 0.001)

	// A steady volume never alarms the detector.
	flagged := 0
	for _, p := range timeseries.DetectAnomalies(series, timeseries.AnomalyOptions{Window: 2, Threshold: 3}) {
		if p.IsAnomaly {
			flagged++
		}
	}
	assert.Zero(t, flagged)
}
