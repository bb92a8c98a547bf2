package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentid-dev/agentid-core/pkg/store"
	"github.com/agentid-dev/agentid-core/pkg/timeseries"
)

var (
	analyticsCredential string
	analyticsPeriod     string
	analyticsSince      string
	analyticsUntil      string
	analyticsFailures   bool
	analyticsJSON       bool
	analyticsHorizon    int
	analyticsWindow     int
	analyticsThreshold  float64
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Analyze verification activity",
	Long: `Analyze the stored verification event series.

Events are bucketed into --period intervals (hour, day, week or month) and
the bucket counts feed trend analysis, anomaly detection and forecasting.
Use --credential to scope to one credential and --failures to count only
failed verifications.`,
}

// loadSeries reads matching events and buckets them into per-period counts.
func loadSeries(rt *runtime) ([]timeseries.DataPoint, error) {
	period, err := timeseries.ParsePeriod(analyticsPeriod)
	if err != nil {
		return nil, err
	}

	filter := store.EventFilter{CredentialID: analyticsCredential}
	if analyticsSince != "" {
		t, err := time.Parse(time.RFC3339, analyticsSince)
		if err != nil {
			return nil, fmt.Errorf("invalid --since: %w", err)
		}
		filter.Since = t
	}
	if analyticsUntil != "" {
		t, err := time.Parse(time.RFC3339, analyticsUntil)
		if err != nil {
			return nil, fmt.Errorf("invalid --until: %w", err)
		}
		filter.Until = t
	}

	events, err := rt.db.ListEvents(context.Background(), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	points := make([]timeseries.DataPoint, 0, len(events))
	for _, ev := range events {
		if analyticsFailures && ev.Success {
			continue
		}
		points = append(points, timeseries.DataPoint{Timestamp: ev.VerifiedAt, Value: 1})
	}
	return timeseries.Aggregate(points, period), nil
}

var analyticsTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Summarize the verification volume trend",
	Example: `  # Daily volume trend over everything on record
  agentid analytics trend --period day

  # Hourly failure trend for one credential
  agentid analytics trend --period hour --credential cred_7f3d --failures`,
	RunE: func(_ *cobra.Command, _ []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		series, err := loadSeries(rt)
		rt.close()
		if err != nil {
			return err
		}

		result := timeseries.AnalyzeTrend(series)

		if analyticsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Printf("📈 Verification volume (%d %s buckets)\n", len(series), analyticsPeriod)
		fmt.Printf("   Direction: %s\n", result.Direction)
		fmt.Printf("   Change: %+.1f%%\n", result.ChangePercent)
		fmt.Printf("   Average: %.1f   Min: %.0f   Max: %.0f\n", result.Average, result.Min, result.Max)
		return nil
	},
}

var analyticsAnomaliesCmd = &cobra.Command{
	Use:   "anomalies",
	Short: "Detect unusual verification volumes",
	Long: `Flag buckets whose volume deviates from the preceding window by more
than the configured threshold. Sudden verification spikes often mean a
replayed or probed credential.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		series, err := loadSeries(rt)
		if err != nil {
			rt.close()
			return err
		}

		window := analyticsWindow
		if window == 0 {
			window = rt.cfg.Analytics.AnomalyWindow
		}
		threshold := analyticsThreshold
		if threshold == 0 {
			threshold = rt.cfg.Analytics.AnomalyThreshold
		}
		rt.close()

		flagged := timeseries.Anomalies(series, timeseries.AnomalyOptions{
			Window:    window,
			Threshold: threshold,
		})

		if analyticsJSON {
			if flagged == nil {
				flagged = []timeseries.AnomalyPoint{}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(flagged)
		}

		if len(flagged) == 0 {
			fmt.Printf("No anomalies across %d %s buckets.\n", len(series), analyticsPeriod)
			return nil
		}

		fmt.Printf("⚠️  %d anomalous bucket(s):\n", len(flagged))
		for _, p := range flagged {
			fmt.Printf("   %s: %.0f (expected %.1f, deviation %.1f)\n",
				p.Timestamp.Format(time.RFC3339), p.Value, p.Expected, p.Deviation)
		}
		return nil
	},
}

var analyticsForecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast verification volume",
	RunE: func(_ *cobra.Command, _ []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		series, err := loadSeries(rt)
		rt.close()
		if err != nil {
			return err
		}

		forecast := timeseries.Forecast(series, analyticsHorizon)

		if analyticsJSON {
			if forecast == nil {
				forecast = []timeseries.DataPoint{}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(forecast)
		}

		if len(forecast) == 0 {
			fmt.Println("Not enough history to forecast (need at least two buckets).")
			return nil
		}

		fmt.Printf("🔮 Projected volume, next %d %s bucket(s):\n", len(forecast), analyticsPeriod)
		for _, p := range forecast {
			fmt.Printf("   %s: %.1f\n", p.Timestamp.Format(time.RFC3339), p.Value)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsTrendCmd)
	analyticsCmd.AddCommand(analyticsAnomaliesCmd)
	analyticsCmd.AddCommand(analyticsForecastCmd)

	analyticsCmd.PersistentFlags().StringVar(&analyticsCredential, "credential", "", "Scope to one credential")
	analyticsCmd.PersistentFlags().StringVar(&analyticsPeriod, "period", "day", "Bucket period: hour, day, week or month")
	analyticsCmd.PersistentFlags().StringVar(&analyticsSince, "since", "", "Only events at or after this RFC3339 time")
	analyticsCmd.PersistentFlags().StringVar(&analyticsUntil, "until", "", "Only events before this RFC3339 time")
	analyticsCmd.PersistentFlags().BoolVar(&analyticsFailures, "failures", false, "Count only failed verifications")
	analyticsCmd.PersistentFlags().BoolVar(&analyticsJSON, "json", false, "Output as JSON")

	analyticsAnomaliesCmd.Flags().IntVar(&analyticsWindow, "window", 0, "Preceding-bucket window (default: from config)")
	analyticsAnomaliesCmd.Flags().Float64Var(&analyticsThreshold, "threshold", 0, "Deviation threshold (default: from config)")
	analyticsForecastCmd.Flags().IntVar(&analyticsHorizon, "horizon", 7, "Buckets to project forward")
}
