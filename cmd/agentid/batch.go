package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentid-dev/agentid-core/pkg/verify"
)

var (
	batchFailFast    bool
	batchConcurrency int
	batchDetails     bool
	batchJSON        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch [request-file]",
	Short: "Verify a batch of credentials",
	Long: `Verify a batch of credentials from a request file.

The file holds a JSON array of request items; each item carries either a
"credential_id" or a self-contained signed "payload":

  [
    {"credential_id": "cred_7f3d"},
    {"payload": {"credential_id": "cred_9a1c", ...}}
  ]

Items are verified in parallel by default. The exit code is 0 only when
every item is valid.`,
	Example: `  # Verify a batch with the default worker pool
  agentid batch requests.json

  # Stop at the first invalid credential
  agentid batch requests.json --fail-fast

  # Machine-readable results with resolved credentials attached
  agentid batch requests.json --details --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read request file: %w", err)
		}
		var requests []verify.Request
		if err := json.Unmarshal(data, &requests); err != nil {
			return fmt.Errorf("failed to parse request file: %w", err)
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}

		result, err := rt.service.VerifyBatch(context.Background(), requests, verify.BatchOptions{
			FailFast:       batchFailFast,
			IncludeDetails: batchDetails,
			Concurrency:    batchConcurrency,
		})
		rt.close()
		if err != nil {
			return err
		}

		if batchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return err
			}
			if result.Summary.Invalid > 0 {
				os.Exit(1)
			}
			return nil
		}

		for _, item := range result.Results {
			if item.Valid {
				fmt.Printf("✅ [%d] %s\n", item.Index, item.CredentialID)
			} else {
				fmt.Printf("❌ [%d] %s: %s\n", item.Index, item.CredentialID, item.Code)
			}
		}
		fmt.Printf("\nTotal: %d   Valid: %d   Invalid: %d\n",
			result.Summary.Total, result.Summary.Valid, result.Summary.Invalid)

		if result.Summary.Invalid > 0 {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().BoolVar(&batchFailFast, "fail-fast", false, "Stop at the first invalid credential")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "Worker count (default: from config)")
	batchCmd.Flags().BoolVar(&batchDetails, "details", false, "Attach resolved credentials to valid results")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "Output results as JSON")
}
