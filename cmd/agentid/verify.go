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
	verifyPayloadFile string
	verifyJSON        bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [credential-id]",
	Short: "Verify a credential",
	Long: `Verify a stored credential by id, or a self-contained signed payload
from a file.

The exit code is 0 when the credential is valid and 1 otherwise; --json
prints the full result for scripting.`,
	Example: `  # Verify a stored credential
  agentid verify cred_7f3d

  # Verify a signed payload file
  agentid verify --payload credential.json

  # Machine-readable result
  agentid verify cred_7f3d --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if verifyPayloadFile == "" && len(args) == 0 {
			return fmt.Errorf("provide a credential id or --payload")
		}

		var payload map[string]any
		if verifyPayloadFile != "" {
			data, err := os.ReadFile(verifyPayloadFile)
			if err != nil {
				return fmt.Errorf("failed to read payload file: %w", err)
			}
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("failed to parse payload JSON: %w", err)
			}
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}

		var res *verify.Result
		if payload != nil {
			res = rt.service.VerifyPayload(context.Background(), payload)
		} else {
			res = rt.service.VerifyByID(context.Background(), args[0])
		}
		rt.close()

		if verifyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Valid {
				os.Exit(1)
			}
			return nil
		}

		if res.Valid {
			fmt.Printf("✅ Credential valid\n")
		} else {
			fmt.Printf("❌ Verification failed\n")
			fmt.Printf("   Error: %s\n", res.Code)
			fmt.Printf("   Message: %s\n", res.Message)
		}
		if res.CredentialID != "" {
			fmt.Printf("   Credential: %s\n", res.CredentialID)
		}
		if res.AgentID != "" {
			fmt.Printf("   Agent: %s\n", res.AgentID)
		}
		if res.Valid {
			fmt.Printf("   Issuer verified: %v\n", res.IssuerVerified)
			if res.TrustScore != nil {
				fmt.Printf("   Trust score: %d\n", *res.TrustScore)
			}
		}
		fmt.Printf("   Took: %dms\n", res.DurationMS)

		if !res.Valid {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyPayloadFile, "payload", "", "Path to a signed payload JSON file")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Output the result as JSON")
}
