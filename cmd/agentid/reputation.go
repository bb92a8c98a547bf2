package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var reputationJSON bool

var reputationCmd = &cobra.Command{
	Use:   "reputation",
	Short: "Inspect agent and issuer trust scores",
}

var reputationAgentCmd = &cobra.Command{
	Use:   "agent [credential-id]",
	Short: "Show a credential's reputation",
	Long: `Show a credential's reputation with the time-sensitive subscores
recomputed as of now. A credential that has never been verified reports
its neutral baseline.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}

		rep, err := rt.engine.CredentialReputation(context.Background(), args[0])
		rt.close()
		if err != nil {
			return err
		}

		if reputationJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}

		fmt.Printf("📊 Reputation for %s\n", rep.CredentialID)
		fmt.Printf("   Agent: %s\n", rep.AgentID)
		fmt.Printf("   Trust score: %d\n", rep.TrustScore)
		fmt.Printf("   Verification: %d   Longevity: %d   Activity: %d\n",
			rep.VerificationScore, rep.LongevityScore, rep.ActivityScore)
		fmt.Printf("   Verifications: %d total, %d ok, %d failed\n",
			rep.TotalVerifications, rep.SuccessfulVerifications, rep.FailedVerifications)
		if !rep.LastVerificationAt.IsZero() {
			fmt.Printf("   Last verified: %s\n", rep.LastVerificationAt.Format(time.RFC3339))
		}
		return nil
	},
}

var reputationIssuerCmd = &cobra.Command{
	Use:   "issuer [issuer-id]",
	Short: "Show an issuer's aggregate trust",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}

		rep, err := rt.engine.IssuerReputation(context.Background(), args[0])
		rt.close()
		if err != nil {
			return err
		}

		if reputationJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}

		fmt.Printf("📊 Issuer trust for %s\n", rep.IssuerID)
		fmt.Printf("   Trust score: %d\n", rep.TrustScore)
		fmt.Printf("   Credentials: %d (%d revoked)\n", rep.CredentialCount, rep.RevokedCount)
		fmt.Printf("   Verifications: %d total, %d ok\n", rep.TotalVerifications, rep.SuccessfulVerifications)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reputationCmd)
	reputationCmd.AddCommand(reputationAgentCmd)
	reputationCmd.AddCommand(reputationIssuerCmd)

	reputationCmd.PersistentFlags().BoolVar(&reputationJSON, "json", false, "Output as JSON")
}
