package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentid-dev/agentid-core/pkg/credential"
	"github.com/agentid-dev/agentid-core/pkg/store"
)

var revokeStatus string

var revokeCmd = &cobra.Command{
	Use:   "revoke [credential-id]",
	Short: "Revoke a credential",
	Long: `Set a credential's lifecycle status. The default marks it revoked;
--status suspends or restores it instead.

The change takes effect on the next verification, including verifications
of replayed payloads that still embed the old status.`,
	Example: `  # Revoke permanently
  agentid revoke cred_7f3d

  # Suspend and later restore
  agentid revoke cred_7f3d --status suspended
  agentid revoke cred_7f3d --status active`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id := args[0]
		status := credential.Status(revokeStatus)
		if !status.Known() {
			return fmt.Errorf("unknown status %q (use active, suspended, expired or revoked)", revokeStatus)
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		ctx := context.Background()
		if err := rt.db.SetCredentialStatus(ctx, id, status); err != nil {
			if errors.Is(err, store.ErrCredentialNotFound) {
				return fmt.Errorf("credential not found: %s", id)
			}
			return fmt.Errorf("failed to update status: %w", err)
		}
		rt.service.InvalidateCredential(id)

		// Fold the status change into the issuer aggregate right away.
		if cred, err := rt.db.GetCredential(ctx, id); err == nil {
			if err := rt.engine.RefreshIssuer(ctx, cred.IssuerID); err != nil {
				fmt.Fprintf(os.Stderr, "⚠️  issuer aggregate refresh failed: %v\n", err)
			}
		}

		fmt.Printf("✅ Credential %s is now %s\n", id, status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(revokeCmd)

	revokeCmd.Flags().StringVar(&revokeStatus, "status", string(credential.StatusRevoked), "Target status: active, suspended, expired or revoked")
}
