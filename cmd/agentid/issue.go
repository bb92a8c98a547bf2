package main

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agentid-dev/agentid-core/pkg/credential"
	"github.com/agentid-dev/agentid-core/pkg/signature"
)

var (
	issueID        string
	issueAgentID   string
	issueAgentName string
	issueAgentType string
	issueIssuerID  string
	issuePerms     []string
	issueValidFor  time.Duration
	issueKeyFile   string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue and store a signed credential",
	Long: `Issue a credential for an agent, signed with the issuer's private key.

The signed payload is printed to stdout; agents present it for
self-contained verification. The credential is also stored, so it can be
verified by id and revoked later.`,
	Example: `  # Issue a one-year credential
  agentid issue --agent agent_7f3d --issuer issuer_acme --key acme.key.jwk

  # With display metadata and permissions
  agentid issue --agent agent_7f3d --agent-name "support-bot" --agent-type autonomous \
    --issuer issuer_acme --key acme.key.jwk --permissions read,write --valid-for 2160h`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if issueAgentID == "" {
			return fmt.Errorf("--agent is required")
		}
		if issueIssuerID == "" {
			return fmt.Errorf("--issuer is required")
		}

		keyData, err := os.ReadFile(issueKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read private key file: %w", err)
		}
		priv, err := signature.ParsePrivateKeyJWK(keyData)
		if err != nil {
			return fmt.Errorf("failed to parse private key: %w", err)
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		ctx := context.Background()

		// The signing key must be the issuer's registered key, or the
		// credential would never verify.
		issuer, err := rt.db.GetIssuer(ctx, issueIssuerID)
		if err != nil {
			return fmt.Errorf("failed to load issuer %q: %w", issueIssuerID, err)
		}
		pub := priv.Public().(ed25519.PublicKey)
		if issuer.PublicKey != signature.EncodePublicKey(pub) {
			return fmt.Errorf("private key does not match the registered key of issuer %q", issueIssuerID)
		}

		id := issueID
		if id == "" {
			id = "cred_" + uuid.NewString()
		}

		now := time.Now().UTC().Truncate(time.Second)
		cred := &credential.Credential{
			ID:          id,
			AgentID:     issueAgentID,
			AgentName:   issueAgentName,
			AgentType:   issueAgentType,
			IssuerID:    issueIssuerID,
			Status:      credential.StatusActive,
			ValidFrom:   now,
			ValidUntil:  now.Add(issueValidFor),
			Permissions: issuePerms,
			CreatedAt:   now,
		}

		sig, err := signature.SignPayload(cred.SigningPayload(), priv)
		if err != nil {
			return fmt.Errorf("failed to sign credential: %w", err)
		}
		cred.Signature = sig

		if err := rt.db.PutCredential(ctx, cred); err != nil {
			return fmt.Errorf("failed to store credential: %w", err)
		}

		payload := cred.SigningPayload()
		payload[signature.SignatureField] = sig
		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))

		fmt.Fprintf(os.Stderr, "\n📛 Credential issued:\n")
		fmt.Fprintf(os.Stderr, "   ID: %s\n", cred.ID)
		fmt.Fprintf(os.Stderr, "   Agent: %s\n", cred.AgentID)
		fmt.Fprintf(os.Stderr, "   Issuer: %s\n", cred.IssuerID)
		fmt.Fprintf(os.Stderr, "   Expires: %s\n", cred.ValidUntil.Format(time.RFC3339))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(issueCmd)

	issueCmd.Flags().StringVar(&issueID, "id", "", "Credential ID (default: cred_<uuid>)")
	issueCmd.Flags().StringVar(&issueAgentID, "agent", "", "Agent ID the credential is issued to")
	issueCmd.Flags().StringVar(&issueAgentName, "agent-name", "", "Agent display name")
	issueCmd.Flags().StringVar(&issueAgentType, "agent-type", "", "Agent type")
	issueCmd.Flags().StringVar(&issueIssuerID, "issuer", "", "Registered issuer ID")
	issueCmd.Flags().StringSliceVar(&issuePerms, "permissions", nil, "Granted permissions (comma-separated)")
	issueCmd.Flags().DurationVar(&issueValidFor, "valid-for", 365*24*time.Hour, "Validity window from now")
	issueCmd.Flags().StringVar(&issueKeyFile, "key", "private.jwk", "Path to the issuer's private key (JWK format)")
}
