package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentid-dev/agentid-core/pkg/signature"
	"github.com/agentid-dev/agentid-core/pkg/store"
)

var (
	issuerName     string
	issuerKeyFile  string
	issuerVerified bool
)

var issuerCmd = &cobra.Command{
	Use:   "issuer",
	Short: "Manage credential issuers",
}

var issuerAddCmd = &cobra.Command{
	Use:   "add [issuer-id]",
	Short: "Register an issuer and its verification key",
	Long: `Register an issuer so credentials it signs can be verified.

The key file may hold a public JWK (as written by keygen) or a bare
base64-encoded Ed25519 public key.`,
	Example: `  # Register a verified issuer from a keygen output file
  agentid issuer add issuer_acme --name "Acme Identity" --key acme.pub.jwk --verified`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		id := args[0]

		keyData, err := os.ReadFile(issuerKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read key file: %w", err)
		}
		pub, err := signature.DecodeAnyPublicKey(strings.TrimSpace(string(keyData)))
		if err != nil {
			return fmt.Errorf("failed to parse public key: %w", err)
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}

		err = rt.db.PutIssuer(context.Background(), &store.Issuer{
			ID:         id,
			Name:       issuerName,
			PublicKey:  signature.EncodePublicKey(pub),
			IsVerified: issuerVerified,
			CreatedAt:  time.Now().UTC(),
		})
		rt.close()
		if err != nil {
			return fmt.Errorf("failed to store issuer: %w", err)
		}

		fmt.Printf("✅ Issuer registered: %s\n", id)
		if issuerName != "" {
			fmt.Printf("   Name: %s\n", issuerName)
		}
		fmt.Printf("   Verified: %v\n", issuerVerified)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(issuerCmd)
	issuerCmd.AddCommand(issuerAddCmd)

	issuerAddCmd.Flags().StringVar(&issuerName, "name", "", "Issuer display name")
	issuerAddCmd.Flags().StringVar(&issuerKeyFile, "key", "public.jwk", "Path to the issuer's public key (JWK or base64)")
	issuerAddCmd.Flags().BoolVar(&issuerVerified, "verified", false, "Mark the issuer as verified")
}
