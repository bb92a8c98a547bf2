package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agentid-dev/agentid-core/pkg/signature"
)

var (
	keygenOutPrivate string
	keygenOutPublic  string
	keygenKeyID      string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new Ed25519 key pair",
	Long: `Generate a new Ed25519 key pair for credential signing.

Outputs:
  - Private key in JWK format (for signing credentials)
  - Public key in JWK format (for issuer registration)`,
	Example: `  # Generate keys with default names
  agentid keygen

  # Generate keys for a named issuer key
  agentid keygen --out-priv acme.key.jwk --out-pub acme.pub.jwk --kid acme-2026`,
	RunE: func(_ *cobra.Command, _ []string) error {
		pub, priv, err := signature.GenerateKeyPair()
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}

		kid := keygenKeyID
		if kid == "" {
			kid = uuid.NewString()
		}

		privBytes, err := signature.MarshalPrivateKeyJWK(priv, kid)
		if err != nil {
			return err
		}
		if err := os.WriteFile(keygenOutPrivate, privBytes, 0600); err != nil {
			return fmt.Errorf("failed to write private key: %w", err)
		}
		fmt.Printf("✅ Private key saved to %s\n", keygenOutPrivate)

		pubBytes, err := signature.MarshalPublicKeyJWK(pub, kid)
		if err != nil {
			return err
		}
		if err := os.WriteFile(keygenOutPublic, pubBytes, 0644); err != nil {
			return fmt.Errorf("failed to write public key: %w", err)
		}
		fmt.Printf("✅ Public key saved to %s\n", keygenOutPublic)

		fmt.Printf("🔑 Key ID: %s\n", kid)
		fmt.Printf("🔑 Public key (base64): %s\n", signature.EncodePublicKey(pub))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVar(&keygenOutPrivate, "out-priv", "private.jwk", "Output path for private key (JWK format)")
	keygenCmd.Flags().StringVar(&keygenOutPublic, "out-pub", "public.jwk", "Output path for public key (JWK format)")
	keygenCmd.Flags().StringVar(&keygenKeyID, "kid", "", "Key ID to embed in the JWKs (default: random UUID)")
}
