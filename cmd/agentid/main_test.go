package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentid-dev/agentid-core/pkg/signature"
)

func TestCommandWiring(t *testing.T) {
	for _, path := range [][]string{
		{"keygen"},
		{"issuer", "add"},
		{"issue"},
		{"verify"},
		{"batch"},
		{"revoke"},
		{"reputation", "agent"},
		{"reputation", "issuer"},
		{"analytics", "trend"},
		{"analytics", "anomalies"},
		{"analytics", "forecast"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, "command %v", path)
		assert.Equal(t, path[len(path)-1], cmd.Name(), "command %v", path)
	}
}

func TestKeygenWritesMatchingPair(t *testing.T) {
	tmpDir := t.TempDir()
	keygenOutPrivate = filepath.Join(tmpDir, "issuer.key.jwk")
	keygenOutPublic = filepath.Join(tmpDir, "issuer.pub.jwk")
	keygenKeyID = "issuer-2026"

	require.NoError(t, keygenCmd.RunE(keygenCmd, nil))

	privData, err := os.ReadFile(keygenOutPrivate)
	require.NoError(t, err)
	priv, err := signature.ParsePrivateKeyJWK(privData)
	require.NoError(t, err)

	pubData, err := os.ReadFile(keygenOutPublic)
	require.NoError(t, err)
	pub, err := signature.ParsePublicKeyJWK(pubData)
	require.NoError(t, err)

	// The two files must hold the same pair.
	payload := map[string]any{"credential_id": "cred_1", "agent_id": "agent_1"}
	sig, err := signature.SignPayload(payload, priv)
	require.NoError(t, err)
	payload[signature.SignatureField] = sig
	assert.True(t, signature.VerifyPayloadWithKey(payload, pub))
}

func TestKeygenDefaultsKeyIDToUUID(t *testing.T) {
	tmpDir := t.TempDir()
	keygenOutPrivate = filepath.Join(tmpDir, "private.jwk")
	keygenOutPublic = filepath.Join(tmpDir, "public.jwk")
	keygenKeyID = ""

	require.NoError(t, keygenCmd.RunE(keygenCmd, nil))

	var jwkDoc struct {
		KID string `json:"kid"`
	}
	privData, err := os.ReadFile(keygenOutPrivate)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(privData, &jwkDoc))

	_, err = uuid.Parse(jwkDoc.KID)
	assert.NoError(t, err, "kid should default to a UUID, got %q", jwkDoc.KID)
}

func TestKeygenFilePermissions(t *testing.T) {
	tmpDir := t.TempDir()
	keygenOutPrivate = filepath.Join(tmpDir, "private.jwk")
	keygenOutPublic = filepath.Join(tmpDir, "public.jwk")
	keygenKeyID = ""

	require.NoError(t, keygenCmd.RunE(keygenCmd, nil))

	info, err := os.Stat(keygenOutPrivate)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	info, err = os.Stat(keygenOutPublic)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}
