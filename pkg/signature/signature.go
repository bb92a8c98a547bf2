// Package signature implements ed25519 signing and verification over
// canonical JSON credential payloads.
//
// Verification is fail-closed: VerifyPayload collapses every failure mode
// (malformed base64, wrong key size, unserializable payload, signature
// mismatch) into false. Callers never learn which step failed, so the result
// cannot be used as a format oracle.
package signature

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"

	"github.com/agentid-dev/agentid-core/pkg/canonical"
)

// SignatureField is the top-level payload member that carries the signature.
// It is excluded from the signed byte range.
const SignatureField = "signature"

var (
	ErrInvalidPrivateKey = errors.New("invalid ed25519 private key")
	ErrInvalidPublicKey  = errors.New("invalid ed25519 public key")
)

// SigningBytes returns the canonical byte range covered by a payload
// signature: the canonical JSON of the payload with the signature member
// removed. The input map is not mutated.
func SigningBytes(payload map[string]any) ([]byte, error) {
	return signingBytes(payload)
}

// SignPayload signs the canonical form of payload (minus its signature
// member) and returns the signature in standard base64.
func SignPayload(payload map[string]any, privateKey ed25519.PrivateKey) (string, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return "", ErrInvalidPrivateKey
	}

	message, err := signingBytes(payload)
	if err != nil {
		return "", err
	}

	sig := ed25519.Sign(privateKey, message)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyPayload checks the payload's embedded signature against the issuer
// public key (standard base64, 32 bytes). Returns true only when the
// signature is present, well-formed and valid for the canonical payload
// bytes; every failure returns false.
func VerifyPayload(payload map[string]any, publicKey string) bool {
	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return false
	}
	return VerifyPayloadWithKey(payload, pub)
}

// VerifyPayloadWithKey is VerifyPayload for a key that is already decoded.
func VerifyPayloadWithKey(payload map[string]any, publicKey ed25519.PublicKey) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}

	raw, ok := payload[SignatureField].(string)
	if !ok || raw == "" {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}

	message, err := signingBytes(payload)
	if err != nil {
		return false
	}

	return ed25519.Verify(publicKey, message, sig)
}

func signingBytes(payload map[string]any) ([]byte, error) {
	body := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == SignatureField {
			continue
		}
		body[k] = v
	}
	return canonical.Marshal(body)
}
