package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v4"
)

// ErrUnsupportedKeyType is returned for JWKs that are not Ed25519 (OKP).
var ErrUnsupportedKeyType = fmt.Errorf("unsupported key type, want Ed25519")

// GenerateKeyPair creates a fresh ed25519 key pair from crypto/rand.
func GenerateKeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key pair: %w", err)
	}
	return pub, priv, nil
}

// EncodePublicKey renders a public key in the standard base64 form issuer
// records carry.
func EncodePublicKey(publicKey ed25519.PublicKey) string {
	return base64.StdEncoding.EncodeToString(publicKey)
}

// ParsePublicKey decodes a standard-base64 public key and checks its size.
func ParsePublicKey(encoded string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPublicKey, len(raw), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(raw), nil
}

// ParsePublicKeyJWK decodes an Ed25519 public key from a JWK document
// (kty "OKP", crv "Ed25519").
func ParsePublicKeyJWK(data []byte) (ed25519.PublicKey, error) {
	var jwk jose.JSONWebKey
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("parse JWK: %w", err)
	}

	pub, ok := jwk.Key.(ed25519.PublicKey)
	if !ok {
		return nil, ErrUnsupportedKeyType
	}
	if len(pub) != ed25519.PublicKeySize {
		return nil, ErrInvalidPublicKey
	}
	return pub, nil
}

// ParsePrivateKeyJWK decodes an Ed25519 private key from a JWK document.
func ParsePrivateKeyJWK(data []byte) (ed25519.PrivateKey, error) {
	var jwk jose.JSONWebKey
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("parse JWK: %w", err)
	}

	priv, ok := jwk.Key.(ed25519.PrivateKey)
	if !ok {
		return nil, ErrUnsupportedKeyType
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrInvalidPrivateKey
	}
	return priv, nil
}

// MarshalPublicKeyJWK renders a public key as a signing JWK.
func MarshalPublicKeyJWK(publicKey ed25519.PublicKey, keyID string) ([]byte, error) {
	jwk := jose.JSONWebKey{Key: publicKey, KeyID: keyID, Algorithm: string(jose.EdDSA), Use: "sig"}
	data, err := jwk.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal public JWK: %w", err)
	}
	return data, nil
}

// MarshalPrivateKeyJWK renders a private key as a signing JWK. The output
// contains secret material and must be handled accordingly.
func MarshalPrivateKeyJWK(privateKey ed25519.PrivateKey, keyID string) ([]byte, error) {
	jwk := jose.JSONWebKey{Key: privateKey, KeyID: keyID, Algorithm: string(jose.EdDSA), Use: "sig"}
	data, err := jwk.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal private JWK: %w", err)
	}
	return data, nil
}

// DecodeAnyPublicKey accepts the two key encodings issuer records appear in:
// standard base64 of the raw 32 bytes, or a JWK document.
func DecodeAnyPublicKey(encoded string) (ed25519.PublicKey, error) {
	trimmed := strings.TrimSpace(encoded)
	if strings.HasPrefix(trimmed, "{") {
		return ParsePublicKeyJWK([]byte(trimmed))
	}
	return ParsePublicKey(trimmed)
}
