// Package store defines the persistence interfaces the verification core
// depends on, the rows they exchange, and an in-memory implementation used
// by tests and single-process deployments.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/agentid-dev/agentid-core/pkg/credential"
)

var (
	// ErrCredentialNotFound is returned when no credential has the given id.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrIssuerNotFound is returned when no issuer has the given id.
	ErrIssuerNotFound = errors.New("issuer not found")

	// ErrReputationNotFound is returned when no reputation row exists yet.
	ErrReputationNotFound = errors.New("reputation not found")
)

// Issuer is a credential-issuing authority. PublicKey holds the ed25519
// verification key as standard base64 or a JWK document.
type Issuer struct {
	ID         string    `json:"issuer_id"`
	Name       string    `json:"name"`
	PublicKey  string    `json:"public_key"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// AgentReputation is the per-credential reputation row. Counters only grow;
// scores are recomputed from them on every update.
type AgentReputation struct {
	CredentialID            string    `json:"credential_id"`
	AgentID                 string    `json:"agent_id"`
	TrustScore              int       `json:"trust_score"`
	VerificationScore       int       `json:"verification_score"`
	LongevityScore          int       `json:"longevity_score"`
	ActivityScore           int       `json:"activity_score"`
	TotalVerifications      int64     `json:"total_verifications"`
	SuccessfulVerifications int64     `json:"successful_verifications"`
	FailedVerifications     int64     `json:"failed_verifications"`
	LastVerificationAt      time.Time `json:"last_verification_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// IssuerReputation is the aggregate trust row for an issuer. It is fully
// recomputed from issuer-wide statistics, never updated incrementally.
type IssuerReputation struct {
	IssuerID                string    `json:"issuer_id"`
	TrustScore              int       `json:"trust_score"`
	CredentialCount         int64     `json:"credential_count"`
	RevokedCount            int64     `json:"revoked_count"`
	TotalVerifications      int64     `json:"total_verifications"`
	SuccessfulVerifications int64     `json:"successful_verifications"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// IssuerStats is the snapshot the issuer aggregate is recomputed from.
type IssuerStats struct {
	CredentialCount         int64
	RevokedCount            int64
	TotalVerifications      int64
	SuccessfulVerifications int64
}

// VerificationEvent is one append-only verification outcome. FailureReason
// carries the error code for failed verifications and is empty on success.
type VerificationEvent struct {
	ID            string    `json:"event_id"`
	CredentialID  string    `json:"credential_id"`
	AgentID       string    `json:"agent_id,omitempty"`
	Success       bool      `json:"success"`
	FailureReason string    `json:"failure_reason,omitempty"`
	VerifiedAt    time.Time `json:"verified_at"`
	DurationMS    int64     `json:"duration_ms"`
}

// EventFilter narrows ListEvents. Zero values mean "no constraint".
type EventFilter struct {
	CredentialID string
	Since        time.Time
	Until        time.Time
	Limit        int
}

// CredentialStore resolves credentials by id. The core never writes
// credentials; issuance and revocation are external operations.
type CredentialStore interface {
	// GetCredential returns the credential or ErrCredentialNotFound.
	GetCredential(ctx context.Context, id string) (*credential.Credential, error)
}

// IssuerStore resolves issuer records by id.
type IssuerStore interface {
	// GetIssuer returns the issuer or ErrIssuerNotFound.
	GetIssuer(ctx context.Context, id string) (*Issuer, error)
}

// ReputationStore persists per-credential and per-issuer reputation rows.
type ReputationStore interface {
	// GetReputation returns the row or ErrReputationNotFound.
	GetReputation(ctx context.Context, credentialID string) (*AgentReputation, error)

	// PutReputation inserts or replaces the row in one atomic write.
	PutReputation(ctx context.Context, rep *AgentReputation) error

	// GetIssuerReputation returns the aggregate row or ErrReputationNotFound.
	GetIssuerReputation(ctx context.Context, issuerID string) (*IssuerReputation, error)

	// PutIssuerReputation inserts or replaces the aggregate row.
	PutIssuerReputation(ctx context.Context, rep *IssuerReputation) error

	// IssuerStats gathers the issuer-wide counters the aggregate score is
	// recomputed from.
	IssuerStats(ctx context.Context, issuerID string) (*IssuerStats, error)
}

// VerificationLog is the append-only record of verification outcomes.
type VerificationLog interface {
	// AppendEvent stores one outcome.
	AppendEvent(ctx context.Context, event *VerificationEvent) error

	// ListEvents returns matching events ordered by verified_at ascending.
	ListEvents(ctx context.Context, filter EventFilter) ([]VerificationEvent, error)
}

// Store bundles every persistence concern for composition roots that keep
// them in one backend.
type Store interface {
	CredentialStore
	IssuerStore
	ReputationStore
	VerificationLog
}
