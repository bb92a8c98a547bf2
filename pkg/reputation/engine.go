package reputation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/agentid-dev/agentid-core/pkg/store"
)

// Options configures an Engine.
type Options struct {
	// Now supplies the clock. Defaults to time.Now; tests pin it.
	Now func() time.Time
}

// Engine maintains per-credential and per-issuer reputation rows in response
// to verification outcomes.
//
// Updates for the same credential are serialized through a lock table, so
// concurrent verifications cannot interleave their read-modify-write cycles
// and lose counts. Updates for different credentials proceed independently.
// The issuer aggregate is always recomputed from issuer-wide statistics,
// never adjusted incrementally.
type Engine struct {
	reputations store.ReputationStore
	credentials store.CredentialStore
	issuers     store.IssuerStore
	now         func() time.Time

	credLocks   lockTable
	issuerLocks lockTable
}

// NewEngine creates an Engine over the given stores.
func NewEngine(reputations store.ReputationStore, credentials store.CredentialStore, issuers store.IssuerStore, opts *Options) *Engine {
	now := time.Now
	if opts != nil && opts.Now != nil {
		now = opts.Now
	}
	return &Engine{
		reputations: reputations,
		credentials: credentials,
		issuers:     issuers,
		now:         now,
	}
}

// RecordVerification applies one verification outcome to the credential's
// reputation row, creating it on first contact, then refreshes the issuer
// aggregate. The credential must exist; recording against an unknown id
// returns store.ErrCredentialNotFound.
func (e *Engine) RecordVerification(ctx context.Context, credentialID string, success bool) error {
	cred, err := e.credentials.GetCredential(ctx, credentialID)
	if err != nil {
		return fmt.Errorf("load credential: %w", err)
	}

	unlock := e.credLocks.acquire(credentialID)
	defer unlock()

	now := e.now()

	rep, err := e.reputations.GetReputation(ctx, credentialID)
	switch {
	case errors.Is(err, store.ErrReputationNotFound):
		rep = &store.AgentReputation{CredentialID: credentialID, AgentID: cred.AgentID}
	case err != nil:
		return fmt.Errorf("load reputation: %w", err)
	}

	rep.TotalVerifications++
	if success {
		rep.SuccessfulVerifications++
	} else {
		rep.FailedVerifications++
	}
	rep.LastVerificationAt = now
	rep.UpdatedAt = now

	rep.VerificationScore = VerificationScore(rep.TotalVerifications, rep.SuccessfulVerifications)
	rep.LongevityScore = 0
	if !cred.CreatedAt.IsZero() {
		rep.LongevityScore = LongevityScore(now.Sub(cred.CreatedAt))
	}
	rep.ActivityScore = ActivityScore(0)
	rep.TrustScore = CompositeScore(rep.VerificationScore, rep.LongevityScore, rep.ActivityScore, e.issuerVerified(ctx, cred.IssuerID))

	if err := e.reputations.PutReputation(ctx, rep); err != nil {
		return fmt.Errorf("store reputation: %w", err)
	}

	return e.refreshIssuer(ctx, cred.IssuerID, now)
}

// CredentialReputation returns the credential's reputation with the
// time-sensitive subscores recomputed at read time. A credential that has
// never been verified yields an unsaved baseline row with neutral history.
func (e *Engine) CredentialReputation(ctx context.Context, credentialID string) (*store.AgentReputation, error) {
	cred, err := e.credentials.GetCredential(ctx, credentialID)
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}

	now := e.now()

	rep, err := e.reputations.GetReputation(ctx, credentialID)
	switch {
	case errors.Is(err, store.ErrReputationNotFound):
		rep = &store.AgentReputation{CredentialID: credentialID, AgentID: cred.AgentID}
	case err != nil:
		return nil, fmt.Errorf("load reputation: %w", err)
	}

	rep.VerificationScore = VerificationScore(rep.TotalVerifications, rep.SuccessfulVerifications)
	rep.LongevityScore = 0
	if !cred.CreatedAt.IsZero() {
		rep.LongevityScore = LongevityScore(now.Sub(cred.CreatedAt))
	}
	if rep.LastVerificationAt.IsZero() {
		rep.ActivityScore = neutralScore
	} else {
		rep.ActivityScore = ActivityScore(now.Sub(rep.LastVerificationAt))
	}
	rep.TrustScore = CompositeScore(rep.VerificationScore, rep.LongevityScore, rep.ActivityScore, e.issuerVerified(ctx, cred.IssuerID))

	return rep, nil
}

// IssuerReputation returns the issuer's aggregate row, computing a fresh
// view when none has been persisted yet.
func (e *Engine) IssuerReputation(ctx context.Context, issuerID string) (*store.IssuerReputation, error) {
	if _, err := e.issuers.GetIssuer(ctx, issuerID); err != nil {
		return nil, fmt.Errorf("load issuer: %w", err)
	}

	rep, err := e.reputations.GetIssuerReputation(ctx, issuerID)
	if err == nil {
		return rep, nil
	}
	if !errors.Is(err, store.ErrReputationNotFound) {
		return nil, fmt.Errorf("load issuer reputation: %w", err)
	}

	stats, err := e.reputations.IssuerStats(ctx, issuerID)
	if err != nil {
		return nil, fmt.Errorf("load issuer stats: %w", err)
	}
	return buildIssuerReputation(issuerID, stats, e.now()), nil
}

// RefreshIssuer recomputes and stores the issuer aggregate outside the
// verification path. Lifecycle changes call it so a revocation shows in the
// aggregate before the issuer's next verification.
func (e *Engine) RefreshIssuer(ctx context.Context, issuerID string) error {
	return e.refreshIssuer(ctx, issuerID, e.now())
}

// refreshIssuer recomputes and stores the issuer aggregate. Writes for the
// same issuer are serialized so concurrent refreshes cannot publish stale
// snapshots over fresh ones.
func (e *Engine) refreshIssuer(ctx context.Context, issuerID string, now time.Time) error {
	unlock := e.issuerLocks.acquire(issuerID)
	defer unlock()

	stats, err := e.reputations.IssuerStats(ctx, issuerID)
	if err != nil {
		return fmt.Errorf("load issuer stats: %w", err)
	}

	if err := e.reputations.PutIssuerReputation(ctx, buildIssuerReputation(issuerID, stats, now)); err != nil {
		return fmt.Errorf("store issuer reputation: %w", err)
	}
	return nil
}

func (e *Engine) issuerVerified(ctx context.Context, issuerID string) bool {
	issuer, err := e.issuers.GetIssuer(ctx, issuerID)
	return err == nil && issuer.IsVerified
}

func buildIssuerReputation(issuerID string, stats *store.IssuerStats, now time.Time) *store.IssuerReputation {
	return &store.IssuerReputation{
		IssuerID:                issuerID,
		TrustScore:              IssuerTrustScore(stats),
		CredentialCount:         stats.CredentialCount,
		RevokedCount:            stats.RevokedCount,
		TotalVerifications:      stats.TotalVerifications,
		SuccessfulVerifications: stats.SuccessfulVerifications,
		UpdatedAt:               now,
	}
}

// lockTable hands out one mutex per key. Entries live for the process
// lifetime; the population is bounded by the credential and issuer counts.
type lockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// acquire locks the key's mutex and returns the unlock.
func (t *lockTable) acquire(key string) func() {
	t.mu.Lock()
	if t.locks == nil {
		t.locks = make(map[string]*sync.Mutex)
	}
	l, ok := t.locks[key]
	if !ok {
		l = &sync.Mutex{}
		t.locks[key] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
