// Package verify implements single and batch credential verification: the
// ordered pipeline of existence, issuer resolution, temporal validity and
// signature checks, with outcomes recorded off the hot path.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/agentid-dev/agentid-core/pkg/credential"
	"github.com/agentid-dev/agentid-core/pkg/eventlog"
	"github.com/agentid-dev/agentid-core/pkg/signature"
	"github.com/agentid-dev/agentid-core/pkg/store"
)

// Defaults for batch processing.
const (
	DefaultConcurrency   = 4
	DefaultMaxBatchItems = 100
)

// Options configures a Service. The zero value is usable: no result cache,
// no recorder, no reputation enrichment, default batch limits.
type Options struct {
	// Reputations, when set, enriches valid results with the credential's
	// current trust score. Lookup failures are swallowed.
	Reputations store.ReputationStore

	// Recorder, when set, receives every verification outcome
	// fire-and-forget after the result is built.
	Recorder eventlog.Recorder

	// Now supplies the validity-check clock. Defaults to time.Now.
	Now func() time.Time

	// Concurrency is the default parallel batch worker count.
	Concurrency int

	// MaxBatchItems bounds accepted batch sizes.
	MaxBatchItems int

	// CacheTTL enables the by-id result cache when positive. Only valid
	// results are cached.
	CacheTTL time.Duration
}

// Service verifies credentials against the credential and issuer stores.
type Service struct {
	credentials store.CredentialStore
	issuers     store.IssuerStore
	reputations store.ReputationStore
	recorder    eventlog.Recorder
	cache       *resultCache
	now         func() time.Time

	concurrency   int
	maxBatchItems int
}

// NewService creates a verification Service. credentials and issuers are
// required; everything else comes from opts.
func NewService(credentials store.CredentialStore, issuers store.IssuerStore, opts *Options) *Service {
	s := &Service{
		credentials:   credentials,
		issuers:       issuers,
		now:           time.Now,
		concurrency:   DefaultConcurrency,
		maxBatchItems: DefaultMaxBatchItems,
	}
	if opts == nil {
		return s
	}

	s.reputations = opts.Reputations
	s.recorder = opts.Recorder
	if opts.Now != nil {
		s.now = opts.Now
	}
	if opts.Concurrency > 0 {
		s.concurrency = opts.Concurrency
	}
	if opts.MaxBatchItems > 0 {
		s.maxBatchItems = opts.MaxBatchItems
	}
	if opts.CacheTTL > 0 {
		s.cache = newResultCache(opts.CacheTTL)
	}
	return s
}

// VerifyByID verifies a stored credential. A cached valid result is returned
// as-is without re-running the pipeline or re-recording an outcome.
func (s *Service) VerifyByID(ctx context.Context, credentialID string) *Result {
	if s.cache != nil {
		if res, ok := s.cache.get(credentialID); ok {
			res.Cached = true
			return res
		}
	}

	res := s.timed(func() *Result { return s.verifyByID(ctx, credentialID) })
	s.record(res)

	if s.cache != nil && res.Valid {
		s.cache.put(credentialID, res)
	}
	return res
}

// VerifyPayload verifies a self-contained signed payload. When the payload's
// credential id is known to the store, the stored lifecycle state overrides
// the embedded one, so replaying an old payload cannot bypass revocation.
func (s *Service) VerifyPayload(ctx context.Context, payload map[string]any) *Result {
	res := s.timed(func() *Result { return s.verifyPayload(ctx, payload) })
	s.record(res)
	return res
}

// InvalidateCredential drops the credential's cached result. Revocation
// paths call it so a cached "valid" cannot outlive the credential.
func (s *Service) InvalidateCredential(credentialID string) {
	if s.cache != nil {
		s.cache.invalidate(credentialID)
	}
}

// verifyRequest dispatches the tagged request variant once per item.
func (s *Service) verifyRequest(ctx context.Context, req Request) *Result {
	switch {
	case req.CredentialID != "":
		return s.verifyByID(ctx, req.CredentialID)
	case req.Payload != nil:
		return s.verifyPayload(ctx, req.Payload)
	default:
		return failure(credential.ErrCodeMissingInput)
	}
}

func (s *Service) verifyByID(ctx context.Context, credentialID string) *Result {
	if credentialID == "" {
		return failure(credential.ErrCodeMissingInput)
	}

	cred, err := s.credentials.GetCredential(ctx, credentialID)
	if errors.Is(err, store.ErrCredentialNotFound) {
		res := failure(credential.ErrCodeNotFound)
		res.CredentialID = credentialID
		return res
	}
	if err != nil {
		return s.internalFailure(credentialID, "credential lookup", err)
	}

	payload := cred.SigningPayload()
	payload[signature.SignatureField] = cred.Signature

	return s.verifyResolved(ctx, cred, payload)
}

func (s *Service) verifyPayload(ctx context.Context, payload map[string]any) *Result {
	if len(payload) == 0 {
		return failure(credential.ErrCodeMissingInput)
	}

	cred, err := credential.ParsePayload(payload)
	if err != nil {
		res := failure(credential.ErrCodeMissingInput)
		res.Message = err.Error()
		if id, ok := payload["credential_id"].(string); ok {
			res.CredentialID = id
		}
		return res
	}

	// The store is authoritative for lifecycle state when it knows the
	// credential. Unknown ids stay self-contained; a store failure must not
	// silently skip the revocation check.
	stored, err := s.credentials.GetCredential(ctx, cred.ID)
	switch {
	case err == nil:
		cred.Status = stored.Status
		cred.ValidFrom = stored.ValidFrom
		cred.ValidUntil = stored.ValidUntil
	case !errors.Is(err, store.ErrCredentialNotFound):
		return s.internalFailure(cred.ID, "credential lookup", err)
	}

	return s.verifyResolved(ctx, cred, payload)
}

// verifyResolved runs the shared tail of both variants: issuer resolution,
// validity, signature, enrichment. payload is the exact byte source for the
// signature check.
func (s *Service) verifyResolved(ctx context.Context, cred *credential.Credential, payload map[string]any) *Result {
	res := &Result{CredentialID: cred.ID, AgentID: cred.AgentID}

	issuer, err := s.issuers.GetIssuer(ctx, cred.IssuerID)
	if errors.Is(err, store.ErrIssuerNotFound) {
		res.Code = credential.ErrCodeIssuerNotFound
		res.Message = credential.Describe(res.Code)
		return res
	}
	if err != nil {
		return s.internalFailure(cred.ID, "issuer lookup", err)
	}

	if validity := credential.CheckValidity(cred, s.now()); !validity.Valid {
		res.Code = validity.Code
		res.Message = credential.Describe(validity.Code)
		return res
	}

	key, err := signature.DecodeAnyPublicKey(issuer.PublicKey)
	if err != nil || !signature.VerifyPayloadWithKey(payload, key) {
		res.Code = credential.ErrCodeSignatureInvalid
		res.Message = credential.Describe(res.Code)
		return res
	}

	res.Valid = true
	res.Credential = cred
	res.IssuerVerified = issuer.IsVerified
	s.enrich(ctx, res, cred.ID)
	return res
}

// enrich attaches the credential's current trust score, best-effort.
func (s *Service) enrich(ctx context.Context, res *Result, credentialID string) {
	if s.reputations == nil {
		return
	}
	rep, err := s.reputations.GetReputation(ctx, credentialID)
	if err != nil {
		return
	}
	score := rep.TrustScore
	res.TrustScore = &score
}

// record hands the outcome to the recorder, if any. The recorder contract is
// non-blocking and error-swallowing; the already-built result is unaffected.
func (s *Service) record(res *Result) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(store.VerificationEvent{
		CredentialID:  res.CredentialID,
		AgentID:       res.AgentID,
		Success:       res.Valid,
		FailureReason: res.Code,
		VerifiedAt:    s.now().UTC(),
		DurationMS:    res.DurationMS,
	})
}

// timed runs one verification and stamps its wall-clock duration.
func (s *Service) timed(fn func() *Result) *Result {
	start := time.Now()
	res := fn()
	res.DurationMS = time.Since(start).Milliseconds()
	return res
}

// internalFailure logs the cause under a fresh correlation id and returns
// the opaque internal-error result. The cause never reaches the caller.
func (s *Service) internalFailure(credentialID, op string, err error) *Result {
	correlationID := uuid.NewString()
	log.Printf("[verify] %s failed for credential %q (correlation %s): %v", op, credentialID, correlationID, err)

	return &Result{
		CredentialID: credentialID,
		Code:         credential.ErrCodeInternal,
		Message:      fmt.Sprintf("internal verification error (correlation id %s)", correlationID),
	}
}
