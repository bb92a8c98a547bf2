package store

import (
	"context"
	"sort"
	"sync"

	"github.com/agentid-dev/agentid-core/pkg/credential"
)

// MemoryStore is a mutex-guarded in-memory Store. It backs tests and
// single-process deployments that do not need durability.
type MemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]credential.Credential
	issuers     map[string]Issuer
	reputations map[string]AgentReputation
	issuerReps  map[string]IssuerReputation
	events      []VerificationEvent
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		credentials: make(map[string]credential.Credential),
		issuers:     make(map[string]Issuer),
		reputations: make(map[string]AgentReputation),
		issuerReps:  make(map[string]IssuerReputation),
	}
}

// PutCredential inserts or replaces a credential. This is the provisioning
// surface used by issuance; the verification core itself never calls it.
func (s *MemoryStore) PutCredential(_ context.Context, c *credential.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[c.ID] = cloneCredential(c)
	return nil
}

// SetCredentialStatus applies an external lifecycle transition (revoke,
// suspend, renew).
func (s *MemoryStore) SetCredentialStatus(_ context.Context, id string, status credential.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.credentials[id]
	if !ok {
		return ErrCredentialNotFound
	}
	c.Status = status
	s.credentials[id] = c
	return nil
}

// GetCredential implements CredentialStore.
func (s *MemoryStore) GetCredential(_ context.Context, id string) (*credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.credentials[id]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	out := cloneCredential(&c)
	return &out, nil
}

// PutIssuer inserts or replaces an issuer record.
func (s *MemoryStore) PutIssuer(_ context.Context, issuer *Issuer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuers[issuer.ID] = *issuer
	return nil
}

// GetIssuer implements IssuerStore.
func (s *MemoryStore) GetIssuer(_ context.Context, id string) (*Issuer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issuer, ok := s.issuers[id]
	if !ok {
		return nil, ErrIssuerNotFound
	}
	out := issuer
	return &out, nil
}

// GetReputation implements ReputationStore.
func (s *MemoryStore) GetReputation(_ context.Context, credentialID string) (*AgentReputation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, ok := s.reputations[credentialID]
	if !ok {
		return nil, ErrReputationNotFound
	}
	out := rep
	return &out, nil
}

// PutReputation implements ReputationStore.
func (s *MemoryStore) PutReputation(_ context.Context, rep *AgentReputation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reputations[rep.CredentialID] = *rep
	return nil
}

// GetIssuerReputation implements ReputationStore.
func (s *MemoryStore) GetIssuerReputation(_ context.Context, issuerID string) (*IssuerReputation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rep, ok := s.issuerReps[issuerID]
	if !ok {
		return nil, ErrReputationNotFound
	}
	out := rep
	return &out, nil
}

// PutIssuerReputation implements ReputationStore.
func (s *MemoryStore) PutIssuerReputation(_ context.Context, rep *IssuerReputation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issuerReps[rep.IssuerID] = *rep
	return nil
}

// IssuerStats implements ReputationStore.
func (s *MemoryStore) IssuerStats(_ context.Context, issuerID string) (*IssuerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &IssuerStats{}
	for _, c := range s.credentials {
		if c.IssuerID != issuerID {
			continue
		}
		stats.CredentialCount++
		if c.Status == credential.StatusRevoked {
			stats.RevokedCount++
		}
		if rep, ok := s.reputations[c.ID]; ok {
			stats.TotalVerifications += rep.TotalVerifications
			stats.SuccessfulVerifications += rep.SuccessfulVerifications
		}
	}
	return stats, nil
}

// AppendEvent implements VerificationLog.
func (s *MemoryStore) AppendEvent(_ context.Context, event *VerificationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

// ListEvents implements VerificationLog.
func (s *MemoryStore) ListEvents(_ context.Context, filter EventFilter) ([]VerificationEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []VerificationEvent
	for _, ev := range s.events {
		if filter.CredentialID != "" && ev.CredentialID != filter.CredentialID {
			continue
		}
		if !filter.Since.IsZero() && ev.VerifiedAt.Before(filter.Since) {
			continue
		}
		if !filter.Until.IsZero() && !ev.VerifiedAt.Before(filter.Until) {
			continue
		}
		out = append(out, ev)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].VerifiedAt.Before(out[j].VerifiedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func cloneCredential(c *credential.Credential) credential.Credential {
	out := *c
	if c.Permissions != nil {
		out.Permissions = make([]string, len(c.Permissions))
		copy(out.Permissions, c.Permissions)
	}
	return out
}
