package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentid-dev/agentid-core/pkg/credential"
	"github.com/agentid-dev/agentid-core/pkg/store"
)

func TestMemoryStore_CredentialRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	c := &credential.Credential{
		ID:          "cred_1",
		AgentID:     "agent_1",
		IssuerID:    "issuer_1",
		Status:      credential.StatusActive,
		Permissions: []string{"read"},
	}
	require.NoError(t, s.PutCredential(ctx, c))

	got, err := s.GetCredential(ctx, "cred_1")
	require.NoError(t, err)
	assert.Equal(t, "agent_1", got.AgentID)

	// Mutating the returned copy must not leak into the store.
	got.Permissions[0] = "admin"
	again, err := s.GetCredential(ctx, "cred_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"read"}, again.Permissions)

	_, err = s.GetCredential(ctx, "cred_missing")
	assert.ErrorIs(t, err, store.ErrCredentialNotFound)
}

func TestMemoryStore_SetCredentialStatus(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, s.PutCredential(ctx, &credential.Credential{ID: "cred_1", Status: credential.StatusActive}))
	require.NoError(t, s.SetCredentialStatus(ctx, "cred_1", credential.StatusRevoked))

	got, err := s.GetCredential(ctx, "cred_1")
	require.NoError(t, err)
	assert.Equal(t, credential.StatusRevoked, got.Status)

	assert.ErrorIs(t, s.SetCredentialStatus(ctx, "cred_x", credential.StatusRevoked), store.ErrCredentialNotFound)
}

func TestMemoryStore_IssuerRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, s.PutIssuer(ctx, &store.Issuer{ID: "issuer_1", Name: "Acme", IsVerified: true}))

	got, err := s.GetIssuer(ctx, "issuer_1")
	require.NoError(t, err)
	assert.True(t, got.IsVerified)

	_, err = s.GetIssuer(ctx, "issuer_x")
	assert.ErrorIs(t, err, store.ErrIssuerNotFound)
}

func TestMemoryStore_ReputationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := s.GetReputation(ctx, "cred_1")
	assert.ErrorIs(t, err, store.ErrReputationNotFound)

	rep := &store.AgentReputation{CredentialID: "cred_1", TrustScore: 72, TotalVerifications: 4}
	require.NoError(t, s.PutReputation(ctx, rep))

	got, err := s.GetReputation(ctx, "cred_1")
	require.NoError(t, err)
	assert.Equal(t, 72, got.TrustScore)
	assert.EqualValues(t, 4, got.TotalVerifications)
}

func TestMemoryStore_IssuerStats(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	require.NoError(t, s.PutCredential(ctx, &credential.Credential{ID: "cred_1", IssuerID: "issuer_1", Status: credential.StatusActive}))
	require.NoError(t, s.PutCredential(ctx, &credential.Credential{ID: "cred_2", IssuerID: "issuer_1", Status: credential.StatusRevoked}))
	require.NoError(t, s.PutCredential(ctx, &credential.Credential{ID: "cred_3", IssuerID: "issuer_2", Status: credential.StatusActive}))

	require.NoError(t, s.PutReputation(ctx, &store.AgentReputation{
		CredentialID: "cred_1", TotalVerifications: 10, SuccessfulVerifications: 9,
	}))
	require.NoError(t, s.PutReputation(ctx, &store.AgentReputation{
		CredentialID: "cred_2", TotalVerifications: 2, SuccessfulVerifications: 1,
	}))

	stats, err := s.IssuerStats(ctx, "issuer_1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.CredentialCount)
	assert.EqualValues(t, 1, stats.RevokedCount)
	assert.EqualValues(t, 12, stats.TotalVerifications)
	assert.EqualValues(t, 10, stats.SuccessfulVerifications)
}

func TestMemoryStore_Events(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"cred_b", "cred_a", "cred_a"} {
		require.NoError(t, s.AppendEvent(ctx, &store.VerificationEvent{
			ID:           fmt.Sprintf("ev_%d", i),
			CredentialID: id,
			Success:      true,
			VerifiedAt:   base.Add(time.Duration(2-i) * time.Hour),
		}))
	}

	all, err := s.ListEvents(ctx, store.EventFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].VerifiedAt.Before(all[1].VerifiedAt))

	forA, err := s.ListEvents(ctx, store.EventFilter{CredentialID: "cred_a"})
	require.NoError(t, err)
	assert.Len(t, forA, 2)

	limited, err := s.ListEvents(ctx, store.EventFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	windowed, err := s.ListEvents(ctx, store.EventFilter{Since: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, windowed, 1)
}
