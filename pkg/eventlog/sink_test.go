package eventlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentid-dev/agentid-core/pkg/credential"
	"github.com/agentid-dev/agentid-core/pkg/eventlog"
	"github.com/agentid-dev/agentid-core/pkg/reputation"
	"github.com/agentid-dev/agentid-core/pkg/store"
)

func seedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemoryStore()
	require.NoError(t, s.PutIssuer(ctx, &store.Issuer{ID: "issuer_1", IsVerified: true}))
	require.NoError(t, s.PutCredential(ctx, &credential.Credential{
		ID:        "cred_1",
		AgentID:   "agent_1",
		IssuerID:  "issuer_1",
		Status:    credential.StatusActive,
		CreatedAt: time.Now().AddDate(0, -1, 0),
	}))
	return s
}

func TestAsyncRecorder_AppendsAndUpdatesReputation(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	engine := reputation.NewEngine(s, s, s, nil)

	rec := eventlog.NewAsyncRecorder(s, engine, eventlog.Config{})
	rec.Record(store.VerificationEvent{
		CredentialID: "cred_1",
		AgentID:      "agent_1",
		Success:      true,
		VerifiedAt:   time.Now().UTC(),
	})
	rec.Close()

	events, err := s.ListEvents(ctx, store.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.True(t, events[0].Success)

	rep, err := s.GetReputation(ctx, "cred_1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, rep.TotalVerifications)
	assert.Zero(t, rec.Dropped())
}

func TestAsyncRecorder_UnknownCredentialStillLogged(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	engine := reputation.NewEngine(s, s, s, nil)

	rec := eventlog.NewAsyncRecorder(s, engine, eventlog.Config{})
	rec.Record(store.VerificationEvent{
		CredentialID:  "cred_ghost",
		Success:       false,
		FailureReason: credential.ErrCodeNotFound,
		VerifiedAt:    time.Now().UTC(),
	})
	rec.Close()

	events, err := s.ListEvents(ctx, store.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, credential.ErrCodeNotFound, events[0].FailureReason)

	// No reputation row materializes for an unknown credential.
	_, err = s.GetReputation(ctx, "cred_ghost")
	assert.ErrorIs(t, err, store.ErrReputationNotFound)
}

func TestAsyncRecorder_CloseDrainsQueue(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)

	rec := eventlog.NewAsyncRecorder(s, nil, eventlog.Config{QueueSize: 64})
	for i := 0; i < 50; i++ {
		rec.Record(store.VerificationEvent{CredentialID: "cred_1", Success: true, VerifiedAt: time.Now().UTC()})
	}
	rec.Close()

	events, err := s.ListEvents(ctx, store.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 50)
}

func TestSyncRecorder(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	engine := reputation.NewEngine(s, s, s, nil)

	rec := eventlog.NewSyncRecorder(s, engine)
	rec.Record(store.VerificationEvent{CredentialID: "cred_1", Success: true, VerifiedAt: time.Now().UTC()})

	events, err := s.ListEvents(ctx, store.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	rep, err := s.GetReputation(ctx, "cred_1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, rep.TotalVerifications)
}
