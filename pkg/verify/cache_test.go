package verify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentid-dev/agentid-core/pkg/credential"
	"github.com/agentid-dev/agentid-core/pkg/store"
	"github.com/agentid-dev/agentid-core/pkg/verify"
)

func TestCache_HitSkipsPipeline(t *testing.T) {
	rec := &collectRecorder{}
	f := newFixture(t, &verify.Options{Recorder: rec, CacheTTL: time.Minute})
	f.issue(t, "cred_1", nil)

	first := f.service.VerifyByID(context.Background(), "cred_1")
	second := f.service.VerifyByID(context.Background(), "cred_1")

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.True(t, second.Valid)

	// The cached hit is not re-recorded.
	assert.Len(t, rec.list(), 1)
}

func TestCache_FailuresNeverCached(t *testing.T) {
	rec := &collectRecorder{}
	f := newFixture(t, &verify.Options{Recorder: rec, CacheTTL: time.Minute})

	first := f.service.VerifyByID(context.Background(), "cred_missing")
	second := f.service.VerifyByID(context.Background(), "cred_missing")

	assert.False(t, first.Cached)
	assert.False(t, second.Cached)
	assert.Equal(t, credential.ErrCodeNotFound, second.Code)
	assert.Len(t, rec.list(), 2)
}

func TestCache_EntriesExpire(t *testing.T) {
	rec := &collectRecorder{}
	f := newFixture(t, &verify.Options{Recorder: rec, CacheTTL: 10 * time.Millisecond})
	f.issue(t, "cred_1", nil)

	f.service.VerifyByID(context.Background(), "cred_1")
	time.Sleep(30 * time.Millisecond)
	res := f.service.VerifyByID(context.Background(), "cred_1")

	assert.False(t, res.Cached)
	assert.Len(t, rec.list(), 2)
}

func TestCache_InvalidateAfterRevocation(t *testing.T) {
	f := newFixture(t, &verify.Options{CacheTTL: time.Minute})
	f.issue(t, "cred_1", nil)

	require.True(t, f.service.VerifyByID(context.Background(), "cred_1").Valid)

	require.NoError(t, f.store.SetCredentialStatus(context.Background(), "cred_1", credential.StatusRevoked))
	f.service.InvalidateCredential("cred_1")

	res := f.service.VerifyByID(context.Background(), "cred_1")
	assert.False(t, res.Valid)
	assert.Equal(t, credential.ErrCodeRevoked, res.Code)
	assert.False(t, res.Cached)
}

func TestCache_CopiesTrustScore(t *testing.T) {
	f := newFixture(t, nil)
	service := verify.NewService(f.store, f.store, &verify.Options{
		Reputations: f.store,
		CacheTTL:    time.Minute,
		Now:         func() time.Time { return f.now },
	})
	f.issue(t, "cred_1", nil)
	require.NoError(t, f.store.PutReputation(context.Background(), &store.AgentReputation{
		CredentialID: "cred_1",
		TrustScore:   71,
	}))

	first := service.VerifyByID(context.Background(), "cred_1")
	require.NotNil(t, first.TrustScore)
	*first.TrustScore = 5

	second := service.VerifyByID(context.Background(), "cred_1")
	require.NotNil(t, second.TrustScore)
	assert.Equal(t, 71, *second.TrustScore)
}
