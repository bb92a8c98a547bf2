package verify_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentid-dev/agentid-core/pkg/credential"
	"github.com/agentid-dev/agentid-core/pkg/store"
	"github.com/agentid-dev/agentid-core/pkg/verify"
)

// slowCredentialStore delays lookups and tracks how many run concurrently.
type slowCredentialStore struct {
	inner    store.CredentialStore
	delay    time.Duration
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (s *slowCredentialStore) GetCredential(ctx context.Context, id string) (*credential.Credential, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if cur <= peak || s.peak.CompareAndSwap(peak, cur) {
			break
		}
	}
	time.Sleep(s.delay)
	return s.inner.GetCredential(ctx, id)
}

func TestVerifyBatch_EmptyBatch(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.service.VerifyBatch(context.Background(), nil, verify.BatchOptions{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, credential.ErrCodeInvalidRequest, credential.CodeOf(err))
}

func TestVerifyBatch_TooManyItems(t *testing.T) {
	f := newFixture(t, &verify.Options{MaxBatchItems: 3})

	requests := []verify.Request{
		verify.ByID("a"), verify.ByID("b"), verify.ByID("c"), verify.ByID("d"),
	}
	res, err := f.service.VerifyBatch(context.Background(), requests, verify.BatchOptions{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, credential.ErrCodeInvalidRequest, credential.CodeOf(err))
}

func TestVerifyBatch_FailFastStopsAtFirstInvalid(t *testing.T) {
	f := newFixture(t, nil)
	f.issue(t, "cred_1", nil)
	f.issue(t, "cred_3", nil)

	requests := []verify.Request{
		verify.ByID("cred_1"),
		verify.ByID("cred_missing"),
		verify.ByID("cred_3"),
	}
	res, err := f.service.VerifyBatch(context.Background(), requests, verify.BatchOptions{FailFast: true})
	require.NoError(t, err)

	// The first invalid item is included, nothing after it is processed.
	require.Len(t, res.Results, 2)
	assert.Equal(t, 0, res.Results[0].Index)
	assert.True(t, res.Results[0].Valid)
	assert.Equal(t, 1, res.Results[1].Index)
	assert.Equal(t, credential.ErrCodeNotFound, res.Results[1].Code)

	assert.Equal(t, verify.Summary{Total: 2, Valid: 1, Invalid: 1}, res.Summary)
}

func TestVerifyBatch_FailFastAllValid(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 4; i++ {
		f.issue(t, fmt.Sprintf("cred_%d", i), nil)
	}

	requests := make([]verify.Request, 4)
	for i := range requests {
		requests[i] = verify.ByID(fmt.Sprintf("cred_%d", i))
	}
	res, err := f.service.VerifyBatch(context.Background(), requests, verify.BatchOptions{FailFast: true})
	require.NoError(t, err)

	require.Len(t, res.Results, 4)
	assert.Equal(t, verify.Summary{Total: 4, Valid: 4, Invalid: 0}, res.Summary)
}

func TestVerifyBatch_ParallelKeepsRequestOrder(t *testing.T) {
	f := newFixture(t, nil)
	f.issue(t, "cred_0", nil)
	f.issue(t, "cred_2", func(c *credential.Credential) { c.Status = credential.StatusRevoked })
	f.issue(t, "cred_4", nil)

	offline := &credential.Credential{
		ID:         "cred_offline",
		AgentID:    "agent_offline",
		IssuerID:   "issuer_1",
		Status:     credential.StatusActive,
		ValidFrom:  f.now.Add(-time.Hour),
		ValidUntil: f.now.Add(time.Hour),
	}

	requests := []verify.Request{
		verify.ByID("cred_0"),
		verify.ByID("cred_missing"),
		verify.ByID("cred_2"),
		{}, // neither id nor payload
		verify.ByID("cred_4"),
		verify.ByPayload(f.signedPayload(t, offline)),
	}

	res, err := f.service.VerifyBatch(context.Background(), requests, verify.BatchOptions{Concurrency: 3})
	require.NoError(t, err)
	require.Len(t, res.Results, len(requests))

	wantCodes := []string{
		"",
		credential.ErrCodeNotFound,
		credential.ErrCodeRevoked,
		credential.ErrCodeMissingInput,
		"",
		"",
	}
	for i, item := range res.Results {
		assert.Equal(t, i, item.Index, "result %d landed at the wrong index", i)
		assert.Equal(t, wantCodes[i], item.Code, "result %d", i)
		assert.Equal(t, wantCodes[i] == "", item.Valid, "result %d", i)
	}
	assert.Equal(t, verify.Summary{Total: 6, Valid: 3, Invalid: 3}, res.Summary)
}

func TestVerifyBatch_ParallelBoundsConcurrency(t *testing.T) {
	f := newFixture(t, nil)
	slow := &slowCredentialStore{inner: f.store, delay: 5 * time.Millisecond}
	service := verify.NewService(slow, f.store, &verify.Options{
		Now: func() time.Time { return f.now },
	})

	const items = 12
	requests := make([]verify.Request, items)
	for i := range requests {
		id := fmt.Sprintf("cred_%d", i)
		f.issue(t, id, nil)
		requests[i] = verify.ByID(id)
	}

	res, err := service.VerifyBatch(context.Background(), requests, verify.BatchOptions{Concurrency: 3})
	require.NoError(t, err)

	require.Len(t, res.Results, items)
	assert.Equal(t, items, res.Summary.Valid)
	assert.LessOrEqual(t, slow.peak.Load(), int64(3))
	assert.GreaterOrEqual(t, slow.peak.Load(), int64(1))
}

func TestVerifyBatch_SingleWorker(t *testing.T) {
	f := newFixture(t, nil)
	f.issue(t, "cred_1", nil)
	f.issue(t, "cred_2", nil)

	res, err := f.service.VerifyBatch(context.Background(), []verify.Request{
		verify.ByID("cred_1"), verify.ByID("cred_2"),
	}, verify.BatchOptions{Concurrency: 1})
	require.NoError(t, err)
	assert.Equal(t, verify.Summary{Total: 2, Valid: 2, Invalid: 0}, res.Summary)
}

func TestVerifyBatch_IncludeDetails(t *testing.T) {
	f := newFixture(t, nil)
	f.issue(t, "cred_1", nil)
	requests := []verify.Request{verify.ByID("cred_1")}

	withDetails, err := f.service.VerifyBatch(context.Background(), requests, verify.BatchOptions{IncludeDetails: true})
	require.NoError(t, err)
	require.NotNil(t, withDetails.Results[0].Credential)
	assert.Equal(t, "cred_1", withDetails.Results[0].Credential.ID)

	withoutDetails, err := f.service.VerifyBatch(context.Background(), requests, verify.BatchOptions{})
	require.NoError(t, err)
	assert.Nil(t, withoutDetails.Results[0].Credential)
}

func TestVerifyBatch_OutcomesRecorded(t *testing.T) {
	rec := &collectRecorder{}
	f := newFixture(t, &verify.Options{Recorder: rec})
	f.issue(t, "cred_1", nil)

	_, err := f.service.VerifyBatch(context.Background(), []verify.Request{
		verify.ByID("cred_1"),
		verify.ByID("cred_missing"),
	}, verify.BatchOptions{})
	require.NoError(t, err)

	events := rec.list()
	require.Len(t, events, 2)
	successes := 0
	for _, ev := range events {
		if ev.Success {
			successes++
		}
	}
	assert.Equal(t, 1, successes)
}
