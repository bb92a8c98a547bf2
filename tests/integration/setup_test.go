package integration

import (
	"context"
	"crypto/ed25519"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentid-dev/agentid-core/internal/storage"
	"github.com/agentid-dev/agentid-core/pkg/credential"
	"github.com/agentid-dev/agentid-core/pkg/eventlog"
	"github.com/agentid-dev/agentid-core/pkg/reputation"
	"github.com/agentid-dev/agentid-core/pkg/signature"
	"github.com/agentid-dev/agentid-core/pkg/store"
	"github.com/agentid-dev/agentid-core/pkg/verify"
)

// stackNow anchors the verification clock so validity windows and event
// timestamps are reproducible.
var stackNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

// stack wires the full pipeline against a real SQLite file, the same way the
// CLI composition root does: storage -> reputation engine -> async recorder
// -> verification service.
type stack struct {
	db        *storage.DB
	engine    *reputation.Engine
	recorder  *eventlog.AsyncRecorder
	service   *verify.Service
	issuerKey ed25519.PrivateKey

	// clock drives the service's validity checks and event timestamps.
	clock time.Time

	drainOnce sync.Once
}

func newStack(t *testing.T) *stack {
	t.Helper()
	ctx := context.Background()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "agentid.db"))
	require.NoError(t, err)

	s := &stack{db: db, clock: stackNow}
	s.engine = reputation.NewEngine(db, db, db, nil)
	s.recorder = eventlog.NewAsyncRecorder(db, s.engine, eventlog.Config{})
	s.service = verify.NewService(db, db, &verify.Options{
		Reputations: db,
		Recorder:    s.recorder,
		Now:         func() time.Time { return s.clock },
	})

	pub, priv, err := signature.GenerateKeyPair()
	require.NoError(t, err)
	s.issuerKey = priv

	require.NoError(t, db.PutIssuer(ctx, &store.Issuer{
		ID:         "issuer_1",
		Name:       "Integration Issuer",
		PublicKey:  signature.EncodePublicKey(pub),
		IsVerified: true,
		CreatedAt:  stackNow.AddDate(-1, 0, 0),
	}))

	t.Cleanup(func() {
		s.drain()
		require.NoError(t, db.Close())
	})
	return s
}

// drain flushes the recorder queue so recorded outcomes are visible to
// assertions. No verification may run after it.
func (s *stack) drain() {
	s.drainOnce.Do(s.recorder.Close)
}

// issue signs and stores a credential the way the issue command does.
func (s *stack) issue(t *testing.T, ctx context.Context, id, agentID string, mutate func(*credential.Credential)) *credential.Credential {
	t.Helper()

	cred := &credential.Credential{
		ID:          id,
		AgentID:     agentID,
		AgentName:   "Agent " + agentID,
		AgentType:   "assistant",
		IssuerID:    "issuer_1",
		Status:      credential.StatusActive,
		ValidFrom:   stackNow.Add(-24 * time.Hour),
		ValidUntil:  stackNow.AddDate(0, 1, 0),
		Permissions: []string{"read"},
		CreatedAt:   time.Now().UTC().AddDate(-1, 0, 0),
	}
	if mutate != nil {
		mutate(cred)
	}

	sig, err := signature.SignPayload(cred.SigningPayload(), s.issuerKey)
	require.NoError(t, err)
	cred.Signature = sig

	require.NoError(t, s.db.PutCredential(ctx, cred))
	return cred
}
