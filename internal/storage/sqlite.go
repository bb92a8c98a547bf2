// Package storage provides the SQLite persistence backend. It implements
// the store interfaces the verification core consumes plus the provisioning
// writes (issuers, credentials, status changes) the CLI needs.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentid-dev/agentid-core/pkg/credential"
	"github.com/agentid-dev/agentid-core/pkg/store"
)

// DB wraps a sql.DB connection to a SQLite database.
type DB struct {
	db *sql.DB
}

var _ store.Store = (*DB)(nil)

// NewDB opens (or creates) a SQLite database at path and runs schema
// migrations.
func NewDB(path string) (*DB, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	d := &DB{db: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// migrate creates all required tables if they do not already exist.
func (d *DB) migrate() error {
	schema := `
CREATE TABLE IF NOT EXISTS issuers (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    public_key TEXT NOT NULL,
    is_verified INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS credentials (
    id TEXT PRIMARY KEY,
    agent_id TEXT NOT NULL,
    agent_name TEXT NOT NULL DEFAULT '',
    agent_type TEXT NOT NULL DEFAULT '',
    issuer_id TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active',
    valid_from INTEGER NOT NULL,
    valid_until INTEGER NOT NULL,
    permissions TEXT NOT NULL DEFAULT '',
    signature TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (issuer_id) REFERENCES issuers(id)
);

CREATE TABLE IF NOT EXISTS agent_reputations (
    credential_id TEXT PRIMARY KEY,
    agent_id TEXT NOT NULL DEFAULT '',
    trust_score INTEGER NOT NULL DEFAULT 0,
    verification_score INTEGER NOT NULL DEFAULT 0,
    longevity_score INTEGER NOT NULL DEFAULT 0,
    activity_score INTEGER NOT NULL DEFAULT 0,
    total_verifications INTEGER NOT NULL DEFAULT 0,
    successful_verifications INTEGER NOT NULL DEFAULT 0,
    failed_verifications INTEGER NOT NULL DEFAULT 0,
    last_verification_at INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (credential_id) REFERENCES credentials(id)
);

CREATE TABLE IF NOT EXISTS issuer_reputations (
    issuer_id TEXT PRIMARY KEY,
    trust_score INTEGER NOT NULL DEFAULT 0,
    credential_count INTEGER NOT NULL DEFAULT 0,
    revoked_count INTEGER NOT NULL DEFAULT 0,
    total_verifications INTEGER NOT NULL DEFAULT 0,
    successful_verifications INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS verification_events (
    id TEXT PRIMARY KEY,
    credential_id TEXT NOT NULL,
    agent_id TEXT NOT NULL DEFAULT '',
    success INTEGER NOT NULL,
    failure_reason TEXT NOT NULL DEFAULT '',
    verified_at INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_credentials_issuer ON credentials(issuer_id);
CREATE INDEX IF NOT EXISTS idx_credentials_agent ON credentials(agent_id);
CREATE INDEX IF NOT EXISTS idx_events_credential ON verification_events(credential_id);
CREATE INDEX IF NOT EXISTS idx_events_verified_at ON verification_events(verified_at);`
	_, err := d.db.Exec(schema)
	return err
}

// boolToInt converts a bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// unixOrZero stores the zero time as 0 so it round-trips as zero.
func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeFromUnix(v int64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0).UTC()
}

func encodePermissions(perms []string) (string, error) {
	if len(perms) == 0 {
		return "", nil
	}
	b, err := json.Marshal(perms)
	if err != nil {
		return "", fmt.Errorf("encode permissions: %w", err)
	}
	return string(b), nil
}

func decodePermissions(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var perms []string
	if err := json.Unmarshal([]byte(raw), &perms); err != nil {
		return nil, fmt.Errorf("decode permissions: %w", err)
	}
	return perms, nil
}

// --- Issuers ---

// PutIssuer inserts or replaces an issuer record.
func (d *DB) PutIssuer(ctx context.Context, issuer *store.Issuer) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO issuers (id, name, public_key, is_verified, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     public_key = excluded.public_key,
		     is_verified = excluded.is_verified,
		     created_at = excluded.created_at`,
		issuer.ID, issuer.Name, issuer.PublicKey, boolToInt(issuer.IsVerified), unixOrZero(issuer.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put issuer: %w", err)
	}
	return nil
}

// GetIssuer retrieves an issuer by ID.
func (d *DB) GetIssuer(ctx context.Context, id string) (*store.Issuer, error) {
	issuer := &store.Issuer{}
	var isVerified int
	var createdAt int64
	err := d.db.QueryRowContext(ctx,
		`SELECT id, name, public_key, is_verified, created_at
		 FROM issuers WHERE id = ?`, id,
	).Scan(&issuer.ID, &issuer.Name, &issuer.PublicKey, &isVerified, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrIssuerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get issuer: %w", err)
	}
	issuer.IsVerified = isVerified != 0
	issuer.CreatedAt = timeFromUnix(createdAt)
	return issuer, nil
}

// --- Credentials ---

// PutCredential inserts or replaces a credential record.
func (d *DB) PutCredential(ctx context.Context, c *credential.Credential) error {
	perms, err := encodePermissions(c.Permissions)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO credentials (id, agent_id, agent_name, agent_type, issuer_id, status,
		                          valid_from, valid_until, permissions, signature, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     agent_id = excluded.agent_id,
		     agent_name = excluded.agent_name,
		     agent_type = excluded.agent_type,
		     issuer_id = excluded.issuer_id,
		     status = excluded.status,
		     valid_from = excluded.valid_from,
		     valid_until = excluded.valid_until,
		     permissions = excluded.permissions,
		     signature = excluded.signature,
		     created_at = excluded.created_at`,
		c.ID, c.AgentID, c.AgentName, c.AgentType, c.IssuerID, string(c.Status),
		c.ValidFrom.Unix(), c.ValidUntil.Unix(), perms, c.Signature, unixOrZero(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}

// GetCredential retrieves a credential by ID.
func (d *DB) GetCredential(ctx context.Context, id string) (*credential.Credential, error) {
	c := &credential.Credential{}
	var status, perms string
	var validFrom, validUntil, createdAt int64
	err := d.db.QueryRowContext(ctx,
		`SELECT id, agent_id, agent_name, agent_type, issuer_id, status,
		        valid_from, valid_until, permissions, signature, created_at
		 FROM credentials WHERE id = ?`, id,
	).Scan(&c.ID, &c.AgentID, &c.AgentName, &c.AgentType, &c.IssuerID, &status,
		&validFrom, &validUntil, &perms, &c.Signature, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get credential: %w", err)
	}
	c.Status = credential.Status(status)
	c.ValidFrom = timeFromUnix(validFrom)
	c.ValidUntil = timeFromUnix(validUntil)
	c.CreatedAt = timeFromUnix(createdAt)
	if c.Permissions, err = decodePermissions(perms); err != nil {
		return nil, err
	}
	return c, nil
}

// SetCredentialStatus updates the lifecycle status of a credential.
func (d *DB) SetCredentialStatus(ctx context.Context, id string, status credential.Status) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE credentials SET status = ? WHERE id = ?`, string(status), id,
	)
	if err != nil {
		return fmt.Errorf("set credential status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set credential status rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrCredentialNotFound
	}
	return nil
}

// --- Reputation ---

// GetReputation retrieves the per-credential reputation row.
func (d *DB) GetReputation(ctx context.Context, credentialID string) (*store.AgentReputation, error) {
	rep := &store.AgentReputation{}
	var lastVerifiedAt, updatedAt int64
	err := d.db.QueryRowContext(ctx,
		`SELECT credential_id, agent_id, trust_score, verification_score, longevity_score,
		        activity_score, total_verifications, successful_verifications,
		        failed_verifications, last_verification_at, updated_at
		 FROM agent_reputations WHERE credential_id = ?`, credentialID,
	).Scan(&rep.CredentialID, &rep.AgentID, &rep.TrustScore, &rep.VerificationScore,
		&rep.LongevityScore, &rep.ActivityScore, &rep.TotalVerifications,
		&rep.SuccessfulVerifications, &rep.FailedVerifications, &lastVerifiedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrReputationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reputation: %w", err)
	}
	rep.LastVerificationAt = timeFromUnix(lastVerifiedAt)
	rep.UpdatedAt = timeFromUnix(updatedAt)
	return rep, nil
}

// PutReputation inserts or replaces the per-credential reputation row in a
// single upsert.
func (d *DB) PutReputation(ctx context.Context, rep *store.AgentReputation) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO agent_reputations (credential_id, agent_id, trust_score, verification_score,
		                                longevity_score, activity_score, total_verifications,
		                                successful_verifications, failed_verifications,
		                                last_verification_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(credential_id) DO UPDATE SET
		     agent_id = excluded.agent_id,
		     trust_score = excluded.trust_score,
		     verification_score = excluded.verification_score,
		     longevity_score = excluded.longevity_score,
		     activity_score = excluded.activity_score,
		     total_verifications = excluded.total_verifications,
		     successful_verifications = excluded.successful_verifications,
		     failed_verifications = excluded.failed_verifications,
		     last_verification_at = excluded.last_verification_at,
		     updated_at = excluded.updated_at`,
		rep.CredentialID, rep.AgentID, rep.TrustScore, rep.VerificationScore,
		rep.LongevityScore, rep.ActivityScore, rep.TotalVerifications,
		rep.SuccessfulVerifications, rep.FailedVerifications,
		unixOrZero(rep.LastVerificationAt), unixOrZero(rep.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put reputation: %w", err)
	}
	return nil
}

// GetIssuerReputation retrieves the aggregate issuer reputation row.
func (d *DB) GetIssuerReputation(ctx context.Context, issuerID string) (*store.IssuerReputation, error) {
	rep := &store.IssuerReputation{}
	var updatedAt int64
	err := d.db.QueryRowContext(ctx,
		`SELECT issuer_id, trust_score, credential_count, revoked_count,
		        total_verifications, successful_verifications, updated_at
		 FROM issuer_reputations WHERE issuer_id = ?`, issuerID,
	).Scan(&rep.IssuerID, &rep.TrustScore, &rep.CredentialCount, &rep.RevokedCount,
		&rep.TotalVerifications, &rep.SuccessfulVerifications, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrReputationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get issuer reputation: %w", err)
	}
	rep.UpdatedAt = timeFromUnix(updatedAt)
	return rep, nil
}

// PutIssuerReputation inserts or replaces the aggregate issuer reputation row.
func (d *DB) PutIssuerReputation(ctx context.Context, rep *store.IssuerReputation) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO issuer_reputations (issuer_id, trust_score, credential_count, revoked_count,
		                                 total_verifications, successful_verifications, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(issuer_id) DO UPDATE SET
		     trust_score = excluded.trust_score,
		     credential_count = excluded.credential_count,
		     revoked_count = excluded.revoked_count,
		     total_verifications = excluded.total_verifications,
		     successful_verifications = excluded.successful_verifications,
		     updated_at = excluded.updated_at`,
		rep.IssuerID, rep.TrustScore, rep.CredentialCount, rep.RevokedCount,
		rep.TotalVerifications, rep.SuccessfulVerifications, unixOrZero(rep.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put issuer reputation: %w", err)
	}
	return nil
}

// IssuerStats gathers the issuer-wide counters the aggregate score is
// recomputed from. Verification counters come from the reputation rows of
// the issuer's credentials.
func (d *DB) IssuerStats(ctx context.Context, issuerID string) (*store.IssuerStats, error) {
	stats := &store.IssuerStats{}
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN c.status = 'revoked' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(r.total_verifications), 0),
		        COALESCE(SUM(r.successful_verifications), 0)
		 FROM credentials c
		 LEFT JOIN agent_reputations r ON r.credential_id = c.id
		 WHERE c.issuer_id = ?`, issuerID,
	).Scan(&stats.CredentialCount, &stats.RevokedCount,
		&stats.TotalVerifications, &stats.SuccessfulVerifications)
	if err != nil {
		return nil, fmt.Errorf("issuer stats: %w", err)
	}
	return stats, nil
}

// --- Verification events ---

// AppendEvent stores one verification outcome.
func (d *DB) AppendEvent(ctx context.Context, event *store.VerificationEvent) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO verification_events (id, credential_id, agent_id, success,
		                                  failure_reason, verified_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.CredentialID, event.AgentID, boolToInt(event.Success),
		event.FailureReason, event.VerifiedAt.Unix(), event.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListEvents returns matching events ordered by verified_at ascending. Since
// is inclusive, Until exclusive.
func (d *DB) ListEvents(ctx context.Context, filter store.EventFilter) ([]store.VerificationEvent, error) {
	query := `SELECT id, credential_id, agent_id, success, failure_reason, verified_at, duration_ms
	          FROM verification_events`
	var conds []string
	var args []any
	if filter.CredentialID != "" {
		conds = append(conds, "credential_id = ?")
		args = append(args, filter.CredentialID)
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "verified_at >= ?")
		args = append(args, filter.Since.Unix())
	}
	if !filter.Until.IsZero() {
		conds = append(conds, "verified_at < ?")
		args = append(args, filter.Until.Unix())
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY verified_at ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []store.VerificationEvent
	for rows.Next() {
		var ev store.VerificationEvent
		var success int
		var verifiedAt int64
		if err := rows.Scan(&ev.ID, &ev.CredentialID, &ev.AgentID, &success,
			&ev.FailureReason, &verifiedAt, &ev.DurationMS); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Success = success != 0
		ev.VerifiedAt = timeFromUnix(verifiedAt)
		events = append(events, ev)
	}
	return events, rows.Err()
}
