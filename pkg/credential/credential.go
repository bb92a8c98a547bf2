// Package credential defines the agent credential model, its status
// lifecycle and the temporal validity rules applied during verification.
package credential

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a credential. Only active credentials
// verify; every other state fails validity with a status-derived code.
type Status string

const (
	StatusActive    Status = "active"
	StatusRevoked   Status = "revoked"
	StatusExpired   Status = "expired"
	StatusSuspended Status = "suspended"
)

// Active reports whether the status permits verification.
func (s Status) Active() bool {
	return s == StatusActive
}

// Known reports whether the status is one of the defined lifecycle states.
func (s Status) Known() bool {
	switch s {
	case StatusActive, StatusRevoked, StatusExpired, StatusSuspended:
		return true
	}
	return false
}

// Credential is an issued agent credential. The verification core treats it
// as read-only; status transitions happen through external revoke and renew
// operations.
type Credential struct {
	ID          string    `json:"credential_id"`
	AgentID     string    `json:"agent_id"`
	AgentName   string    `json:"agent_name,omitempty"`
	AgentType   string    `json:"agent_type,omitempty"`
	IssuerID    string    `json:"issuer_id"`
	Status      Status    `json:"status"`
	ValidFrom   time.Time `json:"valid_from"`
	ValidUntil  time.Time `json:"valid_until"`
	Permissions []string  `json:"permissions,omitempty"`
	Signature   string    `json:"signature,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SigningPayload returns the member set covered by the issuer signature.
// Status and created_at are deliberately excluded: status mutates after
// issuance (revocation must not break the signature) and created_at is
// server-side bookkeeping.
func (c *Credential) SigningPayload() map[string]any {
	perms := make([]string, len(c.Permissions))
	copy(perms, c.Permissions)

	return map[string]any{
		"credential_id": c.ID,
		"agent_id":      c.AgentID,
		"agent_name":    c.AgentName,
		"agent_type":    c.AgentType,
		"issuer_id":     c.IssuerID,
		"permissions":   perms,
		"valid_from":    c.ValidFrom.UTC().Format(time.RFC3339),
		"valid_until":   c.ValidUntil.UTC().Format(time.RFC3339),
	}
}

// HasPermission reports whether the credential grants the named permission.
func (c *Credential) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// ParsePayload builds a Credential from an embedded payload map. Required
// members are credential_id, agent_id, issuer_id, valid_from and valid_until;
// a missing or mistyped one fails the parse. Status defaults to active when
// absent, matching payloads signed before issuance bookkeeping exists.
func ParsePayload(payload map[string]any) (*Credential, error) {
	if payload == nil {
		return nil, fmt.Errorf("payload is empty")
	}

	c := &Credential{Status: StatusActive}

	var err error
	if c.ID, err = requireString(payload, "credential_id"); err != nil {
		return nil, err
	}
	if c.AgentID, err = requireString(payload, "agent_id"); err != nil {
		return nil, err
	}
	if c.IssuerID, err = requireString(payload, "issuer_id"); err != nil {
		return nil, err
	}
	if c.ValidFrom, err = requireTime(payload, "valid_from"); err != nil {
		return nil, err
	}
	if c.ValidUntil, err = requireTime(payload, "valid_until"); err != nil {
		return nil, err
	}

	if v, ok := payload["agent_name"].(string); ok {
		c.AgentName = v
	}
	if v, ok := payload["agent_type"].(string); ok {
		c.AgentType = v
	}
	if v, ok := payload["status"].(string); ok && v != "" {
		c.Status = Status(v)
	}
	if v, ok := payload["signature"].(string); ok {
		c.Signature = v
	}
	if raw, ok := payload["permissions"].([]any); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				c.Permissions = append(c.Permissions, s)
			}
		}
	} else if perms, ok := payload["permissions"].([]string); ok {
		c.Permissions = append(c.Permissions, perms...)
	}

	return c, nil
}

func requireString(payload map[string]any, key string) (string, error) {
	v, ok := payload[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("payload member %q is missing or not a string", key)
	}
	return v, nil
}

func requireTime(payload map[string]any, key string) (time.Time, error) {
	s, err := requireString(payload, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("payload member %q is not an RFC 3339 timestamp: %w", key, err)
	}
	return t, nil
}
