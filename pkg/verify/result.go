package verify

import (
	"github.com/agentid-dev/agentid-core/pkg/credential"
)

// Result is the outcome of verifying one credential. A verification never
// returns a Go error to the caller: infrastructure failures surface as an
// INTERNAL_ERROR result carrying a correlation id, and every other failure
// mode carries its taxonomy code. Valid is fail-closed.
type Result struct {
	Valid          bool                   `json:"valid"`
	Code           string                 `json:"error_code,omitempty"`
	Message        string                 `json:"message,omitempty"`
	CredentialID   string                 `json:"credential_id,omitempty"`
	AgentID        string                 `json:"agent_id,omitempty"`
	Credential     *credential.Credential `json:"credential,omitempty"`
	TrustScore     *int                   `json:"trust_score,omitempty"`
	IssuerVerified bool                   `json:"issuer_verified,omitempty"`
	Cached         bool                   `json:"cached,omitempty"`
	DurationMS     int64                  `json:"duration_ms"`
}

// ItemResult is a batch item's Result pinned to its request index.
type ItemResult struct {
	Index int `json:"index"`
	Result
}

// Summary aggregates a batch outcome. It is computed only after every
// processed item has finished.
type Summary struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// BatchResult is the response to a batch verification. In fail-fast mode
// Results holds exactly the processed prefix; in parallel mode it always has
// one entry per request, at the request's original index.
type BatchResult struct {
	Results []ItemResult `json:"results"`
	Summary Summary      `json:"summary"`
}

// failure builds a Result for a taxonomy code with its standard message.
func failure(code string) *Result {
	return &Result{Code: code, Message: credential.Describe(code)}
}
