package verify

// Request is one verification request item: either a reference to a stored
// credential or a self-contained signed payload. When both are set the id
// takes precedence; when neither is, the item fails with MISSING_INPUT.
type Request struct {
	CredentialID string         `json:"credential_id,omitempty"`
	Payload      map[string]any `json:"payload,omitempty"`
}

// ByID builds a reference request.
func ByID(credentialID string) Request {
	return Request{CredentialID: credentialID}
}

// ByPayload builds an embedded-payload request.
func ByPayload(payload map[string]any) Request {
	return Request{Payload: payload}
}

// BatchOptions controls one batch verification call.
type BatchOptions struct {
	// FailFast switches to sequential processing that stops at the first
	// invalid item. The default processes every item in parallel.
	FailFast bool

	// IncludeDetails attaches the resolved credential to valid item results.
	IncludeDetails bool

	// Concurrency overrides the service's worker count for this call.
	// Ignored in fail-fast mode.
	Concurrency int
}
