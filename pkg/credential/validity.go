package credential

import (
	"strings"
	"time"
)

// Validity is the outcome of a temporal validity check. Code carries the
// failure code when Valid is false.
type Validity struct {
	Valid bool
	Code  string
}

// CheckValidity evaluates the credential's lifecycle state against now.
// Checks run in a fixed order and the first failure wins:
//
//  1. status must be active (failure code derives from the status),
//  2. now must not precede valid_from,
//  3. now must precede valid_until; the boundary is inclusive, so a
//     credential is already invalid at exactly valid_until.
func CheckValidity(c *Credential, now time.Time) Validity {
	if !c.Status.Active() {
		return Validity{Code: statusCode(c.Status)}
	}
	if now.Before(c.ValidFrom) {
		return Validity{Code: ErrCodeNotYetValid}
	}
	if !now.Before(c.ValidUntil) {
		return Validity{Code: ErrCodeExpired}
	}
	return Validity{Valid: true}
}

// statusCode maps a non-active status to its failure code. Unknown statuses
// still produce a CREDENTIAL_* marker rather than passing verification.
func statusCode(s Status) string {
	switch s {
	case StatusRevoked:
		return ErrCodeRevoked
	case StatusExpired:
		return ErrCodeExpired
	case StatusSuspended:
		return ErrCodeSuspended
	default:
		return "CREDENTIAL_" + strings.ToUpper(string(s))
	}
}
