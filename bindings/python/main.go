package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"encoding/json"
	"time"
	"unsafe"

	"github.com/agentid-dev/agentid-core/pkg/credential"
	"github.com/agentid-dev/agentid-core/pkg/signature"
)

// outcome is the JSON shape handed back to the host language.
type outcome struct {
	Valid        bool   `json:"valid"`
	Code         string `json:"code,omitempty"`
	Message      string `json:"message,omitempty"`
	CredentialID string `json:"credential_id,omitempty"`
}

// VerifyCredential verifies a signed credential payload offline. payloadJSON
// is the credential payload including its signature member; publicKey is the
// issuer's ed25519 public key as standard base64 or a JWK document.
// Returns a JSON string containing the verification outcome.
// The returned string must be freed using FreeString.
//
//export VerifyCredential
func VerifyCredential(payloadJSON *C.char, publicKey *C.char) *C.char {
	var payload map[string]any
	if err := json.Unmarshal([]byte(C.GoString(payloadJSON)), &payload); err != nil {
		return C.CString(fmtOutcome(outcome{
			Code:    credential.ErrCodeMissingInput,
			Message: err.Error(),
		}))
	}

	cred, err := credential.ParsePayload(payload)
	if err != nil {
		return C.CString(fmtOutcome(outcome{
			Code:    credential.ErrCodeMissingInput,
			Message: err.Error(),
		}))
	}

	if v := credential.CheckValidity(cred, time.Now().UTC()); !v.Valid {
		return C.CString(fmtOutcome(outcome{
			Code:         v.Code,
			Message:      credential.Describe(v.Code),
			CredentialID: cred.ID,
		}))
	}

	// Any key decode failure reports as an invalid signature; the caller
	// gets no oracle for why verification failed.
	pub, err := signature.DecodeAnyPublicKey(C.GoString(publicKey))
	if err != nil || !signature.VerifyPayloadWithKey(payload, pub) {
		return C.CString(fmtOutcome(outcome{
			Code:         credential.ErrCodeSignatureInvalid,
			Message:      credential.Describe(credential.ErrCodeSignatureInvalid),
			CredentialID: cred.ID,
		}))
	}

	return C.CString(fmtOutcome(outcome{Valid: true, CredentialID: cred.ID}))
}

// FreeString frees the memory allocated for a C string by Go.
//
//export FreeString
func FreeString(str *C.char) {
	C.free(unsafe.Pointer(str))
}

func fmtOutcome(o outcome) string {
	bytes, _ := json.Marshal(o)
	return string(bytes)
}

func main() {}
