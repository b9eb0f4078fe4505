package domain

import (
	"github.com/rfgrow/vozzysmart1-sub008/internal/errors"
)

// Flow protocol error definitions.
//
// The decryption failure taxonomy matters: a key mismatch triggers a
// cooldown-gated key rotation, a malformed payload does not, and a malformed
// request is rejected before any cryptography runs. Each is a typed sentinel
// so callers never have to match error message text.
var (
	// ErrKeyMismatch indicates the sender encrypted against a public key we no
	// longer hold the private half of. Raised for both RSA-OAEP unwrap failures
	// and GCM tag verification failures, which are indistinguishable from the
	// caller's side.
	//
	// HTTP Status: 421 Misdirected Request
	ErrKeyMismatch = errors.New("key mismatch")

	// ErrMalformedPayload indicates the envelope decrypted cleanly but the
	// plaintext is not valid JSON. No rotation side effect.
	//
	// HTTP Status: 421 Misdirected Request
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrMalformedRequest indicates the envelope itself is unusable (missing or
	// undecodable fields). Rejected before any decryption is attempted.
	//
	// HTTP Status: 400 Bad Request
	ErrMalformedRequest = errors.Wrap(errors.ErrInvalidInput, "malformed request")

	// ErrNoKeyPair indicates no key pair is currently stored.
	ErrNoKeyPair = errors.Wrap(errors.ErrNotFound, "no key pair configured")

	// ErrKeyPairMismatch indicates an imported private/public pair do not match.
	ErrKeyPairMismatch = errors.Wrap(errors.ErrInvalidInput, "private and public keys do not match")
)
