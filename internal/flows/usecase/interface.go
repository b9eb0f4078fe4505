// Package usecase implements the business orchestration for the flow
// data-exchange protocol: key lifecycle (bootstrap, cooldown-gated rotation,
// counterpart sync) and the decrypt-dispatch-encrypt pipeline.
package usecase

import (
	"context"
	"time"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
)

// KeyStore persists the single active key pair and its rotation bookkeeping.
// Implementations are shared between service instances, so TryBeginRotation
// must be a true compare-and-swap, not a read-then-write.
type KeyStore interface {
	// Get returns the active key pair, or domain.ErrNoKeyPair when none is stored.
	Get(ctx context.Context) (*domain.KeyPair, error)

	// Save replaces the stored key pair wholesale.
	Save(ctx context.Context, pair *domain.KeyPair) error

	// Delete clears the stored key pair. The rotation state is untouched.
	Delete(ctx context.Context) error

	// RotationState returns the rotation cooldown bookkeeping.
	RotationState(ctx context.Context) (*domain.RotationState, error)

	// TryBeginRotation atomically stamps the rotation timestamp with now if
	// the previous rotation happened at least cooldown ago (or never).
	// Returns true when the caller acquired the rotation slot. Two concurrent
	// callers must never both acquire it.
	TryBeginRotation(ctx context.Context, now time.Time, cooldown time.Duration) (bool, error)
}

// MetaSyncer publishes the public key to the counterpart's configuration API.
type MetaSyncer interface {
	PublishPublicKey(ctx context.Context, publicKeyPEM string) error
}

// KeyWrapper optionally wraps the private key PEM before it is persisted.
type KeyWrapper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// MetaSyncResult reports the outcome of one best-effort public key publish.
// Sync failures are values, never errors that could abort the caller.
type MetaSyncResult struct {
	Success bool
	Error   string
}

// KeyStatus describes the stored key pair for the administrative surface.
// The private half is never exposed.
type KeyStatus struct {
	Configured   bool
	PublicKeyPEM string
	GeneratedAt  time.Time
}

// KeyLifecycleUseCase manages the key epochs: lazy bootstrap, cooldown-gated
// rotation on key-mismatch failures, and operator-driven replacement.
type KeyLifecycleUseCase interface {
	// EnsureKeyPair returns the active key pair, generating and persisting one
	// if absent. A failed counterpart sync never fails this call.
	EnsureKeyPair(ctx context.Context) (*domain.KeyPair, error)

	// RotateOnFailure rotates the key pair in response to a key-mismatch
	// failure, unless the rotation cooldown is still active. Causes other
	// than domain.ErrKeyMismatch are ignored.
	RotateOnFailure(ctx context.Context, cause error)

	// GenerateKeyPair replaces the stored pair with a freshly generated one
	// and synchronously reports the sync outcome. Operator-driven; does not
	// touch the rotation cooldown.
	GenerateKeyPair(ctx context.Context) (*domain.KeyPair, MetaSyncResult, error)

	// ImportKeyPair replaces the stored pair with operator-provided PEM
	// material after validating the halves match.
	ImportKeyPair(ctx context.Context, privatePEM, publicPEM []byte) (*domain.KeyPair, MetaSyncResult, error)

	// DeleteKeyPair clears the stored pair. The rotation cooldown survives.
	DeleteKeyPair(ctx context.Context) error

	// Status reports whether a pair is configured and its public half.
	Status(ctx context.Context) (*KeyStatus, error)
}

// ExchangeUseCase runs the full inbound pipeline: decrypt the envelope with
// the active private key, dispatch the request, and encrypt the response.
type ExchangeUseCase interface {
	// HandleExchange returns the base64 response body that forms the entire
	// HTTP response. Decryption failures surface as typed domain errors;
	// business handler failures are absorbed into an encrypted error payload.
	HandleExchange(ctx context.Context, envelope domain.FlowEnvelope) (string, error)
}

// FlowHandler is the external business handler a decrypted request is
// delegated to. It receives the decrypted body verbatim (action, screen,
// data, flow_token, version) and returns the JSON-serializable next screen.
type FlowHandler interface {
	Handle(ctx context.Context, request *domain.ExchangeRequest) (any, error)
}

// FlowHandlerFunc adapts a function to the FlowHandler interface.
type FlowHandlerFunc func(ctx context.Context, request *domain.ExchangeRequest) (any, error)

// Handle calls f.
func (f FlowHandlerFunc) Handle(ctx context.Context, request *domain.ExchangeRequest) (any, error) {
	return f(ctx, request)
}
