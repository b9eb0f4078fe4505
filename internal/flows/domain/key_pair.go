// Package domain defines the core types for the encrypted flow data-exchange
// protocol: the asymmetric key material, rotation bookkeeping, and the wire
// envelope exchanged with the chat platform.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// KeyPair is one generation (epoch) of the asymmetric key material used for
// the protocol handshake. It is immutable once issued: rotation replaces the
// pair wholesale, never mutates it in place.
type KeyPair struct {
	ID uuid.UUID
	// PublicKeyPEM is the PKIX-encoded RSA public key published to the counterpart.
	PublicKeyPEM string
	// PrivateKeyPEM is the PKCS#8-encoded RSA private key. At rest it may be
	// KMS-wrapped; in memory it is always plain PEM.
	PrivateKeyPEM []byte
	GeneratedAt   time.Time
}

// RotationState tracks the cooldown bookkeeping for failure-driven rotation.
// Once LastRotationAt is set, it blocks further rotation until the cooldown
// elapses. It survives key-pair deletion.
type RotationState struct {
	LastRotationAt *time.Time
}

// Zero securely overwrites a byte slice with zeros to clear sensitive data from memory.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
