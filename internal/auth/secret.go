// Package auth provides the credential primitives for the administrative
// surface: random API key generation and Argon2id hashing, so only the hash
// ever lives in configuration.
package auth

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/rfgrow/vozzysmart1-sub008/internal/errors"
)

// SecretService generates and verifies administrative API keys.
type SecretService interface {
	// GenerateSecret creates a random API key and its Argon2id hash. The plain
	// key is shown to the operator once; only the hash is configured.
	GenerateSecret() (plainSecret string, hashedSecret string, err error)

	// HashSecret hashes an existing plain secret.
	HashSecret(plainSecret string) (hashedSecret string, err error)

	// CompareSecret checks a plain secret against its stored hash.
	CompareSecret(plainSecret string, hashedSecret string) bool
}

// secretService implements SecretService using Argon2id.
type secretService struct {
	hasher *pwdhash.PasswordHasher
}

// NewSecretService creates a new SecretService instance using Argon2id hashing.
// Uses the Moderate policy for a balance between security and performance.
func NewSecretService() SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	return &secretService{hasher: hasher}
}

// GenerateSecret creates a new cryptographically secure 32-byte random secret.
func (s *secretService) GenerateSecret() (string, string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random secret")
	}

	plainSecret := base64.URLEncoding.EncodeToString(randomBytes)

	hashedSecret, err := s.HashSecret(plainSecret)
	if err != nil {
		return "", "", err
	}
	return plainSecret, hashedSecret, nil
}

// HashSecret hashes a plain text secret using Argon2id.
func (s *secretService) HashSecret(plainSecret string) (string, error) {
	hashedSecret, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash secret")
	}
	return hashedSecret, nil
}

// CompareSecret performs a constant-time comparison between a plain secret and its hash.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}
