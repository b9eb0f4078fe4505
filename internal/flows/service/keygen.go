package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
)

// rsaKeyBits is the modulus size for generated key pairs. 2048 is the
// smallest size the counterpart accepts for OAEP/SHA-256 wrapping.
const rsaKeyBits = 2048

// GenerateKeyPair creates a fresh RSA key pair encoded as PKCS#8 (private)
// and PKIX (public) PEM blocks.
func GenerateKeyPair() (*domain.KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rsa key: %w", err)
	}

	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER})
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	return &domain.KeyPair{
		ID:            uuid.Must(uuid.NewV7()),
		PublicKeyPEM:  string(publicPEM),
		PrivateKeyPEM: privatePEM,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// ParsePrivateKey decodes a PEM-encoded RSA private key. Both PKCS#8 and
// PKCS#1 encodings are accepted since operators import keys from assorted
// tooling.
func ParsePrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in private key")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is not an RSA key")
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

// ParsePublicKey decodes a PEM-encoded RSA public key (PKIX or PKCS#1).
func ParsePublicKey(pemData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in public key")
	}

	if key, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("public key is not an RSA key")
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// ValidateKeyPair checks that a private and public PEM pair belong together.
// Returns domain.ErrKeyPairMismatch when they do not.
func ValidateKeyPair(privatePEM, publicPEM []byte) error {
	privateKey, err := ParsePrivateKey(privatePEM)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrKeyPairMismatch, err)
	}

	publicKey, err := ParsePublicKey(publicPEM)
	if err != nil {
		return fmt.Errorf("%w: %s", domain.ErrKeyPairMismatch, err)
	}

	if !privateKey.PublicKey.Equal(publicKey) {
		return domain.ErrKeyPairMismatch
	}
	return nil
}
