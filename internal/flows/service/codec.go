// Package service provides the cryptographic and external-facing services for
// the flow data-exchange protocol: the hybrid codec, key generation, the
// counterpart sync client, and the self-test probe.
package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
)

// ProtocolCodec implements the protocol's hybrid encryption scheme: an
// RSA-OAEP/SHA-256 wrapped AES-128 key, AES-128-GCM payload encryption with a
// 16-byte IV, and the mandated bitwise-inverted IV on the response path.
//
// The codec is a pure transform with no I/O or shared state and is safe for
// concurrent use.
type ProtocolCodec struct{}

// NewProtocolCodec creates a new ProtocolCodec.
func NewProtocolCodec() *ProtocolCodec {
	return &ProtocolCodec{}
}

// Decrypt unwraps a FlowEnvelope with the given private key.
//
// Failure taxonomy:
//   - undecodable base64 or wrong-sized IV: domain.ErrMalformedRequest
//   - RSA-OAEP unwrap failure or GCM tag failure: domain.ErrKeyMismatch
//   - valid crypto but invalid JSON plaintext: domain.ErrMalformedPayload
//
// The two ErrKeyMismatch causes are deliberately indistinguishable: both mean
// the sender encrypted against a public key whose private half we no longer
// hold.
func (c *ProtocolCodec) Decrypt(
	envelope domain.FlowEnvelope,
	privateKey *rsa.PrivateKey,
) (*domain.DecryptedExchange, error) {
	flowData, err := base64.StdEncoding.DecodeString(envelope.EncryptedFlowData)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid encrypted_flow_data encoding", domain.ErrMalformedRequest)
	}

	wrappedKey, err := base64.StdEncoding.DecodeString(envelope.EncryptedAESKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid encrypted_aes_key encoding", domain.ErrMalformedRequest)
	}

	iv, err := base64.StdEncoding.DecodeString(envelope.InitialVector)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid initial_vector encoding", domain.ErrMalformedRequest)
	}
	if len(iv) != domain.IVSize {
		return nil, fmt.Errorf("%w: initial_vector must be %d bytes", domain.ErrMalformedRequest, domain.IVSize)
	}
	if len(flowData) < domain.TagSize {
		return nil, fmt.Errorf("%w: encrypted_flow_data shorter than tag", domain.ErrMalformedRequest)
	}

	// A typed unwrap failure, not error-message matching: any OAEP error here
	// means the key material diverged.
	aesKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, privateKey, wrappedKey, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: rsa key unwrap failed", domain.ErrKeyMismatch)
	}
	if len(aesKey) != domain.AESKeySize {
		domain.Zero(aesKey)
		return nil, fmt.Errorf("%w: unwrapped key is not %d bytes", domain.ErrKeyMismatch, domain.AESKeySize)
	}

	aead, err := newAEAD(aesKey, len(iv))
	if err != nil {
		domain.Zero(aesKey)
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	// The wire format carries ciphertext || 16-byte tag, which is exactly the
	// layout Open expects.
	plaintext, err := aead.Open(nil, iv, flowData, nil)
	if err != nil {
		domain.Zero(aesKey)
		return nil, fmt.Errorf("%w: authentication tag verification failed", domain.ErrKeyMismatch)
	}

	var request domain.ExchangeRequest
	if err := json.Unmarshal(plaintext, &request); err != nil {
		domain.Zero(aesKey)
		return nil, fmt.Errorf("%w: plaintext is not valid JSON", domain.ErrMalformedPayload)
	}

	return &domain.DecryptedExchange{
		Request: &request,
		Body:    json.RawMessage(plaintext),
		AESKey:  aesKey,
		IV:      iv,
	}, nil
}

// Encrypt serializes responseBody to JSON and AES-128-GCM-encrypts it with
// the request's AES key and the flipped request IV, returning the base64
// string that forms the entire HTTP response body.
//
// The flipped IV is an external protocol requirement: the counterpart
// decrypts responses with the bitwise inverse of the IV it sent, and rejects
// anything encrypted under the original IV.
func (c *ProtocolCodec) Encrypt(responseBody any, aesKey, requestIV []byte) (string, error) {
	if len(aesKey) != domain.AESKeySize {
		return "", fmt.Errorf("aes key must be %d bytes", domain.AESKeySize)
	}
	if len(requestIV) != domain.IVSize {
		return "", fmt.Errorf("iv must be %d bytes", domain.IVSize)
	}

	plaintext, err := json.Marshal(responseBody)
	if err != nil {
		return "", fmt.Errorf("failed to serialize response body: %w", err)
	}

	aead, err := newAEAD(aesKey, len(requestIV))
	if err != nil {
		return "", fmt.Errorf("failed to initialize cipher: %w", err)
	}

	sealed := aead.Seal(nil, FlipIV(requestIV), plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// FlipIV returns a copy of iv with every byte bitwise-inverted. It is an
// involution: FlipIV(FlipIV(iv)) == iv.
func FlipIV(iv []byte) []byte {
	flipped := make([]byte, len(iv))
	for i, b := range iv {
		flipped[i] = b ^ 0xFF
	}
	return flipped
}

// newAEAD builds an AES-GCM cipher accepting the protocol's 16-byte IV
// instead of the default 12-byte GCM nonce.
func newAEAD(key []byte, nonceSize int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return aead, nil
}
