package service

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
)

// buildEnvelope encrypts plaintext the way the counterpart does and wraps the
// AES key with the given public key.
func buildEnvelope(t *testing.T, publicKey *rsa.PublicKey, plaintext, aesKey, iv []byte) domain.FlowEnvelope {
	t.Helper()

	block, err := aes.NewCipher(aesKey)
	require.NoError(t, err)
	aead, err := cipher.NewGCMWithNonceSize(block, len(iv))
	require.NoError(t, err)

	sealed := aead.Seal(nil, iv, plaintext, nil)

	wrappedKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, publicKey, aesKey, nil)
	require.NoError(t, err)

	return domain.FlowEnvelope{
		EncryptedFlowData: base64.StdEncoding.EncodeToString(sealed),
		EncryptedAESKey:   base64.StdEncoding.EncodeToString(wrappedKey),
		InitialVector:     base64.StdEncoding.EncodeToString(iv),
	}
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func testPrivateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestProtocolCodec_Decrypt(t *testing.T) {
	codec := NewProtocolCodec()
	privateKey := testPrivateKey(t)

	t.Run("Success_KnownVector", func(t *testing.T) {
		plaintext := []byte(`{"version":"3.0","action":"ping"}`)
		aesKey := randomBytes(t, 16)
		iv := randomBytes(t, 16)

		envelope := buildEnvelope(t, &privateKey.PublicKey, plaintext, aesKey, iv)

		exchange, err := codec.Decrypt(envelope, privateKey)
		require.NoError(t, err)

		assert.JSONEq(t, string(plaintext), string(exchange.Body))
		assert.Equal(t, domain.ActionPing, exchange.Request.Action)
		assert.Equal(t, "3.0", exchange.Request.Version)
		assert.Equal(t, aesKey, exchange.AESKey)
		assert.Equal(t, iv, exchange.IV)
	})

	t.Run("Error_WrongKey_KeyMismatch", func(t *testing.T) {
		otherKey := testPrivateKey(t)
		envelope := buildEnvelope(
			t,
			&otherKey.PublicKey,
			[]byte(`{"action":"ping"}`),
			randomBytes(t, 16),
			randomBytes(t, 16),
		)

		_, err := codec.Decrypt(envelope, privateKey)
		assert.ErrorIs(t, err, domain.ErrKeyMismatch)
	})

	t.Run("Error_TamperedCiphertext_KeyMismatch", func(t *testing.T) {
		envelope := buildEnvelope(
			t,
			&privateKey.PublicKey,
			[]byte(`{"action":"data_exchange","screen":"SURVEY"}`),
			randomBytes(t, 16),
			randomBytes(t, 16),
		)

		sealed, err := base64.StdEncoding.DecodeString(envelope.EncryptedFlowData)
		require.NoError(t, err)

		// Flip one bit at a time across ciphertext and tag: every position
		// must fail authentication, never yield wrong plaintext.
		for _, pos := range []int{0, len(sealed) / 2, len(sealed) - 17, len(sealed) - 1} {
			tampered := make([]byte, len(sealed))
			copy(tampered, sealed)
			tampered[pos] ^= 0x01

			bad := envelope
			bad.EncryptedFlowData = base64.StdEncoding.EncodeToString(tampered)

			_, err := codec.Decrypt(bad, privateKey)
			assert.ErrorIs(t, err, domain.ErrKeyMismatch, "bit flip at position %d", pos)
		}
	})

	t.Run("Error_InvalidJSONPlaintext_Malformed", func(t *testing.T) {
		envelope := buildEnvelope(
			t,
			&privateKey.PublicKey,
			[]byte("this is not json"),
			randomBytes(t, 16),
			randomBytes(t, 16),
		)

		_, err := codec.Decrypt(envelope, privateKey)
		assert.ErrorIs(t, err, domain.ErrMalformedPayload)
		assert.NotErrorIs(t, err, domain.ErrKeyMismatch)
	})

	t.Run("Error_BadBase64_MalformedRequest", func(t *testing.T) {
		envelope := domain.FlowEnvelope{
			EncryptedFlowData: "!!not-base64!!",
			EncryptedAESKey:   base64.StdEncoding.EncodeToString(randomBytes(t, 256)),
			InitialVector:     base64.StdEncoding.EncodeToString(randomBytes(t, 16)),
		}

		_, err := codec.Decrypt(envelope, privateKey)
		assert.ErrorIs(t, err, domain.ErrMalformedRequest)
	})

	t.Run("Error_WrongIVSize_MalformedRequest", func(t *testing.T) {
		envelope := buildEnvelope(
			t,
			&privateKey.PublicKey,
			[]byte(`{"action":"ping"}`),
			randomBytes(t, 16),
			randomBytes(t, 16),
		)
		envelope.InitialVector = base64.StdEncoding.EncodeToString(randomBytes(t, 12))

		_, err := codec.Decrypt(envelope, privateKey)
		assert.ErrorIs(t, err, domain.ErrMalformedRequest)
	})
}

func TestProtocolCodec_RoundTrip(t *testing.T) {
	codec := NewProtocolCodec()

	bodies := []any{
		map[string]any{"data": map[string]any{"status": "active"}},
		map[string]any{"screen": "SURVEY", "data": map[string]any{"question": "rating"}},
		map[string]any{"data": map[string]any{"error_message": "something went wrong"}},
	}

	for i, body := range bodies {
		aesKey := randomBytes(t, 16)
		iv := randomBytes(t, 16)

		encrypted, err := codec.Encrypt(body, aesKey, iv)
		require.NoError(t, err, "case %d", i)

		// Decrypt as the counterpart does: flipped IV against the raw response.
		sealed, err := base64.StdEncoding.DecodeString(encrypted)
		require.NoError(t, err)

		aead, err := newAEAD(aesKey, len(iv))
		require.NoError(t, err)

		plaintext, err := aead.Open(nil, FlipIV(iv), sealed, nil)
		require.NoError(t, err, "case %d", i)

		expected, err := json.Marshal(body)
		require.NoError(t, err)
		assert.JSONEq(t, string(expected), string(plaintext), "case %d", i)
	}
}

func TestProtocolCodec_Encrypt_UsesFlippedIVNotOriginal(t *testing.T) {
	codec := NewProtocolCodec()
	aesKey := randomBytes(t, 16)
	iv := randomBytes(t, 16)

	encrypted, err := codec.Encrypt(map[string]any{"ok": true}, aesKey, iv)
	require.NoError(t, err)

	sealed, err := base64.StdEncoding.DecodeString(encrypted)
	require.NoError(t, err)

	aead, err := newAEAD(aesKey, len(iv))
	require.NoError(t, err)

	// Opening with the original IV must fail: the protocol mandates the
	// inverted IV on the response path.
	_, err = aead.Open(nil, iv, sealed, nil)
	assert.Error(t, err)
}

func TestFlipIV(t *testing.T) {
	t.Run("Involution", func(t *testing.T) {
		iv := randomBytes(t, 16)
		assert.Equal(t, iv, FlipIV(FlipIV(iv)))
	})

	t.Run("EveryByteInverted", func(t *testing.T) {
		iv := []byte{0x00, 0xFF, 0x0F, 0xF0, 0xAA, 0x55, 0x01, 0x80, 0x00, 0xFF, 0x0F, 0xF0, 0xAA, 0x55, 0x01, 0x80}
		flipped := FlipIV(iv)
		for i := range iv {
			assert.Equal(t, iv[i]^0xFF, flipped[i])
		}
	})

	t.Run("DoesNotMutateInput", func(t *testing.T) {
		iv := randomBytes(t, 16)
		original := make([]byte, len(iv))
		copy(original, iv)

		_ = FlipIV(iv)
		assert.Equal(t, original, iv)
	})
}
