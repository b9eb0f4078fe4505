package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
)

// newProbeTarget builds an httptest server that behaves like the real
// endpoint: decrypt with the codec, answer ping with the encrypted active
// status. flipResponseIV toggles the protocol-correct IV transform so the
// test can prove the probe catches regressions.
func newProbeTarget(t *testing.T, pair *domain.KeyPair, flipResponseIV bool) *httptest.Server {
	t.Helper()

	codec := NewProtocolCodec()
	privateKey, err := ParsePrivateKey(pair.PrivateKeyPEM)
	require.NoError(t, err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var req probeRequest
		require.NoError(t, json.Unmarshal(body, &req))

		exchange, err := codec.Decrypt(domain.FlowEnvelope{
			EncryptedFlowData: req.EncryptedFlowData,
			EncryptedAESKey:   req.EncryptedAESKey,
			InitialVector:     req.InitialVector,
		}, privateKey)
		if err != nil {
			w.WriteHeader(http.StatusMisdirectedRequest)
			return
		}
		defer exchange.Discard()

		responseIV := exchange.IV
		if !flipResponseIV {
			// Regression scenario: encrypt under the double-flipped (original)
			// IV so the counterpart-side decryption must fail.
			responseIV = FlipIV(exchange.IV)
		}

		encrypted, err := codec.Encrypt(domain.PingResponse(), exchange.AESKey, responseIV)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(encrypted))
	}))
}

func TestSelfTestProbe_Run(t *testing.T) {
	pair, err := GenerateKeyPair()
	require.NoError(t, err)

	t.Run("Success_FullRoundTrip", func(t *testing.T) {
		server := newProbeTarget(t, pair, true)
		defer server.Close()

		probe := NewSelfTestProbe(server.Client(), server.URL)
		assert.NoError(t, probe.Run(context.Background(), pair.PublicKeyPEM))
	})

	t.Run("Error_IVFlipRegression", func(t *testing.T) {
		server := newProbeTarget(t, pair, false)
		defer server.Close()

		probe := NewSelfTestProbe(server.Client(), server.URL)
		err := probe.Run(context.Background(), pair.PublicKeyPEM)
		assert.ErrorContains(t, err, "authentication")
	})

	t.Run("Error_StoredServedKeyDivergence", func(t *testing.T) {
		server := newProbeTarget(t, pair, true)
		defer server.Close()

		// Probe against a key the server does not hold: must surface the 421.
		other, err := GenerateKeyPair()
		require.NoError(t, err)

		probe := NewSelfTestProbe(server.Client(), server.URL)
		err = probe.Run(context.Background(), other.PublicKeyPEM)
		assert.ErrorContains(t, err, "421")
	})

	t.Run("Error_UnusablePublicKey", func(t *testing.T) {
		probe := NewSelfTestProbe(nil, "http://localhost:0")
		err := probe.Run(context.Background(), "not a key")
		assert.ErrorContains(t, err, "unusable")
	})
}
