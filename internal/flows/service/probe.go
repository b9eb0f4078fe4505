package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/domain"
)

// SelfTestProbe verifies the live endpoint end to end: it builds a synthetic
// envelope exactly as a real counterpart would, issues the request, and
// decrypts the answer with the flipped IV. A pass proves the stored and
// served keys agree and that the response IV transform is intact.
type SelfTestProbe struct {
	httpClient  *http.Client
	endpointURL string
}

// NewSelfTestProbe creates a probe targeting the given data-exchange endpoint.
func NewSelfTestProbe(httpClient *http.Client, endpointURL string) *SelfTestProbe {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SelfTestProbe{
		httpClient:  httpClient,
		endpointURL: endpointURL,
	}
}

// probeRequest is the wire shape of the encrypted envelope.
type probeRequest struct {
	EncryptedFlowData string `json:"encrypted_flow_data"`
	EncryptedAESKey   string `json:"encrypted_aes_key"`
	InitialVector     string `json:"initial_vector"`
}

// Run executes one roundtrip against the endpoint using the currently stored
// public key PEM. Returns an error when any stage fails: envelope
// construction, transport, status, or response decryption.
func (p *SelfTestProbe) Run(ctx context.Context, publicKeyPEM string) error {
	publicKey, err := ParsePublicKey([]byte(publicKeyPEM))
	if err != nil {
		return fmt.Errorf("stored public key is unusable: %w", err)
	}

	aesKey := make([]byte, domain.AESKeySize)
	if _, err := rand.Read(aesKey); err != nil {
		return fmt.Errorf("failed to generate probe key: %w", err)
	}
	defer domain.Zero(aesKey)

	iv := make([]byte, domain.IVSize)
	if _, err := rand.Read(iv); err != nil {
		return fmt.Errorf("failed to generate probe iv: %w", err)
	}

	envelope, err := p.buildEnvelope(publicKey, aesKey, iv)
	if err != nil {
		return err
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to serialize probe request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpointURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read probe response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe rejected: status %d: %s", resp.StatusCode, string(respBody))
	}

	return p.verifyResponse(respBody, aesKey, iv)
}

// buildEnvelope encrypts a ping request the way a real counterpart does:
// AES-128-GCM over the plaintext, RSA-OAEP/SHA-256 over the AES key.
func (p *SelfTestProbe) buildEnvelope(
	publicKey *rsa.PublicKey,
	aesKey, iv []byte,
) (*probeRequest, error) {
	plaintext, err := json.Marshal(domain.ExchangeRequest{
		Version: "3.0",
		Action:  domain.ActionPing,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize probe payload: %w", err)
	}

	aead, err := newAEAD(aesKey, len(iv))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize probe cipher: %w", err)
	}
	sealed := aead.Seal(nil, iv, plaintext, nil)

	wrappedKey, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, publicKey, aesKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap probe key: %w", err)
	}

	return &probeRequest{
		EncryptedFlowData: base64.StdEncoding.EncodeToString(sealed),
		EncryptedAESKey:   base64.StdEncoding.EncodeToString(wrappedKey),
		InitialVector:     base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// verifyResponse decrypts the endpoint's base64 body with the flipped IV and
// checks the ping status. Tag verification failing here means stored/served
// key divergence or an IV-flip regression.
func (p *SelfTestProbe) verifyResponse(respBody, aesKey, iv []byte) error {
	sealed, err := base64.StdEncoding.DecodeString(string(respBody))
	if err != nil {
		return fmt.Errorf("probe response is not valid base64: %w", err)
	}

	aead, err := newAEAD(aesKey, len(iv))
	if err != nil {
		return fmt.Errorf("failed to initialize probe cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, FlipIV(iv), sealed, nil)
	if err != nil {
		return fmt.Errorf("probe response failed authentication: %w", err)
	}

	var payload struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return fmt.Errorf("probe response is not valid JSON: %w", err)
	}

	if payload.Data.Status != "active" {
		return fmt.Errorf("unexpected probe status %q", payload.Data.Status)
	}
	return nil
}
