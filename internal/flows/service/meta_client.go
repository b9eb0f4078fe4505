package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// MetaClient publishes the business public key to the counterpart's
// configuration API. Every call is best-effort and bounded by the caller's
// context: a failure only means the counterpart does not know the key yet,
// which later surfaces as a key mismatch and drives rotation.
type MetaClient struct {
	httpClient    *http.Client
	baseURL       string
	phoneNumberID string
	accessToken   string
}

// NewMetaClient creates a client for the counterpart's configuration API.
// The provided http.Client should carry a short timeout so a slow counterpart
// cannot stall callers.
func NewMetaClient(httpClient *http.Client, baseURL, phoneNumberID, accessToken string) *MetaClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &MetaClient{
		httpClient:    httpClient,
		baseURL:       strings.TrimRight(baseURL, "/"),
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
	}
}

// PublishPublicKey registers the public key PEM for the configured phone
// number. Returns an error on any transport or non-2xx failure; callers
// decide whether to surface or just log it.
func (m *MetaClient) PublishPublicKey(ctx context.Context, publicKeyPEM string) error {
	endpoint := fmt.Sprintf("%s/%s/whatsapp_business_encryption", m.baseURL, m.phoneNumberID)

	form := url.Values{}
	form.Set("business_public_key", publicKeyPEM)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return fmt.Errorf("failed to build public key request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+m.accessToken)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("public key publish failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Bounded read: error bodies are small JSON documents.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("public key publish rejected: status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
