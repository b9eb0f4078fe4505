package dto

import (
	"time"

	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/usecase"
)

// MetaSyncResponse reports the outcome of the synchronous public key publish
// that accompanies operator-driven key replacement.
type MetaSyncResponse struct {
	Synced bool   `json:"synced"`
	Error  string `json:"error,omitempty"`
}

// KeyStatusResponse describes the active key pair. The private half never
// appears in any response.
type KeyStatusResponse struct {
	Configured   bool       `json:"configured"`
	PublicKeyPEM string     `json:"public_key_pem,omitempty"`
	GeneratedAt  *time.Time `json:"generated_at,omitempty"`
}

// ReplaceKeyResponse is returned after a generate or import operation.
type ReplaceKeyResponse struct {
	ID           string           `json:"id"`
	PublicKeyPEM string           `json:"public_key_pem"`
	GeneratedAt  time.Time        `json:"generated_at"`
	MetaSync     MetaSyncResponse `json:"meta_sync"`
}

// MapKeyStatusResponse converts a use case key status to its response shape.
func MapKeyStatusResponse(status *usecase.KeyStatus) KeyStatusResponse {
	response := KeyStatusResponse{Configured: status.Configured}
	if status.Configured {
		response.PublicKeyPEM = status.PublicKeyPEM
		generatedAt := status.GeneratedAt
		response.GeneratedAt = &generatedAt
	}
	return response
}

// MapMetaSyncResponse converts a sync result to its response shape.
func MapMetaSyncResponse(result usecase.MetaSyncResult) MetaSyncResponse {
	return MetaSyncResponse{Synced: result.Success, Error: result.Error}
}
