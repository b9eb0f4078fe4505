package domain

import "encoding/json"

// Protocol constants fixed by the counterpart.
const (
	// AESKeySize is the size of the symmetric key wrapped in each envelope (AES-128).
	AESKeySize = 16
	// IVSize is the size of the GCM initialization vector on the wire.
	IVSize = 16
	// TagSize is the size of the GCM authentication tag appended to the ciphertext.
	TagSize = 16
)

// Action identifies the protocol step carried by a decrypted exchange.
// Beyond the predefined steps, the counterpart may send handler-defined
// custom actions; those pass through as-is.
type Action string

// Predefined protocol actions.
const (
	ActionPing         Action = "ping"
	ActionInit         Action = "INIT"
	ActionDataExchange Action = "data_exchange"
	ActionBack         Action = "BACK"
)

// FlowEnvelope is the encrypted wire request: all fields base64-encoded.
type FlowEnvelope struct {
	EncryptedFlowData string
	EncryptedAESKey   string
	InitialVector     string
}

// ExchangeRequest is the decrypted request body passed through to the
// business handler.
type ExchangeRequest struct {
	Version   string          `json:"version"`
	Action    Action          `json:"action"`
	Screen    string          `json:"screen,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	FlowToken string          `json:"flow_token,omitempty"`
}

// DecryptedExchange is the request-scoped result of unwrapping a FlowEnvelope.
// The key and IV must never be logged or persisted; callers zero them once
// the response has been encrypted.
type DecryptedExchange struct {
	Request *ExchangeRequest
	Body    json.RawMessage
	AESKey  []byte
	IV      []byte
}

// Discard zeroes the exchange's sensitive byte material.
func (d *DecryptedExchange) Discard() {
	Zero(d.AESKey)
	Zero(d.IV)
}

// PingResponse is the payload every health-check exchange must answer with,
// encrypted like any other response.
func PingResponse() map[string]any {
	return map[string]any{
		"data": map[string]any{
			"status": "active",
		},
	}
}

// ErrorResponse is the well-formed payload substituted when the business
// handler fails; the wire contract requires an encrypted body even then.
func ErrorResponse(message string) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"error_message": message,
		},
	}
}
