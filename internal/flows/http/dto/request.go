// Package dto defines the HTTP request and response shapes for the flow
// endpoint and its administrative key surface.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/rfgrow/vozzysmart1-sub008/internal/validation"
)

// ExchangeRequest is the encrypted envelope posted by the counterpart.
// All three fields are mandatory base64 strings; anything else is rejected
// before the crypto layer sees it.
type ExchangeRequest struct {
	EncryptedFlowData string `json:"encrypted_flow_data"`
	EncryptedAESKey   string `json:"encrypted_aes_key"`
	InitialVector     string `json:"initial_vector"`
}

// Validate validates the exchange request fields.
func (r ExchangeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EncryptedFlowData,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
		validation.Field(&r.EncryptedAESKey,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
		validation.Field(&r.InitialVector,
			validation.Required,
			customValidation.NotBlank,
			customValidation.Base64,
		),
	)
}

// ReplaceKeyRequest replaces the active key pair. With no body (or an empty
// one) a fresh pair is generated; with both PEM fields set the given material
// is imported. Providing only one half is invalid.
type ReplaceKeyRequest struct {
	PrivateKeyPEM string `json:"private_key_pem"`
	PublicKeyPEM  string `json:"public_key_pem"`
}

// Validate validates the replace request fields.
func (r ReplaceKeyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PrivateKeyPEM,
			validation.Required.When(r.PublicKeyPEM != "").
				Error("must be provided together with public_key_pem"),
			customValidation.PEMBlock,
		),
		validation.Field(&r.PublicKeyPEM,
			validation.Required.When(r.PrivateKeyPEM != "").
				Error("must be provided together with private_key_pem"),
			customValidation.PEMBlock,
		),
	)
}

// IsImport reports whether the request carries key material to import.
func (r ReplaceKeyRequest) IsImport() bool {
	return r.PrivateKeyPEM != "" || r.PublicKeyPEM != ""
}
