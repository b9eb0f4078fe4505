// Package validation provides custom validation rules for the application.
package validation

import (
	"encoding/base64"
	"encoding/pem"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/rfgrow/vozzysmart1-sub008/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Base64 validates that a string is valid base64-encoded data.
var Base64 = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	_, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	return nil
})

// PEMBlock validates that a string contains at least one PEM block.
var PEMBlock = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_pem_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if block, _ := pem.Decode([]byte(s)); block == nil {
		return validation.NewError("validation_pem", "must be PEM-encoded data")
	}
	return nil
})
