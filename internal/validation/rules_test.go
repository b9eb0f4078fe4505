package validation

import (
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"
)

func TestNotBlank(t *testing.T) {
	assert.NoError(t, validation.Validate("value", NotBlank))
	assert.Error(t, validation.Validate("   ", NotBlank))
	assert.NoError(t, validation.Validate("", NotBlank)) // Required handles empty
}

func TestBase64(t *testing.T) {
	assert.NoError(t, validation.Validate("aGVsbG8=", Base64))
	assert.NoError(t, validation.Validate("", Base64)) // Required handles empty
	assert.Error(t, validation.Validate("not-base64!@#", Base64))
}

func TestPEMBlock(t *testing.T) {
	pemData := "-----BEGIN PUBLIC KEY-----\nYWJjZGVmZ2hpamtsbW5vcA==\n-----END PUBLIC KEY-----\n"
	assert.NoError(t, validation.Validate(pemData, PEMBlock))
	assert.NoError(t, validation.Validate("", PEMBlock))
	assert.Error(t, validation.Validate("plain text", PEMBlock))
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(validation.NewError("validation_test", "failed"))
	assert.Error(t, err)
}
