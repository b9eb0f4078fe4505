package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretService(t *testing.T) {
	service := NewSecretService()

	t.Run("GenerateAndVerify", func(t *testing.T) {
		plain, hashed, err := service.GenerateSecret()
		require.NoError(t, err)

		assert.NotEmpty(t, plain)
		assert.True(t, strings.HasPrefix(hashed, "$argon2id$"))
		assert.True(t, service.CompareSecret(plain, hashed))
	})

	t.Run("RejectsWrongSecret", func(t *testing.T) {
		_, hashed, err := service.GenerateSecret()
		require.NoError(t, err)

		assert.False(t, service.CompareSecret("wrong-secret", hashed))
	})

	t.Run("RejectsCorruptHash", func(t *testing.T) {
		assert.False(t, service.CompareSecret("anything", "not-a-hash"))
	})

	t.Run("UniqueSecrets", func(t *testing.T) {
		first, _, err := service.GenerateSecret()
		require.NoError(t, err)
		second, _, err := service.GenerateSecret()
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}
