package commands

import (
	"fmt"

	"github.com/rfgrow/vozzysmart1-sub008/internal/auth"
)

// RunGenerateAdminKey mints a new admin API key. The plain key is printed
// once for the operator; only the Argon2id hash goes into configuration.
func RunGenerateAdminKey() error {
	return generateAdminKey(auth.NewSecretService(), DefaultIO())
}

func generateAdminKey(secretService auth.SecretService, io IOTuple) error {
	plain, hashed, err := secretService.GenerateSecret()
	if err != nil {
		return fmt.Errorf("failed to generate admin key: %w", err)
	}

	fmt.Fprintf(io.Writer, "Admin API key (store it now, it is not shown again):\n%s\n\n", plain)
	fmt.Fprintf(io.Writer, "Set in the environment:\nADMIN_API_KEY_HASH=%s\n", hashed)
	return nil
}
