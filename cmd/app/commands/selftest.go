package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rfgrow/vozzysmart1-sub008/internal/app"
	"github.com/rfgrow/vozzysmart1-sub008/internal/config"
)

// RunSelfTest probes the configured live endpoint with a synthetic encrypted
// ping and verifies the decrypted answer, proving the stored and served keys
// agree and the response IV transform is intact.
func RunSelfTest(ctx context.Context) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	lifecycle, err := container.KeyLifecycleUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize key lifecycle: %w", err)
	}

	status, err := lifecycle.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get key status: %w", err)
	}
	if !status.Configured {
		return fmt.Errorf("no key pair configured; run generate-key first")
	}

	logger.Info("running self-test probe", slog.String("endpoint", cfg.FlowEndpointURL))

	if err := container.SelfTestProbe().Run(ctx, status.PublicKeyPEM); err != nil {
		return fmt.Errorf("self-test failed: %w", err)
	}

	fmt.Fprintln(DefaultIO().Writer, "Self-test passed: endpoint decrypts and answers correctly.")
	return nil
}
