package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rfgrow/vozzysmart1-sub008/internal/app"
	"github.com/rfgrow/vozzysmart1-sub008/internal/config"
	"github.com/rfgrow/vozzysmart1-sub008/internal/flows/usecase"
)

// keyOutput is the printable result of a key replacement command.
type keyOutput struct {
	ID           string    `json:"id"`
	PublicKeyPEM string    `json:"public_key_pem"`
	GeneratedAt  time.Time `json:"generated_at"`
	Synced       bool      `json:"synced"`
	SyncError    string    `json:"sync_error,omitempty"`
}

// RunKeyStatus prints the stored key pair's public half and metadata.
func RunKeyStatus(ctx context.Context, format string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	lifecycle, err := container.KeyLifecycleUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize key lifecycle: %w", err)
	}

	return keyStatus(ctx, lifecycle, DefaultIO(), format)
}

func keyStatus(ctx context.Context, lifecycle usecase.KeyLifecycleUseCase, io IOTuple, format string) error {
	status, err := lifecycle.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get key status: %w", err)
	}

	if format == "json" {
		encoder := json.NewEncoder(io.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(status)
	}

	if !status.Configured {
		fmt.Fprintln(io.Writer, "No key pair configured.")
		return nil
	}

	fmt.Fprintf(io.Writer, "Generated at: %s\n", status.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(io.Writer, "Public key:\n%s", status.PublicKeyPEM)
	return nil
}

// RunGenerateKey replaces the stored key pair with a freshly generated one
// and publishes the public half to the counterpart.
func RunGenerateKey(ctx context.Context, format string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	lifecycle, err := container.KeyLifecycleUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize key lifecycle: %w", err)
	}

	return generateKey(ctx, lifecycle, DefaultIO(), format)
}

func generateKey(ctx context.Context, lifecycle usecase.KeyLifecycleUseCase, io IOTuple, format string) error {
	pair, sync, err := lifecycle.GenerateKeyPair(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate key pair: %w", err)
	}

	return printKeyOutput(io, format, keyOutput{
		ID:           pair.ID.String(),
		PublicKeyPEM: pair.PublicKeyPEM,
		GeneratedAt:  pair.GeneratedAt,
		Synced:       sync.Success,
		SyncError:    sync.Error,
	})
}

// RunImportKey replaces the stored key pair with PEM material read from the
// given files and publishes the public half.
func RunImportKey(ctx context.Context, privateKeyFile, publicKeyFile, format string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	lifecycle, err := container.KeyLifecycleUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize key lifecycle: %w", err)
	}

	privatePEM, err := os.ReadFile(privateKeyFile)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %w", err)
	}

	publicPEM, err := os.ReadFile(publicKeyFile)
	if err != nil {
		return fmt.Errorf("failed to read public key file: %w", err)
	}

	return importKey(ctx, lifecycle, privatePEM, publicPEM, DefaultIO(), format)
}

func importKey(
	ctx context.Context,
	lifecycle usecase.KeyLifecycleUseCase,
	privatePEM, publicPEM []byte,
	io IOTuple,
	format string,
) error {
	pair, sync, err := lifecycle.ImportKeyPair(ctx, privatePEM, publicPEM)
	if err != nil {
		return fmt.Errorf("failed to import key pair: %w", err)
	}

	return printKeyOutput(io, format, keyOutput{
		ID:           pair.ID.String(),
		PublicKeyPEM: pair.PublicKeyPEM,
		GeneratedAt:  pair.GeneratedAt,
		Synced:       sync.Success,
		SyncError:    sync.Error,
	})
}

// RunDeleteKey deletes the stored key pair. The rotation cooldown survives so
// deletion cannot be used to force an early rotation.
func RunDeleteKey(ctx context.Context) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	lifecycle, err := container.KeyLifecycleUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize key lifecycle: %w", err)
	}

	if err := lifecycle.DeleteKeyPair(ctx); err != nil {
		return fmt.Errorf("failed to delete key pair: %w", err)
	}

	fmt.Fprintln(DefaultIO().Writer, "Key pair deleted.")
	return nil
}

// printKeyOutput writes a key replacement result in the requested format.
// The private half never appears here; only the database holds it.
func printKeyOutput(io IOTuple, format string, output keyOutput) error {
	if format == "json" {
		encoder := json.NewEncoder(io.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(output)
	}

	fmt.Fprintf(io.Writer, "Key pair %s generated at %s\n", output.ID, output.GeneratedAt.Format(time.RFC3339))
	if output.Synced {
		fmt.Fprintln(io.Writer, "Public key synced to counterpart.")
	} else {
		fmt.Fprintf(io.Writer, "WARNING: public key sync failed: %s\n", output.SyncError)
		fmt.Fprintln(io.Writer, "Publish the key below manually before the counterpart can reach this endpoint.")
	}
	fmt.Fprintf(io.Writer, "Public key:\n%s", output.PublicKeyPEM)
	return nil
}
