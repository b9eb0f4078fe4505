// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rfgrow/vozzysmart1-sub008/cmd/app/commands"
)

var version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Encrypted flow data-exchange endpoint",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "key-status",
				Usage: "Show the stored key pair's public half and metadata",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunKeyStatus(ctx, cmd.String("format"))
				},
			},
			{
				Name:  "generate-key",
				Usage: "Replace the stored key pair with a freshly generated one and publish it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunGenerateKey(ctx, cmd.String("format"))
				},
			},
			{
				Name:  "import-key",
				Usage: "Replace the stored key pair with PEM files and publish the public half",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "private-key-file",
						Required: true,
						Usage:    "Path to the PEM-encoded RSA private key",
					},
					&cli.StringFlag{
						Name:     "public-key-file",
						Required: true,
						Usage:    "Path to the PEM-encoded RSA public key",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunImportKey(
						ctx,
						cmd.String("private-key-file"),
						cmd.String("public-key-file"),
						cmd.String("format"),
					)
				},
			},
			{
				Name:  "delete-key",
				Usage: "Delete the stored key pair (the rotation cooldown is kept)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunDeleteKey(ctx)
				},
			},
			{
				Name:  "generate-admin-key",
				Usage: "Generate an admin API key and print its Argon2id hash for configuration",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunGenerateAdminKey()
				},
			},
			{
				Name:  "self-test",
				Usage: "Probe the live endpoint with a synthetic encrypted ping",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunSelfTest(ctx)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
