package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aar-healthcare/medbot"
	"github.com/aar-healthcare/medbot/internal/log"
	"github.com/spf13/cobra"
)

func setupCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Prepare the database and knowledge files, then exit",
		Long: `Run migrations, seed the clinic table when it is empty and embed the
knowledge base if its files are missing. Running it during deployment
keeps the first "serve" start fast.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(context.Background(), envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runSetup(ctx context.Context, envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return err
	}

	logger := log.Configure(cfg)

	client, err := medbot.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create medbot client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close medbot client", slog.Any("error", err))
		}
	}()

	start := time.Now()
	if err := client.Setup(ctx); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	logger.Info("setup finished",
		slog.String("knowledge_path", cfg.KnowledgePath()),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}
