package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aar-healthcare/medbot"
	"github.com/aar-healthcare/medbot/internal/log"
	"github.com/aar-healthcare/medbot/internal/mcp"
	"github.com/spf13/cobra"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants ask medbot health questions and look up the
nearest AAR clinics. Logs go to stderr because stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return err
	}

	logger := log.NewLoggerWithWriter(os.Stderr, cfg.LogFormat(), cfg.LogLevel())
	logger.Info("starting MCP server",
		slog.String("version", version),
		slog.String("data_dir", cfg.DataDir()),
	)

	client, err := medbot.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create medbot client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close medbot client", slog.Any("error", err))
		}
	}()

	if err := client.Setup(context.Background()); err != nil {
		return fmt.Errorf("setup: %w", err)
	}

	return mcp.NewServer(client, client, version, logger).ServeStdio()
}
