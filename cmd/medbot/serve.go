package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/aar-healthcare/medbot"
	"github.com/aar-healthcare/medbot/infrastructure/api"
	"github.com/aar-healthcare/medbot/internal/config"
	"github.com/aar-healthcare/medbot/internal/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                         Server host to bind to (default: 0.0.0.0)
  PORT                         Server port to listen on (default: 5000)
  DATA_DIR                     Data directory (default: ~/.medbot)
  DB_URL                       Database URL (default: sqlite:///{data_dir}/aar_clinics.db)
  DATABASE_PATH                SQLite file, used when DB_URL is unset
  KNOWLEDGE_PATH               Knowledge files directory (default: {data_dir}/medical_knowledge)
  MODEL_DIR                    Local model directory (default: {data_dir}/models)
  LOG_LEVEL                    Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                   Log format: pretty, json (default: pretty)
  DEBUG_MODE                   Force DEBUG logging (default: false)
  HTTP_CACHE_DIR               Cache remote embedding responses on disk
  CORS_ALLOWED_ORIGINS         Comma-separated origins (default: *)

  EMBEDDING_ENDPOINT_*         Remote embedding service replacing the local model
    BASE_URL                   Base URL (e.g., http://localhost:8081/v1)
    MODEL                      Model identifier
    API_KEY                    API key for authentication
    NUM_PARALLEL_TASKS         Concurrent requests (default: 4)
    TIMEOUT                    Request timeout in seconds (default: 60)
    MAX_RETRIES                Retry attempts (default: 5)

Setup (clinic seed, knowledge embedding) completes before the server
accepts connections. A setup failure aborts the command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 5000)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return err
	}

	logger := log.Configure(cfg)
	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(context.Background(), slog.LevelInfo, "starting medbot", attrs...)

	client, err := medbot.New(clientOptions(cfg, logger)...)
	if err != nil {
		return fmt.Errorf("create medbot client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close medbot client", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := client.Setup(ctx); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	logger.Info("ready", slog.Duration("setup", time.Since(start)))

	apiServer := api.NewAPIServer(client, version, cfg.CORSAllowedOrigins(), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- apiServer.ListenAndServe(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
