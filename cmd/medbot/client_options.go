package main

import (
	"log/slog"

	"github.com/aar-healthcare/medbot"
	"github.com/aar-healthcare/medbot/infrastructure/provider"
	"github.com/aar-healthcare/medbot/internal/config"
)

// clientOptions returns the medbot.Option slice derived from AppConfig:
// database, file locations and embedding provider.
func clientOptions(cfg config.AppConfig, logger *slog.Logger) []medbot.Option {
	opts := []medbot.Option{
		medbot.WithDatabaseURL(cfg.DBURL()),
		medbot.WithDataDir(cfg.DataDir()),
		medbot.WithKnowledgeDir(cfg.KnowledgePath()),
		medbot.WithModelDir(cfg.ModelDir()),
		medbot.WithLogger(logger),
	}
	return append(opts, embeddingOptions(cfg)...)
}

// embeddingOptions returns the remote embedding options when an endpoint
// is configured. Without one the client uses the local BioBERT model.
func embeddingOptions(cfg config.AppConfig) []medbot.Option {
	endpoint := cfg.EmbeddingEndpoint()
	if endpoint == nil || !endpoint.IsConfigured() {
		return nil
	}

	return []medbot.Option{
		medbot.WithOpenAIConfig(provider.OpenAIConfig{
			APIKey:        endpoint.APIKey(),
			BaseURL:       endpoint.BaseURL(),
			Model:         endpoint.Model(),
			Timeout:       endpoint.Timeout(),
			MaxRetries:    endpoint.MaxRetries(),
			InitialDelay:  endpoint.InitialDelay(),
			BackoffFactor: endpoint.BackoffFactor(),
			BatchSize:     endpoint.MaxBatchSize(),
			CacheDir:      cfg.HTTPCacheDir(),
		}),
		medbot.WithEmbeddingParallelism(endpoint.NumParallelTasks()),
	}
}
