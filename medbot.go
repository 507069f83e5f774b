// Package medbot provides the AAR medical-information chatbot as a library.
//
// A Client answers free-text health questions through a cascade of keyword
// matching, knowledge retrieval and semantic keyword matching, and ranks
// AAR clinics by distance from a location.
//
// Basic usage:
//
//	client, err := medbot.New(
//	    medbot.WithSQLite("aar_clinics.db"),
//	    medbot.WithDataDir(".medbot"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.Setup(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(client.Reply(ctx, "I have a headache"))
//
//	clinics, err := client.NearestClinics(ctx, -1.2921, 36.8219, 3)
package medbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aar-healthcare/medbot/application/service"
	"github.com/aar-healthcare/medbot/domain/chat"
	"github.com/aar-healthcare/medbot/domain/clinic"
	"github.com/aar-healthcare/medbot/infrastructure/persistence"
	"github.com/aar-healthcare/medbot/infrastructure/provider"
	"github.com/aar-healthcare/medbot/internal/catalog"
	"github.com/aar-healthcare/medbot/internal/config"
	"github.com/aar-healthcare/medbot/internal/database"
)

// Client is the main entry point for the medbot library.
//
// Setup runs once, on the first call to Setup, Reply, Answer or
// NearestClinics, and the resulting state is read-only afterwards.
type Client struct {
	db       database.Database
	embedder *provider.Batcher
	clinics  *service.Clinics
	chat     atomic.Pointer[service.Chat]

	keywords     chat.KeywordTable
	knowledge    []string
	seed         []clinic.Clinic
	knowledgeDir string
	closers      []io.Closer

	setupOnce sync.Once
	setupErr  error

	logger *slog.Logger
	closed atomic.Bool
	mu     sync.Mutex
}

// New creates a new Client with the given options. It opens and migrates
// the database and loads the embedding model; a missing model is fatal.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.dbURL == "" {
		return nil, ErrNoDatabase
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	keywords, texts, seed, err := resolveCatalog(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	knowledgeDir := cfg.knowledgeDir
	if knowledgeDir == "" {
		knowledgeDir = filepath.Join(cfg.dataDir, config.DefaultKnowledgeSubdir)
	}

	embeddingProvider := cfg.embeddingProvider
	if embeddingProvider == nil {
		modelDir := cfg.modelDir
		if modelDir == "" {
			modelDir = filepath.Join(cfg.dataDir, config.DefaultModelSubdir)
		}
		local := provider.NewLocalEmbedding(modelDir)
		if !local.Available() {
			return nil, fmt.Errorf("%w in %s: run download-model or configure an embedding endpoint", ErrNoEmbeddingModel, modelDir)
		}
		if err := local.Warm(); err != nil {
			return nil, fmt.Errorf("load embedding model: %w", err)
		}
		logger.Info("built-in embedding provider enabled", slog.String("model_dir", modelDir))
		embeddingProvider = local
	}

	ctx := context.Background()
	db, err := database.NewDatabase(ctx, cfg.dbURL, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := persistence.AutoMigrate(ctx, db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(err, errClose)
	}
	if err := persistence.ValidateSchema(ctx, db); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("validate schema: %w", err), errClose)
	}

	client := &Client{
		db:           db,
		embedder:     provider.NewBatcher(embeddingProvider, cfg.embeddingParallelism, logger),
		keywords:     keywords,
		knowledge:    texts,
		seed:         seed,
		knowledgeDir: knowledgeDir,
		closers:      cfg.closers,
		logger:       logger,
	}
	client.clinics = service.NewClinics(persistence.NewClinicStore(db), &client.closed, logger)
	return client, nil
}

func resolveCatalog(cfg *clientConfig) (chat.KeywordTable, []string, []clinic.Clinic, error) {
	var keywords chat.KeywordTable
	if cfg.keywords != nil {
		keywords = *cfg.keywords
	} else {
		table, err := catalog.Keywords()
		if err != nil {
			return chat.KeywordTable{}, nil, nil, err
		}
		keywords = table
	}

	texts := cfg.knowledge
	if texts == nil {
		built, err := catalog.Knowledge()
		if err != nil {
			return chat.KeywordTable{}, nil, nil, err
		}
		texts = built
	}

	seed := cfg.clinics
	if seed == nil {
		built, err := catalog.Clinics()
		if err != nil {
			return chat.KeywordTable{}, nil, nil, err
		}
		seed = built
	}
	return keywords, texts, seed, nil
}

// Setup seeds the clinic directory, loads or builds the knowledge base and
// embeds the keyword table. It runs at most once; later calls return the
// first result. Cancelling ctx does not abort a setup that other callers
// share.
func (c *Client) Setup(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	c.setupOnce.Do(func() {
		c.setupErr = c.setup(context.WithoutCancel(ctx))
	})
	return c.setupErr
}

func (c *Client) setup(ctx context.Context) error {
	if err := c.clinics.Seed(ctx, c.seed); err != nil {
		return err
	}

	store := persistence.NewKnowledgeFileStore(c.knowledgeDir)
	base, err := service.NewKnowledge(store, c.embedder, c.knowledge, c.logger).Setup(ctx)
	if err != nil {
		return err
	}

	selector, err := chat.NewSelector(c.keywords, base, c.embedder, c.logger)
	if err != nil {
		return err
	}
	if err := selector.Warm(ctx); err != nil {
		return fmt.Errorf("embed keywords: %w", err)
	}

	c.chat.Store(service.NewChat(selector, &c.closed, c.logger))
	c.logger.Info("setup complete",
		slog.Int("keywords", c.keywords.Len()),
		slog.Int("knowledge_chunks", base.Len()),
	)
	return nil
}

// Ready reports whether Setup has completed successfully.
func (c *Client) Ready() bool {
	return c.chat.Load() != nil && !c.closed.Load()
}

// Answer runs the response cascade and reports which tier answered.
func (c *Client) Answer(ctx context.Context, message string) (chat.Answer, error) {
	if strings.TrimSpace(message) == "" {
		return chat.Answer{}, service.ErrEmptyMessage
	}
	if err := c.Setup(ctx); err != nil {
		return chat.Answer{}, err
	}
	return c.chat.Load().Answer(ctx, message)
}

// Reply returns the chat response for message. It never fails: blank
// messages get chat.EmptyPrompt and errors get chat.ErrorApology.
func (c *Client) Reply(ctx context.Context, message string) string {
	if strings.TrimSpace(message) == "" {
		return chat.EmptyPrompt
	}
	if err := c.Setup(ctx); err != nil {
		c.logger.Error("chat unavailable", slog.String("error", err.Error()))
		return chat.ErrorApology
	}
	return c.chat.Load().Reply(ctx, message)
}

// NearestClinics returns the k clinics closest to (lat, lng), nearest first.
func (c *Client) NearestClinics(ctx context.Context, lat, lng float64, k int) ([]clinic.Ranked, error) {
	if err := c.Setup(ctx); err != nil {
		return nil, err
	}
	return c.clinics.Nearest(ctx, lat, lng, k)
}

// Close releases the embedding model, registered closers and the database.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.embedder.Close(); err != nil {
		c.logger.Error("failed to close embedding provider", slog.Any("error", err))
	}

	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			c.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}

	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}

	c.logger.Info("medbot client closed")
	return nil
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}
