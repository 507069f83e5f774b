package medbot

import (
	"io"
	"log/slog"

	"github.com/aar-healthcare/medbot/domain/chat"
	"github.com/aar-healthcare/medbot/domain/clinic"
	"github.com/aar-healthcare/medbot/infrastructure/provider"
	"github.com/aar-healthcare/medbot/internal/config"
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	dbURL                string
	dataDir              string
	knowledgeDir         string
	modelDir             string
	embeddingProvider    provider.Embedder
	embeddingParallelism int
	logger               *slog.Logger
	closers              []io.Closer

	keywords  *chat.KeywordTable
	knowledge []string
	clinics   []clinic.Clinic
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		dataDir:              config.DefaultDataDir(),
		embeddingParallelism: 1,
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite stores the clinic directory in a SQLite file.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.dbURL = config.SQLiteURL(path)
	}
}

// WithPostgres stores the clinic directory in PostgreSQL.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.dbURL = dsn
	}
}

// WithDatabaseURL accepts either sqlite:///path or postgres://... as
// produced by the configuration layer.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.dbURL = url
	}
}

// WithDataDir sets the base directory for model and knowledge files.
func WithDataDir(dir string) Option {
	return func(c *clientConfig) {
		c.dataDir = dir
	}
}

// WithKnowledgeDir sets where the knowledge texts and embeddings are kept.
// Defaults to {dataDir}/medical_knowledge.
func WithKnowledgeDir(dir string) Option {
	return func(c *clientConfig) {
		c.knowledgeDir = dir
	}
}

// WithModelDir sets the directory where built-in model files are stored.
// Defaults to {dataDir}/models.
func WithModelDir(dir string) Option {
	return func(c *clientConfig) {
		c.modelDir = dir
	}
}

// WithEmbeddingProvider replaces the built-in BioBERT model.
func WithEmbeddingProvider(p provider.Embedder) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = p
	}
}

// WithOpenAIConfig embeds through an OpenAI-compatible endpoint.
func WithOpenAIConfig(cfg provider.OpenAIConfig) Option {
	return func(c *clientConfig) {
		c.embeddingProvider = provider.NewOpenAIEmbedding(cfg)
	}
}

// WithEmbeddingParallelism sets how many embedding batches run at once.
// Values <= 0 are ignored.
func WithEmbeddingParallelism(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.embeddingParallelism = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}

// WithCloser registers a resource to be closed when the Client shuts down.
func WithCloser(closer io.Closer) Option {
	return func(c *clientConfig) {
		c.closers = append(c.closers, closer)
	}
}

// WithKeywords replaces the built-in keyword table.
func WithKeywords(table chat.KeywordTable) Option {
	return func(c *clientConfig) {
		c.keywords = &table
	}
}

// WithKnowledge replaces the built-in knowledge paragraphs.
func WithKnowledge(texts []string) Option {
	return func(c *clientConfig) {
		c.knowledge = texts
	}
}

// WithClinics replaces the built-in clinic seed list.
func WithClinics(clinics []clinic.Clinic) Option {
	return func(c *clientConfig) {
		c.clinics = clinics
	}
}
