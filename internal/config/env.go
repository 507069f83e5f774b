package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Nested structs use underscore delimiter (e.g., EMBEDDING_ENDPOINT_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 5000)
	Port int `envconfig:"PORT" default:"5000"`

	// DataDir is the data directory path.
	// Env: DATA_DIR
	// Default: ~/.medbot
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: DB_URL
	// Default: sqlite:///{data_dir}/aar_clinics.db
	DBURL string `envconfig:"DB_URL"`

	// DatabasePath is a SQLite file path, used when DB_URL is unset.
	// Env: DATABASE_PATH
	DatabasePath string `envconfig:"DATABASE_PATH"`

	// KnowledgePath is the directory holding the knowledge files.
	// Env: KNOWLEDGE_PATH
	// Default: {data_dir}/medical_knowledge
	KnowledgePath string `envconfig:"KNOWLEDGE_PATH"`

	// ModelDir is the local embedding model directory.
	// Env: MODEL_DIR
	// Default: {data_dir}/models
	ModelDir string `envconfig:"MODEL_DIR"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// DebugMode forces DEBUG logging.
	// Env: DEBUG_MODE (default: false)
	DebugMode bool `envconfig:"DEBUG_MODE" default:"false"`

	// HTTPCacheDir is the directory for caching remote embedding responses.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`

	// CORSAllowedOrigins is a comma-separated list of allowed origins.
	// Env: CORS_ALLOWED_ORIGINS (default: *)
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// EmbeddingEndpoint configures a remote embedding service.
	EmbeddingEndpoint EndpointEnv `envconfig:"EMBEDDING_ENDPOINT"`
}

// EndpointEnv holds environment configuration for an embedding endpoint.
type EndpointEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: *_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the model identifier.
	// Env: *_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: *_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// NumParallelTasks is the number of concurrent batches.
	// Env: *_NUM_PARALLEL_TASKS (default: 4)
	NumParallelTasks int `envconfig:"NUM_PARALLEL_TASKS" default:"4"`

	// Timeout is the request timeout in seconds.
	// Env: *_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: *_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: *_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: *_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// MaxBatchSize is the maximum number of texts per request.
	// Env: *_MAX_BATCH_SIZE (default: 16)
	MaxBatchSize int `envconfig:"MAX_BATCH_SIZE" default:"16"`
}

// LoadFromEnv loads configuration from environment variables without a prefix.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	var opts []AppConfigOption

	if e.Host != "" {
		opts = append(opts, WithHost(e.Host))
	}
	if e.Port != 0 {
		opts = append(opts, WithPort(e.Port))
	}
	if e.DataDir != "" {
		opts = append(opts, WithDataDir(e.DataDir))
	}
	switch {
	case e.DBURL != "":
		opts = append(opts, WithDBURL(e.DBURL))
	case e.DatabasePath != "":
		opts = append(opts, WithDatabasePath(e.DatabasePath))
	}
	if e.KnowledgePath != "" {
		opts = append(opts, WithKnowledgePath(e.KnowledgePath))
	}
	if e.ModelDir != "" {
		opts = append(opts, WithModelDir(e.ModelDir))
	}
	if e.LogLevel != "" {
		opts = append(opts, WithLogLevel(strings.ToUpper(e.LogLevel)))
	}
	if e.LogFormat != "" {
		opts = append(opts, WithLogFormat(parseLogFormat(e.LogFormat)))
	}
	opts = append(opts, WithDebugMode(e.DebugMode))
	if e.HTTPCacheDir != "" {
		opts = append(opts, WithHTTPCacheDir(e.HTTPCacheDir))
	}
	if e.CORSAllowedOrigins != "" {
		opts = append(opts, WithCORSAllowedOrigins(ParseOrigins(e.CORSAllowedOrigins)))
	}
	if e.EmbeddingEndpoint.IsConfigured() {
		opts = append(opts, WithEmbeddingEndpoint(e.EmbeddingEndpoint.ToEndpoint()))
	}

	return NewAppConfigWithOptions(opts...)
}

// IsConfigured returns true if the endpoint has a model configured.
func (e EndpointEnv) IsConfigured() bool {
	return e.Model != ""
}

// ToEndpoint converts EndpointEnv to Endpoint.
func (e EndpointEnv) ToEndpoint() Endpoint {
	opts := []EndpointOption{
		WithModel(e.Model),
		WithNumParallelTasks(e.NumParallelTasks),
		WithTimeout(seconds(e.Timeout)),
		WithMaxRetries(e.MaxRetries),
		WithInitialDelay(seconds(e.InitialDelay)),
		WithBackoffFactor(e.BackoffFactor),
		WithMaxBatchSize(e.MaxBatchSize),
	}
	if e.BaseURL != "" {
		opts = append(opts, WithBaseURL(e.BaseURL))
	}
	if e.APIKey != "" {
		opts = append(opts, WithAPIKey(e.APIKey))
	}
	return NewEndpointWithOptions(opts...)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
