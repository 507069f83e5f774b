// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost                  = "0.0.0.0"
	DefaultPort                  = 5000
	DefaultLogLevel              = "INFO"
	DefaultDBFile                = "aar_clinics.db"
	DefaultKnowledgeSubdir       = "medical_knowledge"
	DefaultModelSubdir           = "models"
	DefaultCORSAllowedOrigins    = "*"
	DefaultEndpointParallelTasks = 4
	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
	DefaultEndpointMaxBatchSize  = 16
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures a remote OpenAI-compatible embedding service.
type Endpoint struct {
	baseURL          string
	model            string
	apiKey           string
	numParallelTasks int
	timeout          time.Duration
	maxRetries       int
	initialDelay     time.Duration
	backoffFactor    float64
	maxBatchSize     int
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		numParallelTasks: DefaultEndpointParallelTasks,
		timeout:          DefaultEndpointTimeout,
		maxRetries:       DefaultEndpointMaxRetries,
		initialDelay:     DefaultEndpointInitialDelay,
		backoffFactor:    DefaultEndpointBackoffFactor,
		maxBatchSize:     DefaultEndpointMaxBatchSize,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// NumParallelTasks returns how many batches may be in flight at once.
func (e Endpoint) NumParallelTasks() int { return e.numParallelTasks }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the delay before the first retry.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// MaxBatchSize returns the maximum number of texts per request.
func (e Endpoint) MaxBatchSize() int { return e.maxBatchSize }

// IsConfigured returns true if the endpoint has a model.
func (e Endpoint) IsConfigured() bool {
	return e.model != ""
}

// EndpointOption is a functional option for Endpoint.
type EndpointOption func(*Endpoint)

// WithBaseURL sets the base URL.
func WithBaseURL(url string) EndpointOption {
	return func(e *Endpoint) { e.baseURL = url }
}

// WithModel sets the model identifier.
func WithModel(model string) EndpointOption {
	return func(e *Endpoint) { e.model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) EndpointOption {
	return func(e *Endpoint) { e.apiKey = key }
}

// WithNumParallelTasks sets the batch concurrency.
func WithNumParallelTasks(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.numParallelTasks = n
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.timeout = d }
}

// WithMaxRetries sets the maximum retry count.
func WithMaxRetries(n int) EndpointOption {
	return func(e *Endpoint) { e.maxRetries = n }
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) EndpointOption {
	return func(e *Endpoint) { e.initialDelay = d }
}

// WithBackoffFactor sets the retry backoff multiplier.
func WithBackoffFactor(f float64) EndpointOption {
	return func(e *Endpoint) { e.backoffFactor = f }
}

// WithMaxBatchSize sets the maximum number of texts per request.
func WithMaxBatchSize(n int) EndpointOption {
	return func(e *Endpoint) {
		if n > 0 {
			e.maxBatchSize = n
		}
	}
}

// NewEndpointWithOptions creates an Endpoint with functional options.
func NewEndpointWithOptions(opts ...EndpointOption) Endpoint {
	e := NewEndpoint()
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// AppConfig holds the main application configuration.
type AppConfig struct {
	host               string
	port               int
	dataDir            string
	dbURL              string
	knowledgePath      string
	modelDir           string
	logLevel           string
	logFormat          LogFormat
	debugMode          bool
	httpCacheDir       string
	corsAllowedOrigins []string
	embeddingEndpoint  *Endpoint
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".medbot"
	}
	return filepath.Join(home, ".medbot")
}

// SQLiteURL returns the database URL for a SQLite file.
func SQLiteURL(path string) string {
	return "sqlite:///" + path
}

// NewAppConfig creates a new AppConfig with defaults.
func NewAppConfig() AppConfig {
	dataDir := DefaultDataDir()
	return AppConfig{
		host:               DefaultHost,
		port:               DefaultPort,
		dataDir:            dataDir,
		dbURL:              SQLiteURL(filepath.Join(dataDir, DefaultDBFile)),
		logLevel:           DefaultLogLevel,
		logFormat:          LogFormatPretty,
		corsAllowedOrigins: []string{DefaultCORSAllowedOrigins},
	}
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port to listen on.
func (c AppConfig) Port() int { return c.port }

// Addr returns the combined host:port address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// KnowledgePath returns the directory holding the knowledge files.
// It defaults to a subdirectory of the data directory.
func (c AppConfig) KnowledgePath() string {
	if c.knowledgePath != "" {
		return c.knowledgePath
	}
	return filepath.Join(c.dataDir, DefaultKnowledgeSubdir)
}

// ModelDir returns the directory holding the local embedding model.
func (c AppConfig) ModelDir() string {
	if c.modelDir != "" {
		return c.modelDir
	}
	return filepath.Join(c.dataDir, DefaultModelSubdir)
}

// LogLevel returns the log level. Debug mode forces DEBUG.
func (c AppConfig) LogLevel() string {
	if c.debugMode {
		return "DEBUG"
	}
	return c.logLevel
}

// LogFormat returns the log format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// DebugMode returns whether debug mode is on.
func (c AppConfig) DebugMode() bool { return c.debugMode }

// HTTPCacheDir returns the on-disk cache directory for remote embedding calls.
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// CORSAllowedOrigins returns the origins allowed by the CORS middleware.
func (c AppConfig) CORSAllowedOrigins() []string {
	origins := make([]string, len(c.corsAllowedOrigins))
	copy(origins, c.corsAllowedOrigins)
	return origins
}

// EmbeddingEndpoint returns the remote embedding endpoint, or nil when the
// local model is used.
func (c AppConfig) EmbeddingEndpoint() *Endpoint { return c.embeddingEndpoint }

// EnsureDataDir creates the data directory if it doesn't exist.
func (c AppConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDataDir sets the data directory.
func WithDataDir(dir string) AppConfigOption {
	return func(c *AppConfig) {
		// Keep the default DB URL next to the data.
		if c.dbURL == "" || c.dbURL == SQLiteURL(filepath.Join(c.dataDir, DefaultDBFile)) {
			c.dbURL = SQLiteURL(filepath.Join(dir, DefaultDBFile))
		}
		c.dataDir = dir
	}
}

// WithDBURL sets the database URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithDatabasePath sets a SQLite database file.
func WithDatabasePath(path string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = SQLiteURL(path) }
}

// WithKnowledgePath sets the knowledge files directory.
func WithKnowledgePath(path string) AppConfigOption {
	return func(c *AppConfig) { c.knowledgePath = path }
}

// WithModelDir sets the local model directory.
func WithModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.modelDir = dir }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithDebugMode sets debug mode.
func WithDebugMode(enabled bool) AppConfigOption {
	return func(c *AppConfig) { c.debugMode = enabled }
}

// WithHTTPCacheDir sets the HTTP response cache directory.
func WithHTTPCacheDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.httpCacheDir = dir }
}

// WithCORSAllowedOrigins sets the allowed CORS origins.
func WithCORSAllowedOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) {
		c.corsAllowedOrigins = make([]string, len(origins))
		copy(c.corsAllowedOrigins, origins)
	}
}

// WithEmbeddingEndpoint sets the remote embedding endpoint.
func WithEmbeddingEndpoint(e Endpoint) AppConfigOption {
	return func(c *AppConfig) { c.embeddingEndpoint = &e }
}

// NewAppConfigWithOptions creates an AppConfig with functional options.
func NewAppConfigWithOptions(opts ...AppConfigOption) AppConfig {
	c := NewAppConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Apply returns a new AppConfig with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// LogAttrs returns slog attributes for logging the configuration.
// Credentials are never included.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.String("data_dir", c.dataDir),
		slog.String("db_url", c.maskedDBURL()),
		slog.String("knowledge_path", c.KnowledgePath()),
		slog.String("model_dir", c.ModelDir()),
		slog.String("log_level", c.LogLevel()),
		slog.String("embedding_base_url", c.endpointBaseURL()),
		slog.String("embedding_model", c.endpointModel()),
		slog.Any("cors_allowed_origins", c.corsAllowedOrigins),
	}
}

func (c AppConfig) maskedDBURL() string {
	if c.dbURL == "" {
		return "(default)"
	}
	if strings.HasPrefix(c.dbURL, "sqlite:") {
		return c.dbURL
	}
	return "postgres://***@***"
}

func (c AppConfig) endpointBaseURL() string {
	if c.embeddingEndpoint == nil {
		return "(local model)"
	}
	return c.embeddingEndpoint.BaseURL()
}

func (c AppConfig) endpointModel() string {
	if c.embeddingEndpoint == nil {
		return "(local model)"
	}
	return c.embeddingEndpoint.Model()
}

// ParseOrigins parses a comma-separated list of CORS origins.
func ParseOrigins(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
