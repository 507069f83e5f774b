package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, "", cfg.DBURL)
	assert.Equal(t, "", cfg.DatabasePath)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "pretty", cfg.LogFormat)
	assert.False(t, cfg.DebugMode)
	assert.Equal(t, "*", cfg.CORSAllowedOrigins)
	assert.False(t, cfg.EmbeddingEndpoint.IsConfigured())
}

func TestEnvDefaults_MatchConfigDefaults(t *testing.T) {
	// Struct tag defaults must be literals; keep them in sync with the constants.
	clearEnvVars(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultCORSAllowedOrigins, cfg.CORSAllowedOrigins)
	assert.Equal(t, DefaultEndpointParallelTasks, cfg.EmbeddingEndpoint.NumParallelTasks)
	assert.Equal(t, DefaultEndpointTimeout.Seconds(), cfg.EmbeddingEndpoint.Timeout)
	assert.Equal(t, DefaultEndpointMaxRetries, cfg.EmbeddingEndpoint.MaxRetries)
	assert.Equal(t, DefaultEndpointInitialDelay.Seconds(), cfg.EmbeddingEndpoint.InitialDelay)
	assert.Equal(t, DefaultEndpointBackoffFactor, cfg.EmbeddingEndpoint.BackoffFactor)
	assert.Equal(t, DefaultEndpointMaxBatchSize, cfg.EmbeddingEndpoint.MaxBatchSize)
}

func TestLoadFromEnv_OverrideValues(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9000")
	t.Setenv("DATA_DIR", "/custom/data")
	t.Setenv("DB_URL", "postgres://localhost/medbot")
	t.Setenv("KNOWLEDGE_PATH", "/custom/knowledge")
	t.Setenv("MODEL_DIR", "/custom/models")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("DEBUG_MODE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://aar.example")

	env, err := LoadFromEnv()
	require.NoError(t, err)
	cfg := env.ToAppConfig()

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.Equal(t, "/custom/data", cfg.DataDir())
	assert.Equal(t, "postgres://localhost/medbot", cfg.DBURL())
	assert.Equal(t, "/custom/knowledge", cfg.KnowledgePath())
	assert.Equal(t, "/custom/models", cfg.ModelDir())
	assert.Equal(t, "DEBUG", cfg.LogLevel())
	assert.Equal(t, LogFormatJSON, cfg.LogFormat())
	assert.True(t, cfg.DebugMode())
	assert.Equal(t, []string{"https://aar.example"}, cfg.CORSAllowedOrigins())
}

func TestLoadFromEnv_DatabasePath(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DATABASE_PATH", "aar_clinics.db")

	env, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite:///aar_clinics.db", env.ToAppConfig().DBURL())
}

func TestLoadFromEnv_DBURLWinsOverDatabasePath(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("DATABASE_PATH", "aar_clinics.db")
	t.Setenv("DB_URL", "postgres://db/medbot")

	env, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres://db/medbot", env.ToAppConfig().DBURL())
}

func TestLoadFromEnv_EmbeddingEndpoint(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("EMBEDDING_ENDPOINT_BASE_URL", "http://localhost:8000/v1")
	t.Setenv("EMBEDDING_ENDPOINT_MODEL", "dmis-lab/biobert-base-cased-v1.1")
	t.Setenv("EMBEDDING_ENDPOINT_API_KEY", "sk-test")
	t.Setenv("EMBEDDING_ENDPOINT_TIMEOUT", "30")
	t.Setenv("EMBEDDING_ENDPOINT_MAX_RETRIES", "2")
	t.Setenv("EMBEDDING_ENDPOINT_INITIAL_DELAY", "0.5")

	env, err := LoadFromEnv()
	require.NoError(t, err)

	endpoint := env.ToAppConfig().EmbeddingEndpoint()
	require.NotNil(t, endpoint)
	assert.Equal(t, "http://localhost:8000/v1", endpoint.BaseURL())
	assert.Equal(t, "dmis-lab/biobert-base-cased-v1.1", endpoint.Model())
	assert.Equal(t, "sk-test", endpoint.APIKey())
	assert.Equal(t, 30*time.Second, endpoint.Timeout())
	assert.Equal(t, 2, endpoint.MaxRetries())
	assert.Equal(t, 500*time.Millisecond, endpoint.InitialDelay())
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, LogFormatJSON, parseLogFormat("JSON"))
	assert.Equal(t, LogFormatPretty, parseLogFormat("pretty"))
	assert.Equal(t, LogFormatPretty, parseLogFormat("anything"))
}

func TestLoadDotEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "DATA_DIR=/from/dotenv\nLOG_LEVEL=DEBUG\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)

	require.NoError(t, LoadDotEnv(envFile))

	assert.Equal(t, "/from/dotenv", os.Getenv("DATA_DIR"))
	assert.Equal(t, "DEBUG", os.Getenv("LOG_LEVEL"))
}

func TestLoadDotEnv_NonExistent(t *testing.T) {
	clearEnvVars(t)

	assert.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadConfig(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "DATA_DIR=/config/data\nLOG_LEVEL=WARN\nPORT=6000\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	clearEnvVars(t)
	t.Setenv("PORT", "7000")

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/config/data", cfg.DataDir())
	assert.Equal(t, "WARN", cfg.LogLevel())
	// The real environment beats the file.
	assert.Equal(t, 7000, cfg.Port())
}

func TestLoadDotEnvFromFiles_FirstFileWins(t *testing.T) {
	tmpDir := t.TempDir()
	env1 := filepath.Join(tmpDir, ".env")
	require.NoError(t, os.WriteFile(env1, []byte("KEY1=value1\nKEY2=value2\n"), 0o644))
	env2 := filepath.Join(tmpDir, ".env.local")
	require.NoError(t, os.WriteFile(env2, []byte("KEY2=override\nKEY3=value3\n"), 0o644))

	clearEnvVars(t)

	require.NoError(t, LoadDotEnvFromFiles(env1, filepath.Join(tmpDir, "missing"), env2))

	assert.Equal(t, "value1", os.Getenv("KEY1"))
	assert.Equal(t, "value2", os.Getenv("KEY2"))
	assert.Equal(t, "value3", os.Getenv("KEY3"))
}

// clearEnvVars unsets every config variable for the duration of the test.
func clearEnvVars(t *testing.T) {
	t.Helper()

	vars := []string{
		"HOST",
		"PORT",
		"DATA_DIR",
		"DB_URL",
		"DATABASE_PATH",
		"KNOWLEDGE_PATH",
		"MODEL_DIR",
		"LOG_LEVEL",
		"LOG_FORMAT",
		"DEBUG_MODE",
		"HTTP_CACHE_DIR",
		"CORS_ALLOWED_ORIGINS",
		"EMBEDDING_ENDPOINT_BASE_URL",
		"EMBEDDING_ENDPOINT_MODEL",
		"EMBEDDING_ENDPOINT_API_KEY",
		"EMBEDDING_ENDPOINT_NUM_PARALLEL_TASKS",
		"EMBEDDING_ENDPOINT_TIMEOUT",
		"EMBEDDING_ENDPOINT_MAX_RETRIES",
		"EMBEDDING_ENDPOINT_INITIAL_DELAY",
		"EMBEDDING_ENDPOINT_BACKOFF_FACTOR",
		"EMBEDDING_ENDPOINT_MAX_BATCH_SIZE",
		"KEY1",
		"KEY2",
		"KEY3",
	}

	for _, v := range vars {
		t.Setenv(v, "")
		_ = os.Unsetenv(v)
	}
}
