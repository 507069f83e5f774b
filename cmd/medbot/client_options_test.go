package main

import (
	"testing"

	"github.com/aar-healthcare/medbot/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestEmbeddingOptions_LocalModelByDefault(t *testing.T) {
	cfg := config.NewAppConfig()
	assert.Empty(t, embeddingOptions(cfg))
}

func TestEmbeddingOptions_Endpoint(t *testing.T) {
	cfg := config.NewAppConfigWithOptions(config.WithEmbeddingEndpoint(
		config.NewEndpointWithOptions(
			config.WithBaseURL("http://localhost:8081/v1"),
			config.WithModel("biobert"),
		),
	))
	assert.Len(t, embeddingOptions(cfg), 2)
}

func TestEmbeddingOptions_EndpointWithoutModel(t *testing.T) {
	cfg := config.NewAppConfigWithOptions(config.WithEmbeddingEndpoint(
		config.NewEndpointWithOptions(config.WithBaseURL("http://localhost:8081/v1")),
	))
	assert.Empty(t, embeddingOptions(cfg))
}

func TestClientOptions(t *testing.T) {
	cfg := config.NewAppConfigWithOptions(config.WithDataDir(t.TempDir()))
	assert.Len(t, clientOptions(cfg, nil), 5)
}

func TestApplyServeOverrides(t *testing.T) {
	cfg := config.NewAppConfig()

	got := applyServeOverrides(cfg, "127.0.0.1", 8000)
	assert.Equal(t, "127.0.0.1:8000", got.Addr())

	unchanged := applyServeOverrides(cfg, "", 0)
	assert.Equal(t, "0.0.0.0:5000", unchanged.Addr())
}

func TestRootCmd(t *testing.T) {
	cmd := rootCmd()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "setup", "stdio", "version"}, names)
}
