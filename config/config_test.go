package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("QUERYPAD_CONFIG", "")
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.Endpoint.URL)
	assert.Equal(t, "QUERYPAD_TOKEN", cfg.Endpoint.TokenEnv)
	assert.Equal(t, "X-Performance", cfg.Endpoint.PerformanceHeader)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Log.File)
}

func TestLoadEnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("QUERYPAD_ENDPOINT_URL", "https://graphql.example.test")
	t.Setenv("QUERYPAD_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://graphql.example.test", cfg.Endpoint.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[endpoint]
url = "https://graphql.example.test"
performance_header = "X-Timing"

[endpoint.headers]
X-Team = "infra"

[schema]
file = "schema.graphql"
`), 0o600))
	t.Setenv("QUERYPAD_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://graphql.example.test", cfg.Endpoint.URL)
	assert.Equal(t, "X-Timing", cfg.Endpoint.PerformanceHeader)
	assert.Equal(t, "infra", cfg.Endpoint.Headers["x-team"])
	assert.Equal(t, "schema.graphql", cfg.Schema.File)
}

func TestTransportMergesToken(t *testing.T) {
	cfg := Config{
		Endpoint: EndpointConfig{
			URL:               "https://graphql.example.test",
			Headers:           map[string]string{"X-Team": "infra"},
			PerformanceHeader: "X-Performance",
		},
	}

	tc := cfg.Transport("secret")
	assert.Equal(t, "https://graphql.example.test", tc.URL)
	assert.Equal(t, "Bearer secret", tc.Headers["Authorization"])
	assert.Equal(t, "infra", tc.Headers["X-Team"])
	assert.Equal(t, "X-Performance", tc.PerformanceHeader)

	// the config's own header map stays untouched
	assert.NotContains(t, cfg.Endpoint.Headers, "Authorization")
}

func TestTransportWithoutToken(t *testing.T) {
	cfg := Config{Endpoint: EndpointConfig{URL: "https://graphql.example.test"}}

	tc := cfg.Transport("")
	assert.NotContains(t, tc.Headers, "Authorization")
}
