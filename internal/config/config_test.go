// ABOUTME: Tests for centralized configuration system
// ABOUTME: Verifies defaults, YAML overlay, env precedence, and validation
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PERSONA_ADDR", "PERSONA_CORS_ORIGINS", "PERSONA_SHUTDOWN_TIMEOUT",
	"DATABASE_DRIVER", "PERSONA_DB_PATH", "DATABASE_URL", "DATABASE_MAX_OPEN_CONNS",
	"PERSONA_CACHE", "CHARM_HOST", "CHARM_DB", "CHARM_AUTO_SYNC", "PERSONA_CACHE_TTL",
	"LLM_PROVIDER", "OPENAI_API_KEY", "OPENAI_BASE_URL", "PERSONA_OPENAI_MODEL",
	"OPENAI_TIMEOUT", "OPENAI_MAX_RETRIES", "OPENAI_RETRY_DELAY", "OPENAI_TEMPERATURE",
	"OPENAI_MAX_TOKENS", "PERSONA_MAX_MESSAGE_LENGTH", "PERSONA_MAX_HISTORY",
	"PERSONA_MAX_CONTEXT_TOKENS", "PERSONA_CHECKPOINT_RETENTION", "LOG_LEVEL", "LOG_FORMAT",
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_DATA_HOME", t.TempDir())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.True(t, strings.HasSuffix(cfg.Database.Path, filepath.Join("persona-chat", "persona.db")))
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 10000, cfg.Chat.MaxMessageLength)
	assert.Equal(t, 5, cfg.Chat.CheckpointRetention)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("PERSONA_ADDR", ":9090")
	t.Setenv("PERSONA_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("OPENAI_TIMEOUT", "60s")
	t.Setenv("OPENAI_MAX_RETRIES", "5")
	t.Setenv("CHARM_AUTO_SYNC", "false")
	t.Setenv("PERSONA_CHECKPOINT_RETENTION", "0")
	t.Setenv("PERSONA_MAX_CONTEXT_TOKENS", "2000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderMock, cfg.LLM.Provider)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 5, cfg.LLM.MaxRetries)
	assert.False(t, cfg.Cache.AutoSync)
	assert.Equal(t, 0, cfg.Chat.CheckpointRetention)
	assert.Equal(t, 2000, cfg.Chat.MaxContextTokens)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_PG_URL", "postgres://u:p@localhost/chat?sslmode=disable")

	path := writeConfig(t, `
server:
  addr: ":7000"
  shutdown_timeout: 3s
database:
  driver: postgres
  url: "${TEST_PG_URL}"
cache:
  backend: none
llm:
  provider: mock
  timeout: 5s
chat:
  max_history_messages: 10
logging:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@localhost/chat?sslmode=disable", cfg.Database.URL)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 10, cfg.Chat.MaxHistoryMessages)
	assert.Equal(t, "console", cfg.Logging.Format)

	// Keys absent from the file keep their defaults
	assert.Equal(t, 10000, cfg.Chat.MaxMessageLength)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoad_EnvBeatsYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("PERSONA_ADDR", ":6000")

	path := writeConfig(t, "server:\n  addr: \":7000\"\nllm:\n  provider: mock\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":6000", cfg.Server.Addr)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)

	// openai provider without a key
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid mock config", func(c *Config) {}, false},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, true},
		{"postgres without url", func(c *Config) { c.Database.Driver = DriverPostgres }, true},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, true},
		{"zero pool", func(c *Config) { c.Database.MaxOpenConns = 0 }, true},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "redis" }, true},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "llama" }, true},
		{"too many retries", func(c *Config) { c.LLM.MaxRetries = 11 }, true},
		{"negative retries", func(c *Config) { c.LLM.MaxRetries = -1 }, true},
		{"zero timeout", func(c *Config) { c.LLM.Timeout = 0 }, true},
		{"temperature too high", func(c *Config) { c.LLM.Temperature = 2.5 }, true},
		{"zero message length", func(c *Config) { c.Chat.MaxMessageLength = 0 }, true},
		{"negative history", func(c *Config) { c.Chat.MaxHistoryMessages = -1 }, true},
		{"negative context tokens", func(c *Config) { c.Chat.MaxContextTokens = -1 }, true},
		{"unlimited context tokens", func(c *Config) { c.Chat.MaxContextTokens = 0 }, false},
		{"negative retention", func(c *Config) { c.Chat.CheckpointRetention = -1 }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.LLM.Provider = ProviderMock
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CFG_TEST_VALUE", "expanded")
	assert.Equal(t, "a: expanded", expandEnvVars("a: ${CFG_TEST_VALUE}"))
	assert.Equal(t, "a: ", expandEnvVars("a: ${CFG_TEST_UNSET_VALUE}"))
}
