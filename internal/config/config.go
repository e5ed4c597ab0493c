// ABOUTME: Centralized configuration for the persona chat backend
// ABOUTME: Merges defaults, an optional YAML file, and environment variables, then validates
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service. It is built once at
// process start and passed by pointer into constructors.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	LLM      LLMConfig      `yaml:"llm"`
	Chat     ChatConfig     `yaml:"chat"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig selects and configures the relational backend
type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	Path         string `yaml:"path"`
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// CacheConfig configures the best-effort checkpoint cache
type CacheConfig struct {
	Backend   string        `yaml:"backend"`
	CharmHost string        `yaml:"charm_host"`
	CharmDB   string        `yaml:"charm_db"`
	AutoSync  bool          `yaml:"auto_sync"`
	MaxItems  int64         `yaml:"max_items"`
	TTL       time.Duration `yaml:"ttl"`
}

// LLMConfig configures the generation capability
type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
}

// ChatConfig bounds turn input and generation context
type ChatConfig struct {
	MaxMessageLength    int `yaml:"max_message_length"`
	MaxHistoryMessages  int `yaml:"max_history_messages"`
	MaxContextTokens    int `yaml:"max_context_tokens"`
	CheckpointRetention int `yaml:"checkpoint_retention"`
}

// LoggingConfig selects log level and encoding
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Supported backends and providers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	CacheMemory = "memory"
	CacheCharm  = "charm"
	CacheNone   = "none"

	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// DefaultDataDir returns the data directory following the XDG spec
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = xdg.DataHome
	}
	return filepath.Join(dataHome, "persona-chat")
}

// DefaultDBPath returns the default sqlite database path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "persona.db")
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			CORSOrigins:     []string{"http://localhost:3000"},
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			Path:         DefaultDBPath(),
			MaxOpenConns: 10,
		},
		Cache: CacheConfig{
			Backend:   CacheMemory,
			CharmHost: "cloud.charm.sh",
			CharmDB:   "persona-chat",
			AutoSync:  true,
			MaxItems:  10000,
			TTL:       time.Hour,
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			Timeout:     30 * time.Second,
			MaxRetries:  3,
			RetryDelay:  2 * time.Second,
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		Chat: ChatConfig{
			MaxMessageLength:    10000,
			MaxHistoryMessages:  50,
			MaxContextTokens:    6000,
			CheckpointRetention: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. Defaults are overlaid by the YAML file at
// path (skipped when path is empty), then by environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} with the variable's value, or "" when unset
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

func applyEnv(cfg *Config) {
	cfg.Server.Addr = getEnv("PERSONA_ADDR", cfg.Server.Addr)
	cfg.Server.CORSOrigins = getEnvList("PERSONA_CORS_ORIGINS", cfg.Server.CORSOrigins)
	cfg.Server.ShutdownTimeout = getEnvDuration("PERSONA_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Database.Driver = getEnv("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.Path = getEnv("PERSONA_DB_PATH", cfg.Database.Path)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxOpenConns = getEnvInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)

	cfg.Cache.Backend = getEnv("PERSONA_CACHE", cfg.Cache.Backend)
	cfg.Cache.CharmHost = getEnv("CHARM_HOST", cfg.Cache.CharmHost)
	cfg.Cache.CharmDB = getEnv("CHARM_DB", cfg.Cache.CharmDB)
	cfg.Cache.AutoSync = getEnvBool("CHARM_AUTO_SYNC", cfg.Cache.AutoSync)
	cfg.Cache.TTL = getEnvDuration("PERSONA_CACHE_TTL", cfg.Cache.TTL)

	cfg.LLM.Provider = getEnv("LLM_PROVIDER", cfg.LLM.Provider)
	cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.BaseURL = getEnv("OPENAI_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.Model = getEnv("PERSONA_OPENAI_MODEL", cfg.LLM.Model)
	cfg.LLM.Timeout = getEnvDuration("OPENAI_TIMEOUT", cfg.LLM.Timeout)
	cfg.LLM.MaxRetries = getEnvInt("OPENAI_MAX_RETRIES", cfg.LLM.MaxRetries)
	cfg.LLM.RetryDelay = getEnvDuration("OPENAI_RETRY_DELAY", cfg.LLM.RetryDelay)
	cfg.LLM.Temperature = float32(getEnvFloat("OPENAI_TEMPERATURE", float64(cfg.LLM.Temperature)))
	cfg.LLM.MaxTokens = getEnvInt("OPENAI_MAX_TOKENS", cfg.LLM.MaxTokens)

	cfg.Chat.MaxMessageLength = getEnvInt("PERSONA_MAX_MESSAGE_LENGTH", cfg.Chat.MaxMessageLength)
	cfg.Chat.MaxHistoryMessages = getEnvInt("PERSONA_MAX_HISTORY", cfg.Chat.MaxHistoryMessages)
	cfg.Chat.MaxContextTokens = getEnvInt("PERSONA_MAX_CONTEXT_TOKENS", cfg.Chat.MaxContextTokens)
	cfg.Chat.CheckpointRetention = getEnvInt("PERSONA_CHECKPOINT_RETENTION", cfg.Chat.CheckpointRetention)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
}

// Validate checks ranges and cross-field requirements
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be positive, got %d", c.Database.MaxOpenConns)
	}

	switch c.Cache.Backend {
	case CacheMemory, CacheCharm, CacheNone:
	default:
		return fmt.Errorf("cache.backend must be memory, charm, or none, got %q", c.Cache.Backend)
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for the openai provider (set OPENAI_API_KEY or use provider %q)", ProviderMock)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("llm.provider must be %q or %q, got %q", ProviderOpenAI, ProviderMock, c.LLM.Provider)
	}
	if c.LLM.MaxRetries < 0 || c.LLM.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.LLM.MaxRetries)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive, got %s", c.LLM.Timeout)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be 0-2, got %f", c.LLM.Temperature)
	}

	if c.Chat.MaxMessageLength < 1 {
		return fmt.Errorf("chat.max_message_length must be positive, got %d", c.Chat.MaxMessageLength)
	}
	if c.Chat.MaxHistoryMessages < 0 {
		return fmt.Errorf("chat.max_history_messages cannot be negative, got %d", c.Chat.MaxHistoryMessages)
	}
	if c.Chat.MaxContextTokens < 0 {
		return fmt.Errorf("chat.max_context_tokens cannot be negative, got %d", c.Chat.MaxContextTokens)
	}
	if c.Chat.CheckpointRetention < 0 {
		return fmt.Errorf("chat.checkpoint_retention cannot be negative, got %d", c.Chat.CheckpointRetention)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
