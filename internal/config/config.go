// Package config loads the service configuration from YAML files with
// environment variable expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the docq API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds chunk store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis (default: memory)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	Dimensions    int    `yaml:"dimensions"`
	MaxInputChars int    `yaml:"max_input_chars"`
}

// CompletionConfig holds the completion provider settings.
type CompletionConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// RetrievalConfig holds similarity search defaults.
type RetrievalConfig struct {
	MatchCount     int     `yaml:"match_count"`
	MatchThreshold float64 `yaml:"match_threshold"`
}

// ChunkingConfig holds document splitting settings.
type ChunkingConfig struct {
	MaxChunkSize int `yaml:"max_chunk_size"`
	Overlap      int `yaml:"overlap"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []APIKeyConfig `yaml:"api_keys"`
}

// APIKeyConfig binds one API key to an identity and its capabilities.
type APIKeyConfig struct {
	Token        string   `yaml:"token"`
	UserID       string   `yaml:"user_id"`
	TenantID     string   `yaml:"tenant_id"`
	Capabilities []string `yaml:"capabilities"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local,
// dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting
// to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// completion calls can take a while; leave room before cutting the response
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Completion.Model == "" {
		c.Completion.Model = "gpt-4o-mini"
	}
	if c.Retrieval.MatchCount <= 0 {
		c.Retrieval.MatchCount = 10
	}
	if c.Retrieval.MatchThreshold <= 0 {
		c.Retrieval.MatchThreshold = 0.2
	}
	if c.Chunking.MaxChunkSize <= 0 {
		c.Chunking.MaxChunkSize = 800
	}
	if c.Chunking.Overlap <= 0 {
		c.Chunking.Overlap = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "memory":
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("database.driver must be \"memory\" or \"redis\", got %q", c.Database.Driver)
	}
	if c.Retrieval.MatchThreshold >= 1 {
		return fmt.Errorf("retrieval.match_threshold must be below 1, got %g", c.Retrieval.MatchThreshold)
	}
	if c.Chunking.Overlap >= c.Chunking.MaxChunkSize {
		return fmt.Errorf("chunking.overlap must be below chunking.max_chunk_size")
	}
	for i, k := range c.Auth.APIKeys {
		if k.Token == "" || k.UserID == "" || k.TenantID == "" {
			return fmt.Errorf("auth.api_keys[%d]: token, user_id and tenant_id are required", i)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment
// variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
