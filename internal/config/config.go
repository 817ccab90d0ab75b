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

// Config holds the recall API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Agent     AgentConfig     `yaml:"agent"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StorageConfig holds on-disk snapshot settings.
type StorageConfig struct {
	DataDir         string `yaml:"data_dir"`
	IndexFile       string `yaml:"index_file"`
	MetadataFile    string `yaml:"metadata_file"`
	PreferencesFile string `yaml:"preferences_file"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider     string `yaml:"provider"` // nomic, ollama, openai
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	CacheEntries int64  `yaml:"cache_entries"` // 0 disables the cache
}

// ChatConfig holds the optional chat (RAG) provider settings.
type ChatConfig struct {
	APIKey string `yaml:"api_key"` // empty disables chat
	Model  string `yaml:"model"`
}

// AgentConfig holds agent pipeline tuning knobs.
type AgentConfig struct {
	ShortTermCapacity   int     `yaml:"short_term_capacity"`
	ShortTermTTLSec     int     `yaml:"short_term_ttl_sec"`
	SearchK             int     `yaml:"search_k"`
	ShortTermLimit      int     `yaml:"short_term_limit"`
	ClassifierTopK      int     `yaml:"classifier_top_k"`
	ClassifierThreshold float64 `yaml:"classifier_threshold"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.IndexFile == "" {
		c.Storage.IndexFile = "index.bin"
	}
	if c.Storage.MetadataFile == "" {
		c.Storage.MetadataFile = "metadata.json"
	}
	if c.Storage.PreferencesFile == "" {
		c.Storage.PreferencesFile = "user_preferences.json"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "nomic"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text-v1.5"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Chat.Model == "" {
		c.Chat.Model = "gemini-2.0-flash"
	}
	if c.Agent.ShortTermCapacity <= 0 {
		c.Agent.ShortTermCapacity = 100
	}
	if c.Agent.ShortTermTTLSec <= 0 {
		c.Agent.ShortTermTTLSec = 3600
	}
	if c.Agent.SearchK <= 0 {
		c.Agent.SearchK = 10
	}
	if c.Agent.ShortTermLimit <= 0 {
		c.Agent.ShortTermLimit = 5
	}
	if c.Agent.ClassifierTopK <= 0 {
		c.Agent.ClassifierTopK = 2
	}
	if c.Agent.ClassifierThreshold <= 0 {
		c.Agent.ClassifierThreshold = 0.18
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Embedding.Provider {
	case "nomic", "ollama", "openai":
		// ok
	default:
		return fmt.Errorf("embedding.provider must be nomic, ollama or openai, got %q", c.Embedding.Provider)
	}
	if c.Embedding.Provider != "ollama" && c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required for provider %q", c.Embedding.Provider)
	}
	if c.Embedding.CacheEntries < 0 {
		return fmt.Errorf("embedding.cache_entries must be >= 0, got %d", c.Embedding.CacheEntries)
	}
	if c.Agent.ClassifierThreshold > 1 {
		return fmt.Errorf("agent.classifier_threshold must be <= 1, got %g", c.Agent.ClassifierThreshold)
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

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
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
