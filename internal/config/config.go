// Package config loads the service configuration from per-environment YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the duet service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	CORS      CORSConfig      `yaml:"cors"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Models    ModelsConfig    `yaml:"models"`
	Memory    MemoryConfig    `yaml:"memory"`
	Chat      ChatConfig      `yaml:"chat"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CORSConfig holds cross-origin settings for browser clients.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"` // ollama, openai
	BaseURL             string `yaml:"base_url"`
	APIKey              string `yaml:"api_key"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
	Cache               bool   `yaml:"cache"`
	CacheTTLHours       int    `yaml:"cache_ttl_hours"` // 0 = no expiry
	TimeoutSec          int    `yaml:"timeout_sec"`
}

// ModelsConfig holds generation provider settings for both model kinds.
type ModelsConfig struct {
	Provider   string `yaml:"provider"` // ollama, openai
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Simple     string `yaml:"simple"`
	Reasoned   string `yaml:"reasoned"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// MemoryConfig holds memory index and retrieval settings.
type MemoryConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
	LatestLimit     int `yaml:"latest_limit"`
	RecallTopK      int `yaml:"recall_top_k"`
}

// ChatConfig holds orchestrator settings.
type ChatConfig struct {
	MaxMessageChars int  `yaml:"max_message_chars"`
	AutoMemory      bool `yaml:"auto_memory"`
}

// IngestConfig holds upload and crawl settings.
type IngestConfig struct {
	MaxUploadMB     int    `yaml:"max_upload_mb"`
	CrawlTimeoutSec int    `yaml:"crawl_timeout_sec"`
	CrawlMaxMB      int    `yaml:"crawl_max_mb"`
	UserAgent       string `yaml:"user_agent"`
}

// Provider names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
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
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// three sequential generations must fit
		c.HTTP.WriteTimeoutSec = 400
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "duet:"
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOllama
	}
	if c.Embedding.BaseURL == "" && c.Embedding.Provider == ProviderOllama {
		c.Embedding.BaseURL = "http://localhost:11434"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "nomic-embed-text"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}

	if c.Models.Provider == "" {
		c.Models.Provider = ProviderOllama
	}
	if c.Models.BaseURL == "" && c.Models.Provider == ProviderOllama {
		c.Models.BaseURL = "http://localhost:11434"
	}
	if c.Models.Simple == "" {
		c.Models.Simple = "llama3.2:1B"
	}
	if c.Models.Reasoned == "" {
		c.Models.Reasoned = "deepseek-r1:1.5b"
	}
	if c.Models.TimeoutSec <= 0 {
		c.Models.TimeoutSec = 120
	}

	if c.Memory.HNSWM <= 0 {
		c.Memory.HNSWM = 16
	}
	if c.Memory.HNSWEFConstruct <= 0 {
		c.Memory.HNSWEFConstruct = 200
	}
	if c.Memory.LatestLimit <= 0 {
		c.Memory.LatestLimit = 5
	}
	if c.Memory.RecallTopK <= 0 {
		c.Memory.RecallTopK = 5
	}

	if c.Chat.MaxMessageChars <= 0 {
		c.Chat.MaxMessageChars = 512
	}

	if c.Ingest.MaxUploadMB <= 0 {
		c.Ingest.MaxUploadMB = 16
	}
	if c.Ingest.CrawlTimeoutSec <= 0 {
		c.Ingest.CrawlTimeoutSec = 15
	}
	if c.Ingest.CrawlMaxMB <= 0 {
		c.Ingest.CrawlMaxMB = 5
	}
	if c.Ingest.UserAgent == "" {
		c.Ingest.UserAgent = "duet-crawler/1.0"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Driver != "redis" {
		return fmt.Errorf("database.driver must be \"redis\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	providers := []string{ProviderOllama, ProviderOpenAI}
	if !slices.Contains(providers, c.Embedding.Provider) {
		return fmt.Errorf("embedding.provider must be one of %v, got %q", providers, c.Embedding.Provider)
	}
	if !slices.Contains(providers, c.Models.Provider) {
		return fmt.Errorf("models.provider must be one of %v, got %q", providers, c.Models.Provider)
	}
	if c.Embedding.Provider == ProviderOpenAI && c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required for provider %q", ProviderOpenAI)
	}
	if c.Models.Provider == ProviderOpenAI && c.Models.BaseURL == "" {
		return fmt.Errorf("models.base_url is required for provider %q", ProviderOpenAI)
	}
	if !strings.HasSuffix(c.Storage.KeyPrefix, ":") {
		return fmt.Errorf("storage.key_prefix must end with ':', got %q", c.Storage.KeyPrefix)
	}
	return nil
}

// ModelTimeout is the bound applied to every generation call.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.Models.TimeoutSec) * time.Second
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
