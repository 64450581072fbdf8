package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 5000},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"port too big", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"no addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"valkey driver", func(c *Config) { c.Database.Driver = "valkey" }, "database.driver"},
		{"bad embedding provider", func(c *Config) { c.Embedding.Provider = "cohere" }, "embedding.provider"},
		{"bad models provider", func(c *Config) { c.Models.Provider = "bard" }, "models.provider"},
		{"openai without url", func(c *Config) {
			c.Models.Provider = ProviderOpenAI
			c.Models.BaseURL = ""
		}, "models.base_url"},
		{"prefix without colon", func(c *Config) { c.Storage.KeyPrefix = "duet" }, "storage.key_prefix"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Models.Simple != "llama3.2:1B" {
		t.Errorf("simple model = %q", cfg.Models.Simple)
	}
	if cfg.Models.Reasoned != "deepseek-r1:1.5b" {
		t.Errorf("reasoned model = %q", cfg.Models.Reasoned)
	}
	if cfg.Models.BaseURL != "http://localhost:11434" {
		t.Errorf("models base url = %q", cfg.Models.BaseURL)
	}
	if cfg.ModelTimeout() != 120*time.Second {
		t.Errorf("model timeout = %v", cfg.ModelTimeout())
	}
	if cfg.Chat.MaxMessageChars != 512 {
		t.Errorf("max message chars = %d", cfg.Chat.MaxMessageChars)
	}
	if cfg.Chat.AutoMemory {
		t.Error("auto memory should default off")
	}
	if cfg.Memory.LatestLimit != 5 || cfg.Memory.RecallTopK != 5 {
		t.Errorf("memory = %+v", cfg.Memory)
	}
	if cfg.Storage.KeyPrefix != "duet:" {
		t.Errorf("key prefix = %q", cfg.Storage.KeyPrefix)
	}
	if cfg.Database.Driver != "redis" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("cors = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		Models: ModelsConfig{Provider: ProviderOpenAI, Simple: "gpt-4o-mini", TimeoutSec: 5},
		Chat:   ChatConfig{MaxMessageChars: 100},
	}
	cfg.ApplyDefaults()

	if cfg.Models.Simple != "gpt-4o-mini" || cfg.Models.TimeoutSec != 5 {
		t.Errorf("models overridden: %+v", cfg.Models)
	}
	if cfg.Models.BaseURL != "" {
		t.Errorf("openai provider should not get the ollama url, got %q", cfg.Models.BaseURL)
	}
	if cfg.Chat.MaxMessageChars != 100 {
		t.Errorf("max message chars = %d", cfg.Chat.MaxMessageChars)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("DUET_TEST_REDIS", "redis.internal:6380")

	cfg, err := Parse([]byte(`
http:
  port: 8080
database:
  addrs: ["${DUET_TEST_REDIS}"]
models:
  simple: ${DUET_TEST_UNSET:-tiny}
chat:
  auto_memory: true
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Addrs[0] != "redis.internal:6380" {
		t.Errorf("addrs = %v", cfg.Database.Addrs)
	}
	if cfg.Models.Simple != "tiny" {
		t.Errorf("simple = %q", cfg.Models.Simple)
	}
	if !cfg.Chat.AutoMemory {
		t.Error("auto memory should be on")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected validation error for missing addrs")
	}
}

func TestLoad_LocalFile(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 5000 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DUET_X", "1")
	got := string(expandEnvVars([]byte("a=${DUET_X} b=${DUET_MISSING:-def} c=${DUET_MISSING}")))
	if got != "a=1 b=def c=" {
		t.Errorf("got %q", got)
	}
}
