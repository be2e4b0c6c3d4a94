package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the mfgchat configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Sources   SourcesConfig   `yaml:"sources"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Prompts   PromptsConfig   `yaml:"prompts"`
	Chat      ChatConfig      `yaml:"chat"`
	Index     IndexConfig     `yaml:"index"`
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

// DatabaseConfig holds vector store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds HNSW index settings.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds the embedding service settings. Ingestion and
// retrieval share one embedder built from this section.
type EmbeddingConfig struct {
	Provider            string      `yaml:"provider"`
	BaseURL             string      `yaml:"base_url"`
	APIKey              string      `yaml:"api_key"`
	Model               string      `yaml:"model"`
	Dimensions          int         `yaml:"dimensions"`
	SendDimensions      bool        `yaml:"send_dimensions"`
	DocumentInstruction string      `yaml:"document_instruction"`
	QueryInstruction    string      `yaml:"query_instruction"`
	BatchSize           int         `yaml:"batch_size"`
	Cache               CacheConfig `yaml:"cache"`
}

// CacheConfig holds the embedding cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"` // 0 = no expiry
}

// LLMConfig holds the language model settings.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// RetrievalConfig holds the per-mode retrieval policy.
type RetrievalConfig struct {
	Recommend ModeRetrievalConfig `yaml:"recommend"`
	Explain   ModeRetrievalConfig `yaml:"explain"`
}

// ModeRetrievalConfig is K plus an optional minimum similarity.
type ModeRetrievalConfig struct {
	K              int      `yaml:"k"`
	ScoreThreshold *float64 `yaml:"score_threshold"`
}

// SourcesConfig holds the source table locations.
type SourcesConfig struct {
	ProjectPath string `yaml:"project_path"`
	ServicePath string `yaml:"service_path"`
}

// IngestConfig controls the synchronizations run before serving.
type IngestConfig struct {
	OnStartup       bool `yaml:"on_startup"`
	RebuildServices bool `yaml:"rebuild_services"`
}

// PromptsConfig points at an external template file. Empty Path uses the built-in templates.
type PromptsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// ChatConfig holds /chat request limits.
type ChatConfig struct {
	RequestTimeoutSec int     `yaml:"request_timeout_sec"`
	RateLimitRPS      float64 `yaml:"rate_limit_rps"` // 0 = unlimited
	RateLimitBurst    int     `yaml:"rate_limit_burst"`
	MaxQueryLength    int     `yaml:"max_query_length"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first; it never overrides
// variables already set in the process environment.
func Load(env string) (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates a single YAML file.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
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

// LoadDotEnv loads path into the process environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
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
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "ollama"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "jhgan/ko-sroberta-multitask"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 768
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 64
	}

	if c.LLM.Model == "" {
		c.LLM.Model = "chat_bot"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 60
	}

	if c.Retrieval.Recommend.K <= 0 {
		c.Retrieval.Recommend.K = 3
	}
	if c.Retrieval.Recommend.ScoreThreshold == nil {
		v := 0.5
		c.Retrieval.Recommend.ScoreThreshold = &v
	}
	if c.Retrieval.Explain.K <= 0 {
		c.Retrieval.Explain.K = 1
	}

	if c.Sources.ProjectPath == "" {
		c.Sources.ProjectPath = "data/manufacturing_dataset.csv"
	}
	if c.Sources.ServicePath == "" {
		c.Sources.ServicePath = "data/service_definitions.csv"
	}

	if c.Chat.RequestTimeoutSec <= 0 {
		c.Chat.RequestTimeoutSec = 60
	}
	if c.Chat.RateLimitBurst <= 0 {
		c.Chat.RateLimitBurst = 5
	}
	if c.Chat.MaxQueryLength <= 0 {
		c.Chat.MaxQueryLength = 2000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver must be \"valkey\", \"redis\" or \"memory\", got %q", c.Database.Driver)
	}
	if c.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding.base_url is required")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	for name, m := range map[string]ModeRetrievalConfig{
		"recommend": c.Retrieval.Recommend,
		"explain":   c.Retrieval.Explain,
	} {
		if t := m.ScoreThreshold; t != nil && (*t < 0 || *t > 1) {
			return fmt.Errorf("retrieval.%s.score_threshold must be between 0 and 1, got %v", name, *t)
		}
	}
	// The chat deadline must fire while the connection can still carry the error body.
	if c.Chat.RequestTimeoutSec > 0 && c.HTTP.WriteTimeoutSec > 0 &&
		c.Chat.RequestTimeoutSec >= c.HTTP.WriteTimeoutSec {
		return fmt.Errorf("chat.request_timeout_sec (%d) must be below http.write_timeout_sec (%d)",
			c.Chat.RequestTimeoutSec, c.HTTP.WriteTimeoutSec)
	}
	if c.Chat.RateLimitRPS < 0 {
		return fmt.Errorf("chat.rate_limit_rps must not be negative, got %v", c.Chat.RateLimitRPS)
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
