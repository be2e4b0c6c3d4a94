package mfgchat

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Manager.
type Option interface {
	apply(*managerConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*managerConfig)

func (f optionFunc) apply(c *managerConfig) { f(c) }

type managerConfig struct {
	driver   string // "valkey", "redis" or "memory"
	addrs    []string
	password string

	embedder  Embedder
	completer Completer

	projectPath string
	servicePath string
	promptPath  string

	vectorDimensions int
	hnswM            int
	hnswEFConstruct  int
	batchSize        int

	recommendK         int
	recommendThreshold *float64
	explainK           int
	explainThreshold   *float64

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores collections in a Valkey instance with valkey-search.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *managerConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores collections in a Redis 8+ instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *managerConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMemory keeps collections in process memory. Nothing survives Close.
func WithMemory() Option {
	return optionFunc(func(c *managerConfig) {
		c.driver = "memory"
		c.addrs = nil
	})
}

// WithEmbedder sets the text embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *managerConfig) {
		c.embedder = e
	})
}

// WithCompleter sets the language model used by Respond.
func WithCompleter(l Completer) Option {
	return optionFunc(func(c *managerConfig) {
		c.completer = l
	})
}

// WithSources sets the project and service table paths.
// Defaults: data/manufacturing_dataset.csv and data/service_definitions.csv.
func WithSources(projectPath, servicePath string) Option {
	return optionFunc(func(c *managerConfig) {
		c.projectPath = projectPath
		c.servicePath = servicePath
	})
}

// WithPromptFile loads the prompt templates from a YAML file instead of the built-in set.
func WithPromptFile(path string) Option {
	return optionFunc(func(c *managerConfig) {
		c.promptPath = path
	})
}

// WithVectorDimensions sets the embedding dimension of both collections.
// Defaults to 768 (ko-sroberta-multitask).
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *managerConfig) {
		c.vectorDimensions = dim
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
// Defaults: M=16, EFConstruct=200.
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *managerConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithBatchSize sets how many rows go to the embedder per call during sync.
// Default: 64.
func WithBatchSize(size int) Option {
	return optionFunc(func(c *managerConfig) {
		c.batchSize = size
	})
}

// WithRecommend overrides the recommend retriever: k hits at similarity >= threshold.
// A nil threshold keeps every hit.
func WithRecommend(k int, threshold *float64) Option {
	return optionFunc(func(c *managerConfig) {
		c.recommendK = k
		c.recommendThreshold = threshold
	})
}

// WithExplain overrides the explain retriever: k hits at similarity >= threshold.
func WithExplain(k int, threshold *float64) Option {
	return optionFunc(func(c *managerConfig) {
		c.explainK = k
		c.explainThreshold = threshold
	})
}

// WithLogger enables structured logging for Manager operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *managerConfig) {
		c.logger = l
	})
}

// WithPrometheus registers Manager metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *managerConfig) {
		c.metricsReg = reg
	})
}
