package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:      HTTPConfig{Port: 8080},
		Database:  DatabaseConfig{Driver: "valkey", Addrs: []string{"localhost:6379"}},
		Embedding: EmbeddingConfig{BaseURL: "http://localhost:11434/v1"},
		LLM:       LLMConfig{BaseURL: "http://localhost:11434/v1"},
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingValkeyAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing valkey addrs")
	}
}

func TestValidate_MemoryDriverNeedsNoAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database = DatabaseConfig{Driver: "memory"}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "postgres"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	expected := `database.driver must be "valkey", "redis" or "memory", got "postgres"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_Collaborators(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing embedding.base_url")
	}

	cfg = validConfig()
	cfg.LLM.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing llm.base_url")
	}

	cfg = validConfig()
	cfg.LLM.Temperature = 3
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for temperature out of range")
	}
}

func TestValidate_ScoreThreshold(t *testing.T) {
	for _, v := range []float64{-0.1, 1.5} {
		cfg := validConfig()
		cfg.Retrieval.Explain.ScoreThreshold = &v
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for threshold %v", v)
		}
	}
}

func TestValidate_RequestTimeoutBelowWriteTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.WriteTimeoutSec = 90
	cfg.Chat.RequestTimeoutSec = 120
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for request timeout above write timeout")
	}

	cfg.Chat.RequestTimeoutSec = 90
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for request timeout equal to write timeout")
	}

	cfg.Chat.RequestTimeoutSec = 85
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != "valkey" {
		t.Errorf("expected Driver=valkey, got %q", cfg.Database.Driver)
	}
	if cfg.Index.HNSWM != 16 || cfg.Index.HNSWEFConstruct != 200 {
		t.Errorf("expected HNSW 16/200, got %d/%d", cfg.Index.HNSWM, cfg.Index.HNSWEFConstruct)
	}
	if cfg.Embedding.Model != "jhgan/ko-sroberta-multitask" || cfg.Embedding.Dimensions != 768 {
		t.Errorf("unexpected embedding defaults %+v", cfg.Embedding)
	}
	if cfg.LLM.Model != "chat_bot" {
		t.Errorf("expected LLM model chat_bot, got %q", cfg.LLM.Model)
	}
	if cfg.Retrieval.Recommend.K != 3 || cfg.Retrieval.Recommend.ScoreThreshold == nil ||
		*cfg.Retrieval.Recommend.ScoreThreshold != 0.5 {
		t.Errorf("unexpected recommend defaults %+v", cfg.Retrieval.Recommend)
	}
	if cfg.Retrieval.Explain.K != 1 || cfg.Retrieval.Explain.ScoreThreshold != nil {
		t.Errorf("unexpected explain defaults %+v", cfg.Retrieval.Explain)
	}
	if cfg.Sources.ProjectPath != "data/manufacturing_dataset.csv" ||
		cfg.Sources.ServicePath != "data/service_definitions.csv" {
		t.Errorf("unexpected source defaults %+v", cfg.Sources)
	}
	if cfg.Chat.RequestTimeoutSec != 60 {
		t.Errorf("expected RequestTimeoutSec=60, got %d", cfg.Chat.RequestTimeoutSec)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	zero := 0.0
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Index:     IndexConfig{HNSWM: 32, HNSWEFConstruct: 400},
		LLM:       LLMConfig{Model: "gpt-4o-mini"},
		Retrieval: RetrievalConfig{Recommend: ModeRetrievalConfig{K: 5, ScoreThreshold: &zero}},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Index.HNSWM != 32 {
		t.Errorf("expected HNSWM=32, got %d", cfg.Index.HNSWM)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected model override, got %q", cfg.LLM.Model)
	}
	if cfg.Retrieval.Recommend.K != 5 || *cfg.Retrieval.Recommend.ScoreThreshold != 0 {
		t.Errorf("explicit recommend settings overridden: %+v", cfg.Retrieval.Recommend)
	}
}

func TestLoadFile_ExpandsEnv(t *testing.T) {
	t.Setenv("MFGCHAT_TEST_LLM_URL", "http://llm:11434/v1")
	path := writeFile(t, t.TempDir(), "test.yaml", `
http:
  port: 8080
database:
  driver: memory
embedding:
  base_url: ${MFGCHAT_TEST_EMB_URL:-http://tei:8080/v1}
llm:
  base_url: ${MFGCHAT_TEST_LLM_URL}
retrieval:
  explain:
    k: 2
    score_threshold: 0.3
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Embedding.BaseURL != "http://tei:8080/v1" {
		t.Errorf("expected default substitution, got %q", cfg.Embedding.BaseURL)
	}
	if cfg.LLM.BaseURL != "http://llm:11434/v1" {
		t.Errorf("expected env substitution, got %q", cfg.LLM.BaseURL)
	}
	if cfg.Retrieval.Explain.K != 2 || cfg.Retrieval.Explain.ScoreThreshold == nil ||
		*cfg.Retrieval.Explain.ScoreThreshold != 0.3 {
		t.Errorf("unexpected explain settings %+v", cfg.Retrieval.Explain)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFile(writeFile(t, dir, "bad.yaml", "http: [")); err == nil {
		t.Error("expected parse error")
	}
	if _, err := LoadFile(writeFile(t, dir, "noport.yaml", "database:\n  driver: memory\n")); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "MFGCHAT_TEST_DOTENV=from-file\nMFGCHAT_TEST_PRESET=from-file\n")
	t.Setenv("MFGCHAT_TEST_PRESET", "from-process")
	t.Cleanup(func() { _ = os.Unsetenv("MFGCHAT_TEST_DOTENV") })

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("MFGCHAT_TEST_DOTENV"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
	if got := os.Getenv("MFGCHAT_TEST_PRESET"); got != "from-process" {
		t.Errorf(".env must not override the environment, got %q", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "absent.env")); err != nil {
		t.Errorf("missing .env must be ignored, got %v", err)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("expected local, got %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("expected prod, got %q", got)
	}
}
