package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Retrieval, generation and ingestion Prometheus metrics.
var (
	RetrievalHits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mfgchat",
			Name:      "retrieval_hits",
			Help:      "Entries returned per retrieval after the score threshold",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		},
		[]string{"mode"},
	)

	RetrievalEmptyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfgchat",
			Name:      "retrieval_empty_total",
			Help:      "Retrievals that produced no entries",
		},
		[]string{"mode"},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfgchat",
			Name:      "llm_requests_total",
			Help:      "Total number of language model requests",
		},
		[]string{"model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mfgchat",
			Name:      "llm_request_duration_seconds",
			Help:      "Language model request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfgchat",
			Name:      "llm_tokens_total",
			Help:      "Total language model tokens",
		},
		[]string{"model", "type"}, // "prompt" / "completion"
	)

	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfgchat",
			Name:      "ingest_documents_total",
			Help:      "Source rows processed by ingestion",
		},
		[]string{"collection", "result"}, // "inserted" / "existing" / "invalid"
	)

	IngestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mfgchat",
			Name:      "ingest_runs_total",
			Help:      "Ingestion runs by outcome",
		},
		[]string{"collection", "status"}, // "ok" / "source_missing" / "error"
	)
)

var ragOnce sync.Once

// RegisterRAGMetrics registers retrieval, LLM and ingestion metrics on the default registry.
func RegisterRAGMetrics() {
	mustRegisterOnce(&ragOnce,
		RetrievalHits,
		RetrievalEmptyTotal,
		LLMRequestsTotal,
		LLMRequestDuration,
		LLMTokensTotal,
		IngestDocumentsTotal,
		IngestRunsTotal,
	)
}

// mustRegisterOnce registers cs on the default registry the first time once fires.
func mustRegisterOnce(once *sync.Once, cs ...prometheus.Collector) {
	once.Do(func() { prometheus.MustRegister(cs...) })
}
