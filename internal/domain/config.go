package domain

// KeyPrefix namespaces every key this service writes to the shared store.
const KeyPrefix = "mfgchat:"

// VectorConfig holds internal vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model               string
	Dimensions          int
	DistanceMetric      string
	Algorithm           string
	DocumentInstruction string
	QueryInstruction    string
}

// DefaultVectorConfig returns the defaults for jhgan/ko-sroberta-multitask,
// a symmetric Korean sentence model that takes no instruction prefixes.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "jhgan/ko-sroberta-multitask",
		Dimensions:     768,
		DistanceMetric: "cosine",
		Algorithm:      "hnsw",
	}
}
