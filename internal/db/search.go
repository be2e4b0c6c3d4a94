package db

import (
	"encoding/binary"
	"math"
	"strings"
)

// VectorField is the hash field holding the float32 embedding blob.
const VectorField = "__vector"

// ContentField is the hash field holding the document text.
const ContentField = "__content"

// IndexName returns the FT index name for a key namespace ("mfgchat:project" -> "mfgchat:project:idx").
func IndexName(namespace string) string { return namespace + ":idx" }

// DocPrefix returns the document key prefix served by an index
// ("mfgchat:project:idx" -> "mfgchat:project:doc:"). Backends without bare
// FT.SEARCH use it to fall back to SCAN.
func DocPrefix(index string) string {
	return strings.TrimSuffix(index, ":idx") + ":doc:"
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search. For KNN results Score is
// cosine similarity (1 - distance) clamped to [0, 1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// EncodeVector packs v as little-endian float32, the FT.SEARCH blob format.
func EncodeVector(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// DecodeVector is the inverse of EncodeVector. Trailing partial words are ignored.
func DecodeVector(s string) []float32 {
	n := len(s) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32([]byte(s[i*4 : i*4+4])))
	}
	return out
}

// DistanceToSimilarity converts a cosine distance to a similarity clamped to [0, 1].
func DistanceToSimilarity(d float64) float64 {
	return min(1, max(0, 1.0-d))
}
