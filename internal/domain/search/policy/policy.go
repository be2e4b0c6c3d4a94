package policy

import (
	"fmt"

	"github.com/kailas-cloud/mfgchat/internal/domain/collection"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/mode"
)

// MaxK caps how many hits a single retrieval may request.
const MaxK = 100

// Policy is the retriever configuration of one mode: which collection to
// search, how many hits to keep and the minimum similarity a hit needs.
// A nil Threshold keeps every hit.
type Policy struct {
	Mode       mode.Mode
	Collection collection.Name
	K          int
	Threshold  *float64
}

// New validates and creates a Policy.
func New(m mode.Mode, col collection.Name, k int, threshold *float64) (Policy, error) {
	if !m.IsValid() {
		return Policy{}, fmt.Errorf("invalid mode %q", m)
	}
	if k < 1 || k > MaxK {
		return Policy{}, fmt.Errorf("k must be between 1 and %d, got %d", MaxK, k)
	}
	if threshold != nil && (*threshold < 0 || *threshold > 1) {
		return Policy{}, fmt.Errorf("score threshold must be within [0, 1], got %v", *threshold)
	}
	return Policy{Mode: m, Collection: col, K: k, Threshold: threshold}, nil
}

// Accepts reports whether a hit with the given similarity passes the threshold.
func (p Policy) Accepts(score float64) bool {
	return p.Threshold == nil || score >= *p.Threshold
}

// Threshold is a convenience for building optional thresholds.
func Threshold(v float64) *float64 { return &v }
