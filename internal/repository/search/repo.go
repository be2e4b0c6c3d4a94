package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/mfgchat/internal/db"
	domcol "github.com/kailas-cloud/mfgchat/internal/domain/collection"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/result"
	colrepo "github.com/kailas-cloud/mfgchat/internal/repository/collection"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo runs similarity queries against a collection index.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// SearchKNN returns up to k nearest entries, best first, scored as cosine
// similarity in [0, 1]. The vector blob is never returned.
func (r *Repo) SearchKNN(
	ctx context.Context, col domcol.Name, vector []float32, k int,
) ([]result.Result, error) {
	returnFields := append([]string{db.ContentField}, domcol.MetadataFields(col)...)

	q := &db.KNNQuery{
		IndexName:    colrepo.IndexName(col),
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", col, err)
	}

	return parseKNNResults(sr, col), nil
}

// parseKNNResults converts db.SearchResult into []result.Result.
func parseKNNResults(sr *db.SearchResult, col domcol.Name) []result.Result {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := colrepo.DocPrefix(col)
	results := make([]result.Result, 0, len(sr.Entries))

	for _, entry := range sr.Entries {
		docID := strings.TrimPrefix(entry.Key, prefix)
		results = append(results, parseEntryFields(docID, entry))
	}

	return results
}

// parseEntryFields splits the flat hash fields into content and metadata.
func parseEntryFields(docID string, entry db.SearchEntry) result.Result {
	var content string
	metadata := make(map[string]string, len(entry.Fields))

	for k, v := range entry.Fields {
		switch k {
		case db.ContentField:
			content = v
		case db.VectorField, "__vector_score":
			// score is carried by entry.Score
		default:
			metadata[k] = v
		}
	}

	return result.New(docID, entry.Score, content, metadata)
}
