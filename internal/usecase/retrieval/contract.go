package retrieval

import (
	"context"

	domcol "github.com/kailas-cloud/mfgchat/internal/domain/collection"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/result"
)

// Searcher runs nearest-neighbour queries against a collection.
type Searcher interface {
	SearchKNN(ctx context.Context, col domcol.Name, vector []float32, k int) ([]result.Result, error)
}
