package chat

import (
	"context"

	"github.com/kailas-cloud/mfgchat/internal/domain/search/mode"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/result"
	"github.com/kailas-cloud/mfgchat/internal/prompt"
)

// Retriever returns the hits of a query in a mode.
type Retriever interface {
	Retrieve(ctx context.Context, m mode.Mode, query string) ([]result.Result, error)
}

// Templates hands out the active prompt set.
type Templates interface {
	Current() *prompt.Set
}
