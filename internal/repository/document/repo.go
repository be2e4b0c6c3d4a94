package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/mfgchat/internal/db"
	"github.com/kailas-cloud/mfgchat/internal/domain"
	domcol "github.com/kailas-cloud/mfgchat/internal/domain/collection"
	domdoc "github.com/kailas-cloud/mfgchat/internal/domain/document"
	colrepo "github.com/kailas-cloud/mfgchat/internal/repository/collection"
)

const listPageSize = 500

// store is the consumer interface for documents (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Exists(ctx context.Context, key string) (bool, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo stores collection entries as hashes under the collection's document prefix.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// InsertMany writes all documents in one pipeline. Every document must carry a vector.
func (r *Repo) InsertMany(ctx context.Context, col domcol.Name, docs []domdoc.Document) error {
	if len(docs) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, 0, len(docs))
	for i := range docs {
		if len(docs[i].Vector()) == 0 {
			return fmt.Errorf("document %s has no vector", docs[i].ID())
		}
		items = append(items, db.HashSetItem{
			Key:    docKey(col, docs[i].ID()),
			Fields: buildHashFields(&docs[i]),
		})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset %d documents into %s: %w", len(items), col, err)
	}
	return nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, col domcol.Name, id string) (domdoc.Document, error) {
	key := docKey(col, id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domdoc.Document{}, domain.ErrNotFound
	}
	return parseHashFields(id, m), nil
}

// Exists reports whether a document with id is stored in the collection.
func (r *Repo) Exists(ctx context.Context, col domcol.Name, id string) (bool, error) {
	key := docKey(col, id)
	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}
	return ok, nil
}

// IDs returns the identifiers of every stored document, paging through the index.
func (r *Repo) IDs(ctx context.Context, col domcol.Name) (map[string]struct{}, error) {
	idx := colrepo.IndexName(col)
	prefix := colrepo.DocPrefix(col)
	ids := make(map[string]struct{})

	for offset := 0; ; {
		res, err := r.store.SearchList(ctx, idx, "*", offset, listPageSize, []string{db.ContentField})
		if err != nil {
			return nil, fmt.Errorf("search list %s: %w", col, err)
		}
		if res == nil || len(res.Entries) == 0 {
			return ids, nil
		}
		for _, e := range res.Entries {
			ids[strings.TrimPrefix(e.Key, prefix)] = struct{}{}
		}
		offset += listPageSize
		if offset >= res.Total {
			return ids, nil
		}
	}
}

// Count returns the number of documents in a collection.
func (r *Repo) Count(ctx context.Context, col domcol.Name) (int, error) {
	n, err := r.store.SearchCount(ctx, colrepo.IndexName(col), "*")
	if err != nil {
		return 0, fmt.Errorf("search count %s: %w", col, err)
	}
	return n, nil
}

func docKey(col domcol.Name, id string) string {
	return colrepo.DocPrefix(col) + id
}
