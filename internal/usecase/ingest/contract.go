package ingest

import (
	"context"

	domcol "github.com/kailas-cloud/mfgchat/internal/domain/collection"
	domdoc "github.com/kailas-cloud/mfgchat/internal/domain/document"
	"github.com/kailas-cloud/mfgchat/internal/domain/service"
	"github.com/kailas-cloud/mfgchat/internal/source"
)

// CollectionManager creates and resets vector collections.
type CollectionManager interface {
	Ensure(ctx context.Context, col domcol.Collection) (created bool, err error)
	Reset(ctx context.Context, col domcol.Collection) (removed int, err error)
}

// DocumentStore writes entries and answers identity lookups.
type DocumentStore interface {
	InsertMany(ctx context.Context, col domcol.Name, docs []domdoc.Document) error
	Get(ctx context.Context, col domcol.Name, id string) (domdoc.Document, error)
	IDs(ctx context.Context, col domcol.Name) (map[string]struct{}, error)
	Exists(ctx context.Context, col domcol.Name, id string) (bool, error)
	Count(ctx context.Context, col domcol.Name) (int, error)
}

// SourceReader loads the tabular sources.
type SourceReader interface {
	LoadProjects(path string) (source.Projects, error)
	LoadServices(path string) ([]service.Definition, error)
}

// Files reads sources from the local filesystem.
type Files struct{}

// LoadProjects reads the project table at path.
func (Files) LoadProjects(path string) (source.Projects, error) { return source.LoadProjects(path) }

// LoadServices reads the service table at path.
func (Files) LoadServices(path string) ([]service.Definition, error) {
	return source.LoadServices(path)
}
