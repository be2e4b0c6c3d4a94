package collection

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kailas-cloud/mfgchat/internal/domain/project"
	"github.com/kailas-cloud/mfgchat/internal/domain/service"
)

var nameRegex = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Name identifies one of the two vector collections.
type Name string

const (
	// Projects holds past project records, keyed by content hash.
	Projects Name = "project"
	// Services holds service definitions. Entries have no stable identity.
	Services Name = "service"
)

// MetadataFields lists the metadata keys stored for each collection.
func MetadataFields(name Name) []string {
	switch name {
	case Projects:
		return []string{
			project.FieldID, project.FieldDescription, project.FieldMainService,
			project.FieldSubService, project.FieldMaterial,
		}
	case Services:
		return []string{service.FieldServiceName, service.FieldParentService}
	default:
		return nil
	}
}

// Collection is a named vector collection with a fixed dimension.
type Collection struct {
	name      Name
	vectorDim int
	createdAt int64
}

// New validates and creates a Collection.
func New(name Name, vectorDim int) (Collection, error) {
	if name == "" {
		return Collection{}, fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return Collection{}, fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(string(name)) {
		return Collection{}, fmt.Errorf("collection name must be lowercase alphanumeric with underscores and hyphens")
	}
	if vectorDim <= 0 {
		return Collection{}, fmt.Errorf("vector dimension must be positive")
	}
	return Collection{name: name, vectorDim: vectorDim, createdAt: time.Now().UnixMilli()}, nil
}

// Reconstruct creates a Collection without validation (storage hydration).
func Reconstruct(name Name, vectorDim int, createdAt int64) Collection {
	return Collection{name: name, vectorDim: vectorDim, createdAt: createdAt}
}

// Name returns the collection name.
func (c Collection) Name() Name { return c.name }

// VectorDim returns the vector dimension.
func (c Collection) VectorDim() int { return c.vectorDim }

// CreatedAt returns the creation timestamp (unix millis).
func (c Collection) CreatedAt() int64 { return c.createdAt }

// Fields returns the metadata keys stored with each entry.
func (c Collection) Fields() []string { return MetadataFields(c.name) }
