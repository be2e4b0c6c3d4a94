package collection

import (
	"github.com/kailas-cloud/mfgchat/internal/db"
	domcol "github.com/kailas-cloud/mfgchat/internal/domain/collection"
)

// buildIndex creates the FT index for a collection: one TAG per metadata key
// plus the HNSW cosine vector field. Valkey-search has no TEXT support, so
// content stays unindexed and is only returned.
func buildIndex(col domcol.Collection, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	b := db.NewIndex(IndexName(col.Name())).Prefix(DocPrefix(col.Name()))
	for _, f := range col.Fields() {
		b = b.Tag(f)
	}
	return b.VectorHNSW(db.VectorField, col.VectorDim(), db.DistanceCosine, hnsw.M, hnsw.EFConstruct).Build()
}
