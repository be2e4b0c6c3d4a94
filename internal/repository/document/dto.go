package document

import (
	"github.com/kailas-cloud/mfgchat/internal/db"
	domdoc "github.com/kailas-cloud/mfgchat/internal/domain/document"
)

// buildHashFields converts a domain Document into a flat map[string]string for HSET.
func buildHashFields(doc *domdoc.Document) map[string]string {
	m := make(map[string]string, 2+len(doc.Metadata()))
	for k, v := range doc.Metadata() {
		m[k] = v
	}
	m[db.ContentField] = doc.Content()
	m[db.VectorField] = db.EncodeVector(doc.Vector())
	return m
}

// parseHashFields converts a flat hash map back into a domain Document.
func parseHashFields(id string, m map[string]string) domdoc.Document {
	var content string
	var vector []float32
	metadata := make(map[string]string, len(m))

	for k, v := range m {
		switch k {
		case db.ContentField:
			content = v
		case db.VectorField:
			vector = db.DecodeVector(v)
		default:
			metadata[k] = v
		}
	}

	return domdoc.Reconstruct(id, content, metadata, vector)
}
