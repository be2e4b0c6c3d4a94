package result

// Result is a single retrieval hit. Score is cosine similarity in [0, 1],
// higher is closer.
type Result struct {
	id       string
	score    float64
	content  string
	metadata map[string]string
}

// New creates a search result.
func New(id string, score float64, content string, metadata map[string]string) Result {
	return Result{id: id, score: score, content: content, metadata: metadata}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Score returns the similarity score.
func (r *Result) Score() float64 { return r.score }

// Content returns the document content.
func (r *Result) Content() string { return r.content }

// Metadata returns the document metadata.
func (r *Result) Metadata() map[string]string { return r.metadata }

// Get returns a metadata value or "" when absent.
func (r *Result) Get(key string) string { return r.metadata[key] }
