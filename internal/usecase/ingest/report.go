package ingest

import (
	"time"

	domcol "github.com/kailas-cloud/mfgchat/internal/domain/collection"
)

// Report summarizes one ingestion run.
type Report struct {
	RunID         string        `json:"run_id"`
	Collection    domcol.Name   `json:"collection"`
	Source        string        `json:"source"`
	SourceMissing bool          `json:"source_missing"`
	Rebuilt       bool          `json:"rebuilt"`
	Removed       int           `json:"removed"`
	Read          int           `json:"read"`
	Invalid       int           `json:"invalid"`
	Existing      int           `json:"existing"`
	Inserted      int           `json:"inserted"`
	Total         int           `json:"total"`
	Duration      time.Duration `json:"duration_ns"`
}
