package mfgchat

import "time"

// Mode selects which collection a question is answered from.
type Mode string

// Mode constants.
const (
	// ModeRecommend suggests services from similar past projects.
	ModeRecommend Mode = "recommend"
	// ModeExplain describes the service closest to the question.
	ModeExplain Mode = "explain"
)

// ModeInfo pairs a mode with the assistant's opening line for it.
type ModeInfo struct {
	Mode     Mode   `json:"mode"`
	Greeting string `json:"greeting"`
}

// Project is one row of the project table.
type Project struct {
	Description string `json:"project_description"`
	MainService string `json:"main_service"`
	SubService  string `json:"sub_service,omitempty"`
	Material    string `json:"material,omitempty"`
}

// Hit is one retrieved entry with its cosine similarity in [0, 1].
type Hit struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Content  string            `json:"content,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Answer is the chatbot's reply to one question.
type Answer struct {
	Text          string `json:"answer"`
	Mode          Mode   `json:"mode"`
	PromptVersion string `json:"prompt_version,omitempty"`
	Sources       []Hit  `json:"sources"`
	// Model is the model that generated Text; empty when no entry qualified.
	Model string `json:"-"`
}

// SyncReport summarizes one ingestion run.
type SyncReport struct {
	RunID         string        `json:"run_id"`
	Collection    string        `json:"collection"`
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
