package domain

import "context"

// Completer is the language model contract: a rendered prompt in, generated text out.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// Completion is the generated text plus token usage.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}
