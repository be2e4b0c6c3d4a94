// Package chat answers a user question: retrieve for the chosen mode, build
// the context block, render the mode's prompt and ask the language model.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mfgchat/internal/domain"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/mode"
	"github.com/kailas-cloud/mfgchat/internal/domain/search/result"
	"github.com/kailas-cloud/mfgchat/internal/logger"
	"github.com/kailas-cloud/mfgchat/internal/prompt"
)

// Fixed user-facing answers.
const (
	NoResultAnswer    = "죄송합니다. 관련 정보를 찾을 수 없습니다."
	InvalidModeAnswer = "오류: 잘못된 모드가 선택되었습니다."
)

// Response is the outcome of one question.
type Response struct {
	Answer        string
	Mode          mode.Mode
	Sources       []result.Result
	PromptVersion string
	Model         string
	// Generated is false when no hit qualified and the model was not called.
	Generated bool
}

// Service generates answers.
type Service struct {
	retriever Retriever
	templates Templates
	llm       domain.Completer
	timeout   time.Duration
}

// New creates a chat service. A positive timeout bounds every Respond call.
func New(retriever Retriever, templates Templates, llm domain.Completer, timeout time.Duration) *Service {
	return &Service{retriever: retriever, templates: templates, llm: llm, timeout: timeout}
}

// Respond answers query in mode m. An unknown mode yields domain.ErrInvalidMode.
// When nothing qualifies the answer is NoResultAnswer and the model is not called.
func (s *Service) Respond(ctx context.Context, m mode.Mode, query string) (Response, error) {
	if !m.IsValid() {
		return Response{}, fmt.Errorf("%w: %q", domain.ErrInvalidMode, m)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	log := logger.FromContext(ctx)

	hits, err := s.retriever.Retrieve(ctx, m, query)
	if err != nil {
		return Response{}, fmt.Errorf("retrieve: %w", err)
	}
	if len(hits) == 0 {
		log.Info("No relevant entries", zap.String("mode", string(m)))
		return Response{Answer: NoResultAnswer, Mode: m}, nil
	}

	var block string
	switch m {
	case mode.Recommend:
		block = FormatProjectContext(hits)
	case mode.Explain:
		block = FormatServiceContext(hits)
	}

	set := s.templates.Current()
	p, err := set.Render(m, prompt.Data{Context: block, Question: query})
	if err != nil {
		return Response{}, fmt.Errorf("render prompt: %w", err)
	}

	out, err := s.llm.Complete(ctx, p)
	if err != nil {
		return Response{}, fmt.Errorf("generate answer: %w", err)
	}

	log.Debug("Answer generated",
		zap.String("mode", string(m)),
		zap.Int("hits", len(hits)),
		zap.String("prompt_version", set.Version()),
		zap.String("model", out.Model),
	)

	return Response{
		Answer:        strings.TrimSpace(out.Text),
		Mode:          m,
		Sources:       hits,
		PromptVersion: set.Version(),
		Model:         out.Model,
		Generated:     true,
	}, nil
}
