package mode

import (
	"fmt"

	"github.com/kailas-cloud/mfgchat/internal/domain"
)

// Mode selects which collection a query is answered from.
type Mode string

// Query mode constants.
const (
	// Recommend looks up similar past projects and suggests their services.
	Recommend Mode = "recommend"
	// Explain looks up the definition of a named service.
	Explain Mode = "explain"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Recommend || m == Explain
}

// Parse converts s into a Mode, rejecting anything else with domain.ErrInvalidMode.
func Parse(s string) (Mode, error) {
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidMode, s)
	}
	return m, nil
}

// Greeting is the assistant's opening line once a user picks the mode.
func (m Mode) Greeting() string {
	switch m {
	case Recommend:
		return "어떤 제품에 대한 서비스 추천을 원하시나요?"
	case Explain:
		return "알고 싶은 서비스를 말씀해주세요."
	default:
		return ""
	}
}

// All returns the supported modes in menu order.
func All() []Mode {
	return []Mode{Recommend, Explain}
}
