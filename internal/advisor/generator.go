// Package advisor provides the generative-AI gateway used for mix advice
// and the other content features (search, news, diagnostics, weather).
// A Generator talks to one model backend; Service builds the prompts.
package advisor

import (
	"context"

	"github.com/hammamikhairi/compostcoach/internal/domain"
)

// Tier selects between the fast model and the slower, stronger one.
type Tier int

const (
	// TierFast is used for short text answers.
	TierFast Tier = iota
	// TierDeep is used for media analysis and long reasoning.
	TierDeep
)

// String returns the tier name.
func (t Tier) String() string {
	if t == TierDeep {
		return "deep"
	}
	return "fast"
}

// Request is a single generation call.
type Request struct {
	Tier              Tier
	SystemInstruction string
	Prompt            string
	Media             *domain.Media
	// Grounded asks the backend to ground the answer in web search.
	Grounded bool
	// ThinkingBudget is the reasoning token budget; zero leaves it unset.
	ThinkingBudget int32
}

// Response is what a Generator returns. Text may be empty.
type Response struct {
	Text    string
	Sources []domain.Source
}

// Generator is a model backend.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Name() string
}
