package advisor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hammamikhairi/compostcoach/internal/domain"
)

// classifyResponse is the JSON the model returns for intent classification.
type classifyResponse struct {
	Intent  string `json:"intent"`
	Payload string `json:"payload"`
}

// Classify sends unrecognised user input to the model for intent
// classification. Unparseable replies yield IntentUnknown, not an error.
func (s *Service) Classify(ctx context.Context, input string) (*domain.Intent, error) {
	resp, err := s.call(ctx, "classify", Request{
		Tier:              TierFast,
		SystemInstruction: PromptClassify,
		Prompt:            input,
	})
	if err != nil {
		return nil, err
	}

	raw := stripCodeFence(resp.Text)

	var cr classifyResponse
	if err := json.Unmarshal([]byte(raw), &cr); err != nil {
		s.log.Error("failed to parse classify JSON: %v\nraw: %s", err, raw)
		return &domain.Intent{Type: domain.IntentUnknown, Payload: input}, nil
	}

	intentType := domain.IntentFromString(cr.Intent)
	s.log.Debug("classified %q -> %s (payload=%q)", input, intentType, cr.Payload)

	payload := cr.Payload
	if payload == "" && intentType != domain.IntentCatalog {
		payload = input
	}
	return &domain.Intent{Type: intentType, Payload: payload, Amount: 1}, nil
}

// stripCodeFence removes ```json ... ``` wrappers that LLMs love to add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}
