package advisor

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// Default OpenAI model names. For Azure these are deployment names.
const (
	DefaultOpenAIFastModel = "gpt-4o-mini"
	DefaultOpenAIDeepModel = "gpt-4o"
)

// Compile-time interface check.
var _ Generator = (*OpenAIGenerator)(nil)

// OpenAIOption configures the OpenAIGenerator.
type OpenAIOption func(*OpenAIGenerator)

// WithOpenAIModels overrides the fast and deep model names.
func WithOpenAIModels(fast, deep string) OpenAIOption {
	return func(g *OpenAIGenerator) {
		if fast != "" {
			g.fastModel = fast
		}
		if deep != "" {
			g.deepModel = deep
		}
	}
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float32) OpenAIOption {
	return func(g *OpenAIGenerator) { g.temperature = t }
}

// WithMaxTokens sets the response token limit.
func WithMaxTokens(n int) OpenAIOption {
	return func(g *OpenAIGenerator) { g.maxTokens = n }
}

// WithAzureEndpoint routes requests to an Azure OpenAI resource, e.g.
// "https://<resource>.openai.azure.com/".
func WithAzureEndpoint(endpoint string) OpenAIOption {
	return func(g *OpenAIGenerator) { g.azureEndpoint = endpoint }
}

// OpenAIGenerator talks to OpenAI or Azure OpenAI chat completions. It has
// no web grounding and no video input.
type OpenAIGenerator struct {
	client        *openai.Client
	azureEndpoint string
	fastModel     string
	deepModel     string
	temperature   float32
	topP          float32
	maxTokens     int
	log           *logger.Logger
}

// NewOpenAIGenerator creates an OpenAI backend.
func NewOpenAIGenerator(apiKey string, log *logger.Logger, opts ...OpenAIOption) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}

	g := &OpenAIGenerator{
		fastModel:   DefaultOpenAIFastModel,
		deepModel:   DefaultOpenAIDeepModel,
		temperature: 0.7,
		topP:        0.95,
		maxTokens:   800,
		log:         log,
	}
	for _, o := range opts {
		o(g)
	}

	cfg := openai.DefaultConfig(apiKey)
	if g.azureEndpoint != "" {
		cfg = openai.DefaultAzureConfig(apiKey, g.azureEndpoint)
	}
	g.client = openai.NewClientWithConfig(cfg)
	return g, nil
}

// Name identifies the backend in logs.
func (g *OpenAIGenerator) Name() string {
	if g.azureEndpoint != "" {
		return "azure-openai"
	}
	return "openai"
}

// Generate sends one chat-completion request.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	msgs, err := openAIMessages(req)
	if err != nil {
		return nil, err
	}

	model := g.fastModel
	if req.Tier == TierDeep {
		model = g.deepModel
	}

	creq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: g.temperature,
		TopP:        g.topP,
		MaxTokens:   g.maxTokens,
	}
	if req.ThinkingBudget > 0 {
		// Reasoning requests run uncapped.
		creq.MaxTokens = 0
	}

	g.log.Debug("openai: %s (%d messages, grounded=%v ignored)", model, len(msgs), req.Grounded)

	resp, err := g.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return nil, fmt.Errorf("openai: request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty response (no choices)")
	}

	reply := resp.Choices[0].Message.Content
	g.log.Debug("openai: reply (%d chars): %s", len(reply), truncate(reply, 120))
	return &Response{Text: reply}, nil
}

// openAIMessages builds the system and user messages. Images travel as
// data URLs; video is rejected.
func openAIMessages(req Request) ([]openai.ChatCompletionMessage, error) {
	var msgs []openai.ChatCompletionMessage
	if req.SystemInstruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}

	if req.Media == nil {
		return append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: req.Prompt,
		}), nil
	}

	if req.Media.IsVideo() {
		return nil, fmt.Errorf("openai: video input: %w", domain.ErrUnsupported)
	}

	return append(msgs, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		MultiContent: []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURL(*req.Media),
					Detail: openai.ImageURLDetailAuto,
				},
			},
		},
	}), nil
}

func dataURL(m domain.Media) string {
	return fmt.Sprintf("data:%s;base64,%s", m.MIMEType, base64.StdEncoding.EncodeToString(m.Data))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
