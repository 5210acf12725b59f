package advisor

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// Default Gemini model names.
const (
	DefaultGeminiFastModel = "gemini-3-flash-preview"
	DefaultGeminiDeepModel = "gemini-3-pro-preview"
)

// Compile-time interface check.
var _ Generator = (*GeminiGenerator)(nil)

// GeminiOption configures the GeminiGenerator.
type GeminiOption func(*GeminiGenerator)

// WithGeminiModels overrides the fast and deep model names.
func WithGeminiModels(fast, deep string) GeminiOption {
	return func(g *GeminiGenerator) {
		if fast != "" {
			g.fastModel = fast
		}
		if deep != "" {
			g.deepModel = deep
		}
	}
}

// GeminiGenerator calls the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client    *genai.Client
	fastModel string
	deepModel string
	log       *logger.Logger
}

// NewGeminiGenerator creates a Gemini backend for the given API key.
func NewGeminiGenerator(ctx context.Context, apiKey string, log *logger.Logger, opts ...GeminiOption) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	g := &GeminiGenerator{
		client:    client,
		fastModel: DefaultGeminiFastModel,
		deepModel: DefaultGeminiDeepModel,
		log:       log,
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Name identifies the backend in logs.
func (g *GeminiGenerator) Name() string { return "gemini" }

// Generate sends one request to the fast or deep model.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	model := g.fastModel
	if req.Tier == TierDeep {
		model = g.deepModel
	}

	g.log.Debug("gemini: %s (grounded=%v, media=%v, prompt %d chars)", model, req.Grounded, req.Media != nil, len(req.Prompt))

	resp, err := g.client.Models.GenerateContent(ctx, model, geminiContents(req), geminiConfig(req))
	if err != nil {
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}

	out := &Response{
		Text:    resp.Text(),
		Sources: groundingSources(resp),
	}
	g.log.Debug("gemini: reply (%d chars, %d sources): %s", len(out.Text), len(out.Sources), truncate(out.Text, 120))
	return out, nil
}

func geminiContents(req Request) []*genai.Content {
	if req.Media == nil {
		return []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	}
	parts := []*genai.Part{
		genai.NewPartFromBytes(req.Media.Data, req.Media.MIMEType),
		genai.NewPartFromText(req.Prompt),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func geminiConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.Grounded {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if req.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(req.ThinkingBudget)}
	}
	return cfg
}

// groundingSources collects web chunks that carry both a title and a URI.
func groundingSources(resp *genai.GenerateContentResponse) []domain.Source {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	var out []domain.Source
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		if chunk.Web.URI == "" || chunk.Web.Title == "" {
			continue
		}
		out = append(out, domain.Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return out
}
