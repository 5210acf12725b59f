package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
	"github.com/hammamikhairi/compostcoach/internal/metrics"
)

// defaultCallTimeout caps a shared generator call when no caller deadline
// applies to it.
const defaultCallTimeout = 2 * time.Minute

// Compile-time interface check.
var _ domain.ContentService = (*Service)(nil)

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithRateLimit caps outgoing calls at rps with the given burst.
func WithRateLimit(rps float64, burst int) ServiceOption {
	return func(s *Service) {
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithCallTimeout bounds a single generator call shared between callers.
func WithCallTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// Service is the content gateway. It builds prompts, rate limits calls,
// collapses identical concurrent requests, and substitutes fallback text
// for empty replies. All generator failures wrap ErrAdvisoryUnavailable.
type Service struct {
	gen         Generator
	log         *logger.Logger
	limiter     *rate.Limiter
	flight      singleflight.Group
	callTimeout time.Duration
}

// NewService creates a content service backed by gen.
func NewService(gen Generator, log *logger.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		gen:         gen,
		log:         log,
		limiter:     rate.NewLimiter(rate.Limit(1), 3),
		callTimeout: defaultCallTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Backend names the generator in use.
func (s *Service) Backend() string { return s.gen.Name() }

// ── Public API ───────────────────────────────────────────────────

// MixAdvice asks for optimization advice on a mix.
func (s *Service) MixAdvice(ctx context.Context, mixDescription string, ratio float64) (string, error) {
	resp, err := s.call(ctx, "mix", Request{
		Tier:              TierFast,
		SystemInstruction: SystemMixCoach,
		Prompt:            fmt.Sprintf(promptMixAdviceFormat, mixDescription, ratio),
	})
	if err != nil {
		return "", err
	}
	return s.orFallback("mix", resp.Text, FallbackMixAdvice), nil
}

// Search answers a question grounded in web search. An empty topic uses
// DefaultSearchTopic.
func (s *Service) Search(ctx context.Context, query, topic string) (*domain.Answer, error) {
	if strings.TrimSpace(topic) == "" {
		topic = DefaultSearchTopic
	}
	resp, err := s.call(ctx, "search", Request{
		Tier:              TierFast,
		SystemInstruction: fmt.Sprintf(systemSearchFormat, topic),
		Prompt:            query,
		Grounded:          true,
	})
	if err != nil {
		return nil, err
	}
	return &domain.Answer{
		Text:    s.orFallback("search", resp.Text, FallbackSearch),
		Sources: resp.Sources,
	}, nil
}

// News returns a bulletin of recent composting stories.
func (s *Service) News(ctx context.Context) (*domain.Answer, error) {
	resp, err := s.call(ctx, "news", Request{
		Tier:              TierFast,
		SystemInstruction: SystemNews,
		Prompt:            promptNews,
		Grounded:          true,
	})
	if err != nil {
		return nil, err
	}
	return &domain.Answer{
		Text:    s.orFallback("news", resp.Text, FallbackNews),
		Sources: resp.Sources,
	}, nil
}

// Diagnose analyzes a photo or video of a bin.
func (s *Service) Diagnose(ctx context.Context, media domain.Media, prompt string) (string, error) {
	if len(media.Data) == 0 {
		return "", fmt.Errorf("diagnose: empty media: %w", domain.ErrInvalidInput)
	}

	system, fallback, def := SystemImageDiagnostics, FallbackImage, defaultImagePrompt
	if media.IsVideo() {
		system, fallback, def = SystemVideoAuditor, FallbackVideo, defaultVideoPrompt
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = def
	}

	resp, err := s.call(ctx, "diagnose", Request{
		Tier:              TierDeep,
		SystemInstruction: system,
		Prompt:            prompt,
		Media:             &media,
	})
	if err != nil {
		return "", err
	}
	return s.orFallback("diagnose", resp.Text, fallback), nil
}

// Solve works through a hard problem with an extended reasoning budget.
func (s *Service) Solve(ctx context.Context, query string) (string, error) {
	resp, err := s.call(ctx, "solve", Request{
		Tier:           TierDeep,
		Prompt:         query,
		ThinkingBudget: solveThinkingBudget,
	})
	if err != nil {
		return "", err
	}
	return s.orFallback("solve", resp.Text, FallbackSolve), nil
}

// BinHealth reads trends from a bin's logs. logs must be newest first;
// only the first five are sent.
func (s *Service) BinHealth(ctx context.Context, binType domain.BinType, logs []domain.BinLog) (string, error) {
	if len(logs) > binHealthLogWindow {
		logs = logs[:binHealthLogWindow]
	}
	resp, err := s.call(ctx, "bin_health", Request{
		Tier:              TierFast,
		SystemInstruction: SystemBinAnalyst,
		Prompt:            fmt.Sprintf(promptBinHealthFormat, binType, formatLogs(logs)),
	})
	if err != nil {
		return "", err
	}
	return s.orFallback("bin_health", resp.Text, FallbackBinHealth), nil
}

// Weather returns the four-line weather and compost summary for location.
func (s *Service) Weather(ctx context.Context, location string) (string, error) {
	if strings.TrimSpace(location) == "" {
		return "", fmt.Errorf("weather: empty location: %w", domain.ErrInvalidInput)
	}
	resp, err := s.call(ctx, "weather", Request{
		Tier:              TierFast,
		SystemInstruction: SystemWeather,
		Prompt:            fmt.Sprintf(promptWeatherFormat, location),
		Grounded:          true,
	})
	if err != nil {
		return "", err
	}
	return s.orFallback("weather", resp.Text, FallbackWeather), nil
}

// ── Plumbing ─────────────────────────────────────────────────────

// call rate limits and deduplicates a request, then records the outcome.
// Requests with media are never shared.
func (s *Service) call(ctx context.Context, method string, req Request) (*Response, error) {
	start := time.Now()

	if err := s.limiter.Wait(ctx); err != nil {
		metrics.RecordAdvisory(method, metrics.OutcomeError, time.Since(start))
		return nil, fmt.Errorf("%s: rate limit: %w: %w", method, domain.ErrAdvisoryUnavailable, err)
	}

	var (
		v      any
		err    error
		shared bool
	)
	if req.Media == nil {
		v, shared, err = s.shared(ctx, method+"\x00"+req.SystemInstruction+"\x00"+req.Prompt, req)
	} else {
		v, err = s.gen.Generate(ctx, req)
	}

	if err != nil {
		metrics.RecordAdvisory(method, metrics.OutcomeError, time.Since(start))
		s.log.Warn("%s via %s failed: %v", method, s.gen.Name(), err)
		return nil, fmt.Errorf("%s: %w: %w", method, domain.ErrAdvisoryUnavailable, err)
	}

	resp := v.(*Response)
	metrics.RecordAdvisory(method, metrics.OutcomeOK, time.Since(start))
	s.log.Debug("%s via %s ok in %s (shared=%v)", method, s.gen.Name(), time.Since(start).Round(time.Millisecond), shared)
	return resp, nil
}

// shared runs req once for every concurrent caller with the same key. The
// flight is detached from any single caller's cancellation and bounded by
// callTimeout instead; each caller stops waiting when its own ctx ends.
func (s *Service) shared(ctx context.Context, key string, req Request) (any, bool, error) {
	ch := s.flight.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.callTimeout)
		defer cancel()
		return s.gen.Generate(fctx, req)
	})
	select {
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (s *Service) orFallback(method, text, fallback string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	metrics.RecordFallback(method)
	s.log.Debug("%s returned empty text, using fallback", method)
	return fallback
}

// formatLogs renders one line per log for the bin health prompt.
func formatLogs(logs []domain.BinLog) string {
	lines := make([]string, 0, len(logs))
	for _, l := range logs {
		temp := "N/A"
		if l.Temperature != nil {
			temp = fmt.Sprintf("%.1f°C", *l.Temperature)
		}
		lines = append(lines, fmt.Sprintf("Date: %s, Temp: %s, Moisture: %s, Smell: %s, Notes: %s",
			l.Date.Format("2006-01-02"), temp, l.Moisture, l.Smell, l.Notes))
	}
	return strings.Join(lines, "\n")
}
