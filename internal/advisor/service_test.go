package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// fakeGenerator records requests and returns a canned response.
type fakeGenerator struct {
	mu   sync.Mutex
	reqs []Request
	resp *Response
	err  error
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &Response{}, nil
	}
	return f.resp, nil
}

func (f *fakeGenerator) last(t *testing.T) Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.reqs)
	return f.reqs[len(f.reqs)-1]
}

func newTestService(gen Generator) *Service {
	return NewService(gen, logger.New(logger.LevelOff, nil), WithRateLimit(1000, 100))
}

func TestMixAdvicePrompt(t *testing.T) {
	gen := &fakeGenerator{resp: &Response{Text: "Add straw."}}
	svc := newTestService(gen)

	text, err := svc.MixAdvice(context.Background(), "2 parts Vegetable Scraps, 1 parts Dry Leaves", 30)
	require.NoError(t, err)
	assert.Equal(t, "Add straw.", text)

	req := gen.last(t)
	assert.Equal(t, TierFast, req.Tier)
	assert.Equal(t, SystemMixCoach, req.SystemInstruction)
	assert.Contains(t, req.Prompt, "2 parts Vegetable Scraps, 1 parts Dry Leaves")
	assert.Contains(t, req.Prompt, "approximately 30.0:1")
	assert.Contains(t, req.Prompt, "25-30:1")
	assert.False(t, req.Grounded)
}

func TestFallbacks(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeGenerator{resp: &Response{Text: "   "}})

	tests := []struct {
		name string
		call func() (string, error)
		want string
	}{
		{"mix", func() (string, error) { return svc.MixAdvice(ctx, "1 parts Straw", 75) }, FallbackMixAdvice},
		{"search", func() (string, error) {
			a, err := svc.Search(ctx, "worms", "")
			if err != nil {
				return "", err
			}
			return a.Text, nil
		}, FallbackSearch},
		{"news", func() (string, error) {
			a, err := svc.News(ctx)
			if err != nil {
				return "", err
			}
			return a.Text, nil
		}, FallbackNews},
		{"image", func() (string, error) {
			return svc.Diagnose(ctx, domain.Media{Data: []byte{1}, MIMEType: "image/jpeg"}, "")
		}, FallbackImage},
		{"video", func() (string, error) {
			return svc.Diagnose(ctx, domain.Media{Data: []byte{1}, MIMEType: "video/mp4"}, "")
		}, FallbackVideo},
		{"solve", func() (string, error) { return svc.Solve(ctx, "why so slow") }, FallbackSolve},
		{"bin health", func() (string, error) { return svc.BinHealth(ctx, domain.BinHot, nil) }, FallbackBinHealth},
		{"weather", func() (string, error) { return svc.Weather(ctx, "Lyon") }, FallbackWeather},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGeneratorErrorWrapsUnavailable(t *testing.T) {
	boom := errors.New("503 from upstream")
	svc := newTestService(&fakeGenerator{err: boom})

	_, err := svc.MixAdvice(context.Background(), "1 parts Straw", 75)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAdvisoryUnavailable)
	assert.ErrorIs(t, err, boom)

	_, err = svc.News(context.Background())
	assert.ErrorIs(t, err, domain.ErrAdvisoryUnavailable)
}

func TestSearchTopicAndSources(t *testing.T) {
	sources := []domain.Source{{Title: "Extension Office", URI: "https://example.org/compost"}}
	gen := &fakeGenerator{resp: &Response{Text: "Red wigglers.", Sources: sources}}
	svc := newTestService(gen)

	ans, err := svc.Search(context.Background(), "best worms", "")
	require.NoError(t, err)
	assert.Equal(t, "Red wigglers.", ans.Text)
	assert.Equal(t, sources, ans.Sources)

	req := gen.last(t)
	assert.True(t, req.Grounded)
	assert.Contains(t, req.SystemInstruction, DefaultSearchTopic)

	_, err = svc.Search(context.Background(), "aphids", "pest control")
	require.NoError(t, err)
	assert.Contains(t, gen.last(t).SystemInstruction, "specializing in pest control")
}

func TestDiagnose(t *testing.T) {
	gen := &fakeGenerator{resp: &Response{Text: "Soldier fly larvae, harmless."}}
	svc := newTestService(gen)
	ctx := context.Background()

	_, err := svc.Diagnose(ctx, domain.Media{Data: []byte("img"), MIMEType: "image/png"}, "what bugs?")
	require.NoError(t, err)
	req := gen.last(t)
	assert.Equal(t, TierDeep, req.Tier)
	assert.Equal(t, SystemImageDiagnostics, req.SystemInstruction)
	assert.Equal(t, "what bugs?", req.Prompt)
	require.NotNil(t, req.Media)
	assert.Equal(t, "image/png", req.Media.MIMEType)

	_, err = svc.Diagnose(ctx, domain.Media{Data: []byte("vid"), MIMEType: "video/webm"}, "")
	require.NoError(t, err)
	req = gen.last(t)
	assert.Equal(t, SystemVideoAuditor, req.SystemInstruction)
	assert.Equal(t, defaultVideoPrompt, req.Prompt)

	_, err = svc.Diagnose(ctx, domain.Media{MIMEType: "image/png"}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSolveUsesThinkingBudget(t *testing.T) {
	gen := &fakeGenerator{resp: &Response{Text: "Turn it."}}
	svc := newTestService(gen)

	_, err := svc.Solve(context.Background(), "pile is cold and smells sour")
	require.NoError(t, err)
	req := gen.last(t)
	assert.Equal(t, TierDeep, req.Tier)
	assert.Equal(t, int32(32768), req.ThinkingBudget)
}

func TestBinHealthUsesFiveLogs(t *testing.T) {
	gen := &fakeGenerator{resp: &Response{Text: "Add water."}}
	svc := newTestService(gen)

	temp := 55.0
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	var logs []domain.BinLog
	for i := 7; i >= 1; i-- {
		l := domain.BinLog{
			Date:     base.AddDate(0, 0, i),
			Moisture: domain.MoistureDry,
			Smell:    domain.SmellEarthy,
			Notes:    fmt.Sprintf("day %d", i),
		}
		if i == 7 {
			l.Temperature = &temp
		}
		logs = append(logs, l)
	}

	_, err := svc.BinHealth(context.Background(), domain.BinVermicompost, logs)
	require.NoError(t, err)

	req := gen.last(t)
	assert.Equal(t, SystemBinAnalyst, req.SystemInstruction)
	assert.Contains(t, req.Prompt, "I have a vermicompost bin")
	assert.Equal(t, 5, strings.Count(req.Prompt, "Date: "))
	assert.Contains(t, req.Prompt, "Temp: 55.0°C")
	assert.Contains(t, req.Prompt, "Temp: N/A")
	assert.Contains(t, req.Prompt, "Notes: day 3")
	assert.NotContains(t, req.Prompt, "Notes: day 2")
}

func TestWeather(t *testing.T) {
	gen := &fakeGenerator{resp: &Response{Text: "**Current**: 60°F"}}
	svc := newTestService(gen)

	_, err := svc.Weather(context.Background(), "Portland, OR")
	require.NoError(t, err)
	req := gen.last(t)
	assert.True(t, req.Grounded)
	assert.Contains(t, req.Prompt, "Portland, OR")
	assert.Contains(t, req.Prompt, "**Worms**")

	_, err = svc.Weather(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRateLimitHonoursContext(t *testing.T) {
	gen := &fakeGenerator{resp: &Response{Text: "ok"}}
	svc := NewService(gen, logger.New(logger.LevelOff, nil), WithRateLimit(0.001, 1))

	_, err := svc.Solve(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = svc.Solve(ctx, "second")
	assert.ErrorIs(t, err, domain.ErrAdvisoryUnavailable)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantType    domain.IntentType
		wantPayload string
	}{
		{"plain json", `{"intent":"advice","payload":""}`, domain.IntentAdvice, "is my pile ok"},
		{"fenced json", "```json\n{\"intent\":\"add\",\"payload\":\"dry leaves\"}\n```", domain.IntentAdd, "dry leaves"},
		{"catalog keeps empty payload", `{"intent":"catalog","payload":""}`, domain.IntentCatalog, ""},
		{"garbage", "I think you want advice", domain.IntentUnknown, "is my pile ok"},
		{"unknown intent", `{"intent":"bake"}`, domain.IntentUnknown, "is my pile ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeGenerator{resp: &Response{Text: tt.reply}})
			intent, err := svc.Classify(context.Background(), "is my pile ok")
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, intent.Type)
			assert.Equal(t, tt.wantPayload, intent.Payload)
		})
	}
}

// gatedGenerator blocks every call until release is closed.
type gatedGenerator struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu     sync.Mutex
	ctxErr []error
}

func (g *gatedGenerator) Name() string { return "gated" }

func (g *gatedGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	g.once.Do(func() { close(g.started) })

	<-g.release
	g.mu.Lock()
	g.ctxErr = append(g.ctxErr, ctx.Err())
	g.mu.Unlock()
	return &Response{Text: "Add dry leaves."}, nil
}

func TestSharedCallSurvivesFirstCallerCancel(t *testing.T) {
	gen := &gatedGenerator{started: make(chan struct{}), release: make(chan struct{})}
	svc := newTestService(gen)

	ctx1, cancel1 := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.MixAdvice(ctx1, "1 parts Straw", 75)
		firstErr <- err
	}()
	<-gen.started

	cancel1()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, domain.ErrAdvisoryUnavailable)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	type result struct {
		text string
		err  error
	}
	second := make(chan result, 1)
	go func() {
		text, err := svc.MixAdvice(context.Background(), "1 parts Straw", 75)
		second <- result{text, err}
	}()
	close(gen.release)

	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Equal(t, "Add dry leaves.", r.text)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}

	gen.mu.Lock()
	defer gen.mu.Unlock()
	for _, err := range gen.ctxErr {
		assert.NoError(t, err, "generator context must not inherit a caller's cancel")
	}
}

func TestSharedCallTimeout(t *testing.T) {
	gen := &ctxWaitGenerator{}
	svc := NewService(gen, logger.New(logger.LevelOff, nil),
		WithRateLimit(1000, 100), WithCallTimeout(20*time.Millisecond))

	_, err := svc.Solve(context.Background(), "stuck")
	assert.ErrorIs(t, err, domain.ErrAdvisoryUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ctxWaitGenerator returns only when its context ends.
type ctxWaitGenerator struct{}

func (ctxWaitGenerator) Name() string { return "wait" }

func (ctxWaitGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
