package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hammamikhairi/compostcoach/internal/catalog"
	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeAdvisor answers MixAdvice with a canned reply. When gate is set the
// call blocks until the gate is closed or the context ends.
type fakeAdvisor struct {
	mu      sync.Mutex
	reply   string
	err     error
	gate    chan struct{}
	started chan struct{}
	calls   []string
	ratios  []float64
}

func (f *fakeAdvisor) MixAdvice(ctx context.Context, desc string, ratio float64) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, desc)
	f.ratios = append(f.ratios, ratio)
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func setupEngine(t *testing.T, adv domain.Advisor, opts ...Option) *Engine {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	return New(catalog.NewMemoryCatalog(log), adv, log, opts...)
}

func TestResultTracksMix(t *testing.T) {
	eng := setupEngine(t, nil)

	res, err := eng.Result()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmpty, res.Status)

	require.NoError(t, eng.Add("g1"))
	require.NoError(t, eng.Add("g1"))
	require.NoError(t, eng.Add("b1"))

	res, err = eng.Result()
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalParts)
	assert.InDelta(t, 30.0, res.Ratio, 1e-9)
	assert.Equal(t, domain.StatusIdeal, res.Status)

	require.NoError(t, eng.AdjustParts("g1", -10))
	res, err = eng.Result()
	require.NoError(t, err)
	assert.InDelta(t, 37.5, res.Ratio, 1e-9)

	eng.Remove("b1")
	res, err = eng.Result()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTooGreen, res.Status)

	eng.Clear()
	eng.Clear()
	res, err = eng.Result()
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmpty, res.Status)
}

func TestEntriesAndDescribe(t *testing.T) {
	eng := setupEngine(t, nil)
	require.NoError(t, eng.Add("b4"))
	require.NoError(t, eng.Add("g1"))

	lines, err := eng.Entries()
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Sawdust", lines[0].Ingredient.Name)
	assert.Equal(t, 1, lines[1].Parts)
	assert.Equal(t, "1 parts Sawdust, 1 parts Vegetable Scraps", eng.Describe())
}

func TestMutationErrors(t *testing.T) {
	eng := setupEngine(t, nil)
	assert.ErrorIs(t, eng.Add("nope"), domain.ErrNotFound)
	assert.ErrorIs(t, eng.AdjustParts("g1", 1), domain.ErrNotFound)
}

func TestRequestAdviceEmptyMix(t *testing.T) {
	adv := &fakeAdvisor{reply: "unused"}
	eng := setupEngine(t, adv)

	_, err := eng.RequestAdvice(context.Background())
	assert.ErrorIs(t, err, domain.ErrEmptyMix)
	assert.Empty(t, adv.calls, "advisor must not be called for an empty mix")
}

func TestRequestAdviceSuccess(t *testing.T) {
	adv := &fakeAdvisor{reply: "Add one part straw."}
	eng := setupEngine(t, adv)
	require.NoError(t, eng.Add("g1"))
	require.NoError(t, eng.Add("g1"))
	require.NoError(t, eng.Add("b1"))

	text, err := eng.RequestAdvice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Add one part straw.", text)

	require.Len(t, adv.calls, 1)
	assert.Equal(t, "2 parts Vegetable Scraps, 1 parts Dry Leaves", adv.calls[0])
	assert.InDelta(t, 30.0, adv.ratios[0], 1e-9)

	got, ok := eng.Advice()
	assert.True(t, ok)
	assert.Equal(t, text, got)
}

func TestMutationInvalidatesAdvice(t *testing.T) {
	mutations := []struct {
		name string
		fn   func(e *Engine)
	}{
		{"add", func(e *Engine) { _ = e.Add("b1") }},
		{"adjust", func(e *Engine) { _ = e.AdjustParts("g1", 1) }},
		{"remove", func(e *Engine) { e.Remove("g1") }},
		{"clear", func(e *Engine) { e.Clear() }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			eng := setupEngine(t, &fakeAdvisor{reply: "ok"})
			require.NoError(t, eng.Add("g1"))
			_, err := eng.RequestAdvice(context.Background())
			require.NoError(t, err)

			tt.fn(eng)

			_, ok := eng.Advice()
			assert.False(t, ok)
		})
	}
}

func TestRequestAdviceFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	adv := &fakeAdvisor{err: boom}
	eng := setupEngine(t, adv)
	require.NoError(t, eng.Add("g2"))

	_, err := eng.RequestAdvice(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAdvisoryUnavailable)
	assert.ErrorIs(t, err, boom)

	// The mix survives and a retry is allowed.
	lines, err := eng.Entries()
	require.NoError(t, err)
	assert.Equal(t, []Line{{Ingredient: mustGet(t, eng, "g2"), Parts: 1}}, lines)
	adv.err = nil
	adv.reply = "fine"
	text, err := eng.RequestAdvice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fine", text)
}

func TestRequestAdviceWithoutAdvisor(t *testing.T) {
	eng := setupEngine(t, nil)
	require.NoError(t, eng.Add("g2"))

	_, err := eng.RequestAdvice(context.Background())
	assert.ErrorIs(t, err, domain.ErrAdvisoryUnavailable)
	assert.False(t, eng.AdvicePending())
}

func TestStaleAdviceDiscarded(t *testing.T) {
	adv := &fakeAdvisor{
		reply:   "too late",
		gate:    make(chan struct{}),
		started: make(chan struct{}),
	}
	eng := setupEngine(t, adv)
	require.NoError(t, eng.Add("g1"))

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := eng.RequestAdvice(context.Background())
		done <- result{text, err}
	}()

	<-adv.started
	assert.True(t, eng.AdvicePending())

	// The mix keeps changing while the request is in flight.
	require.NoError(t, eng.Add("b1"))
	close(adv.gate)

	res := <-done
	assert.ErrorIs(t, res.err, domain.ErrStaleAdvice)
	assert.Empty(t, res.text)
	assert.False(t, eng.AdvicePending())

	_, ok := eng.Advice()
	assert.False(t, ok)
}

func TestAdviceTimeout(t *testing.T) {
	adv := &fakeAdvisor{gate: make(chan struct{})}
	eng := setupEngine(t, adv, WithAdviceTimeout(20*time.Millisecond))
	require.NoError(t, eng.Add("b3"))

	_, err := eng.RequestAdvice(context.Background())
	assert.ErrorIs(t, err, domain.ErrAdvisoryUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func mustGet(t *testing.T, eng *Engine, id string) domain.Ingredient {
	t.Helper()
	ing, err := eng.Catalog().Get(id)
	require.NoError(t, err)
	return ing
}

func TestNoopMutationsKeepAdvice(t *testing.T) {
	noops := []struct {
		name string
		fn   func(e *Engine)
	}{
		{"remove absent", func(e *Engine) { e.Remove("b6") }},
		{"adjust clamped", func(e *Engine) { _ = e.AdjustParts("g1", -5) }},
		{"adjust zero", func(e *Engine) { _ = e.AdjustParts("g1", 0) }},
	}

	for _, tt := range noops {
		t.Run(tt.name, func(t *testing.T) {
			eng := setupEngine(t, &fakeAdvisor{reply: "ok"})
			require.NoError(t, eng.Add("g1"))
			_, err := eng.RequestAdvice(context.Background())
			require.NoError(t, err)

			tt.fn(eng)

			text, ok := eng.Advice()
			assert.True(t, ok)
			assert.Equal(t, "ok", text)
		})
	}
}

// forgetfulCatalog stops resolving ids once forget is set.
type forgetfulCatalog struct {
	domain.IngredientCatalog
	forget bool
}

func (c *forgetfulCatalog) Get(id string) (domain.Ingredient, error) {
	if c.forget {
		return domain.Ingredient{}, domain.ErrNotFound
	}
	return c.IngredientCatalog.Get(id)
}

func TestEntriesUnresolvedIsInvariantViolation(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	cat := &forgetfulCatalog{IngredientCatalog: catalog.NewMemoryCatalog(log)}
	eng := New(cat, nil, log)
	require.NoError(t, eng.Add("g1"))

	cat.forget = true
	_, err := eng.Entries()
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	_, err = eng.Result()
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}
