// Package engine implements the compost calculator session: one mix, its
// live ratio, and the advice attached to it.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
	"github.com/hammamikhairi/compostcoach/internal/metrics"
	"github.com/hammamikhairi/compostcoach/internal/mix"
	"github.com/hammamikhairi/compostcoach/internal/ratio"
)

// Option configures the engine.
type Option func(*Engine)

// WithAdviceTimeout bounds a single advisory request.
func WithAdviceTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.adviceTimeout = d
	}
}

// Line is a mix entry resolved against the catalog.
type Line struct {
	Ingredient domain.Ingredient
	Parts      int
}

// Engine manages one calculator session. It depends only on interfaces and
// is safe for concurrent use. The advisor call runs without holding the
// lock so the mix stays editable while a request is in flight.
type Engine struct {
	catalog domain.IngredientCatalog
	advisor domain.Advisor
	log     *logger.Logger

	adviceTimeout time.Duration

	mu        sync.Mutex
	mix       *mix.Mix
	advice    string
	adviceGen uint64
	hasAdvice bool
	pending   int
}

// New creates a calculator engine. advisor may be nil, in which case
// RequestAdvice always reports ErrAdvisoryUnavailable.
func New(catalog domain.IngredientCatalog, advisor domain.Advisor, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		catalog:       catalog,
		advisor:       advisor,
		log:           log,
		adviceTimeout: 45 * time.Second,
		mix:           mix.New(catalog),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the ingredient catalog the engine was built with.
func (e *Engine) Catalog() domain.IngredientCatalog { return e.catalog }

// Add puts one more part of id into the mix.
func (e *Engine) Add(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.mix.Generation()
	if err := e.mix.Add(id); err != nil {
		return err
	}
	e.changed("add", before)
	e.log.Debug("added %s, now %d parts", id, e.mix.Parts(id))
	return nil
}

// AdjustParts changes the parts of an ingredient already in the mix. The
// count never drops below one.
func (e *Engine) AdjustParts(id string, delta int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.mix.Generation()
	if err := e.mix.AdjustParts(id, delta); err != nil {
		return err
	}
	e.changed("adjust", before)
	e.log.Debug("adjusted %s by %d, now %d parts", id, delta, e.mix.Parts(id))
	return nil
}

// Remove takes an ingredient out of the mix entirely.
func (e *Engine) Remove(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.mix.Generation()
	e.mix.Remove(id)
	e.changed("remove", before)
	e.log.Debug("removed %s", id)
}

// Clear empties the mix.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.mix.Generation()
	e.mix.Clear()
	e.changed("clear", before)
	e.log.Debug("mix cleared")
}

// changed drops any advice and records the mutation if the mix moved past
// generation before. Caller holds mu.
func (e *Engine) changed(op string, before uint64) {
	if e.mix.Generation() == before {
		return
	}
	e.advice = ""
	e.hasAdvice = false
	metrics.RecordMixMutation(op)
	if res, err := ratio.Compute(e.mix.Entries(), e.catalog); err == nil {
		metrics.RecordRatio(res.Status)
	}
}

// Result computes the ratio of the current mix. It is never cached.
func (e *Engine) Result() (domain.RatioResult, error) {
	e.mu.Lock()
	entries := e.mix.Entries()
	e.mu.Unlock()

	return ratio.Compute(entries, e.catalog)
}

// Entries returns the mix resolved against the catalog, in insertion order.
// An entry the catalog cannot resolve fails the call with
// ErrInvariantViolation, as Result does.
func (e *Engine) Entries() ([]Line, error) {
	e.mu.Lock()
	entries := e.mix.Entries()
	e.mu.Unlock()

	out := make([]Line, 0, len(entries))
	for _, me := range entries {
		ing, err := e.catalog.Get(me.IngredientID)
		if err != nil {
			e.log.Error("mix holds unknown ingredient %s", me.IngredientID)
			return nil, fmt.Errorf("resolving %q: %w: %w", me.IngredientID, domain.ErrInvariantViolation, err)
		}
		out = append(out, Line{Ingredient: ing, Parts: me.Parts})
	}
	return out, nil
}

// Describe renders the mix as a comma-separated parts list.
func (e *Engine) Describe() string {
	e.mu.Lock()
	entries := e.mix.Entries()
	e.mu.Unlock()

	return ratio.Describe(entries, e.catalog)
}

// RequestAdvice asks the advisor about the current mix and blocks until it
// answers. If the mix changes before the answer arrives the text is
// discarded and ErrStaleAdvice is returned.
func (e *Engine) RequestAdvice(ctx context.Context) (string, error) {
	e.mu.Lock()
	entries := e.mix.Entries()
	gen := e.mix.Generation()
	if len(entries) == 0 {
		e.mu.Unlock()
		return "", domain.ErrEmptyMix
	}
	res, err := ratio.Compute(entries, e.catalog)
	if err != nil {
		e.mu.Unlock()
		return "", fmt.Errorf("computing ratio: %w", err)
	}
	desc := ratio.Describe(entries, e.catalog)
	e.pending++
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.pending--
		e.mu.Unlock()
	}()

	if e.advisor == nil {
		return "", fmt.Errorf("no advisor configured: %w", domain.ErrAdvisoryUnavailable)
	}

	if e.adviceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.adviceTimeout)
		defer cancel()
	}

	e.log.Info("requesting advice for %q (ratio %.1f, gen %d)", desc, res.Ratio, gen)
	text, err := e.advisor.MixAdvice(ctx, desc, res.Ratio)
	if err != nil {
		e.log.Warn("advice request failed: %v", err)
		return "", fmt.Errorf("mix advice: %w: %w", domain.ErrAdvisoryUnavailable, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mix.Generation() != gen {
		metrics.RecordStaleAdvice()
		e.log.Debug("discarding advice for gen %d, mix is at gen %d", gen, e.mix.Generation())
		return "", domain.ErrStaleAdvice
	}

	e.advice = text
	e.adviceGen = gen
	e.hasAdvice = true
	return text, nil
}

// Advice returns the advice for the current mix, if any.
func (e *Engine) Advice() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasAdvice || e.adviceGen != e.mix.Generation() {
		return "", false
	}
	return e.advice, true
}

// AdvicePending reports whether an advisory request is in flight.
func (e *Engine) AdvicePending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending > 0
}
