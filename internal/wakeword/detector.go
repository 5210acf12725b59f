// Package wakeword starts hands-free listening when the gardener says the
// wake phrase. Microphone audio is captured through miniaudio (malgo) and
// scored by the openWakeWord ONNX pipeline: melspectrogram, embedding,
// then the wake phrase model.
//
// The model files and the ONNX Runtime shared library are supplied
// through Config; nothing is downloaded.
package wakeword

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/compostcoach/internal/logger"
)

const (
	sampleRate   = 16000
	chunkSamples = 1280 // 80 ms @ 16 kHz

	// scoreWindowSize is how many recent scores are kept. Detection fires
	// on the window max so a peak one frame early or late still counts.
	scoreWindowSize = 5
)

// ErrNoModel is returned by Start when no wake phrase model is configured.
var ErrNoModel = errors.New("no wake word model configured")

// Config holds model paths and detection tuning.
type Config struct {
	WakewordModel  string // e.g. "bin/hey_coach.onnx"
	MelspecModel   string // e.g. "bin/melspectrogram.onnx"
	EmbeddingModel string // e.g. "bin/embedding_model.onnx"
	OnnxLib        string // e.g. "bin/libonnxruntime.so"

	Threshold float64       // window max >= threshold fires (default 0.3)
	Cooldown  time.Duration // min gap between detections (default 1.5s)
}

func (c *Config) defaults() {
	if c.Threshold <= 0 {
		c.Threshold = 0.3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 1500 * time.Millisecond
	}
}

// Source delivers 16 kHz mono PCM frames of any length.
type Source interface {
	Open() (<-chan []int16, error)
	Close() error
}

// Scorer turns 80 ms chunks into wake phrase scores. ok is false while the
// pipeline is still filling and has no new score.
type Scorer interface {
	Score(chunk []int16) (score float32, ok bool, err error)
	Reset()
	Close() error
}

// Option configures a Detector.
type Option func(*Detector)

// WithSource replaces the malgo microphone capture.
func WithSource(s Source) Option {
	return func(d *Detector) { d.source = s }
}

// WithScorer replaces the ONNX pipeline.
func WithScorer(s Scorer) Option {
	return func(d *Detector) { d.scorer = s }
}

// WithBusy mutes detection while busy reports true, so the coach's own
// voice from the speaker can't wake it.
func WithBusy(busy func() bool) Option {
	return func(d *Detector) {
		if busy != nil {
			d.busy = busy
		}
	}
}

// WithClock sets the time source used for the cooldown.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// Detector listens for the wake phrase and calls OnDetected.
type Detector struct {
	cfg    Config
	log    *logger.Logger
	source Source
	scorer Scorer
	busy   func() bool
	now    func() time.Time

	// OnDetected is called from the processing goroutine. Set it before
	// Start.
	OnDetected func()

	mu     sync.Mutex
	paused bool
}

// New creates a Detector. Call Start to begin listening.
func New(cfg Config, log *logger.Logger, opts ...Option) *Detector {
	cfg.defaults()
	d := &Detector{
		cfg:  cfg,
		log:  log,
		busy: func() bool { return false },
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pause stops detection, for example while the Ear has the microphone.
func (d *Detector) Pause() {
	d.mu.Lock()
	d.paused = true
	d.mu.Unlock()
}

// Resume re-enables detection after a Pause. Pipeline state from before
// the pause is discarded.
func (d *Detector) Resume() {
	d.mu.Lock()
	d.paused = false
	d.mu.Unlock()
}

func (d *Detector) muted() bool {
	d.mu.Lock()
	paused := d.paused
	d.mu.Unlock()
	return paused || d.busy()
}

// Start opens the scorer and the microphone, then processes audio until
// ctx is cancelled. Run it in its own goroutine.
func (d *Detector) Start(ctx context.Context) error {
	if d.scorer == nil {
		if d.cfg.WakewordModel == "" {
			return ErrNoModel
		}
		s, err := openONNXScorer(d.cfg, d.log)
		if err != nil {
			return fmt.Errorf("wakeword: %w", err)
		}
		d.scorer = s
	}
	defer d.scorer.Close()

	if d.source == nil {
		d.source = newMalgoSource(d.log)
	}
	frames, err := d.source.Open()
	if err != nil {
		return fmt.Errorf("wakeword: opening microphone: %w", err)
	}
	defer d.source.Close()

	d.log.Info("wakeword: listening (threshold=%.2f)", d.cfg.Threshold)
	return d.run(ctx, frames)
}

// run is the processing loop: it re-chunks frames to 80 ms, scores them
// and fires on the trailing window max.
func (d *Detector) run(ctx context.Context, frames <-chan []int16) error {
	var (
		rem        = make([]int16, 0, chunkSamples*2)
		window     [scoreWindowSize]float32
		idx        int
		lastDetect time.Time
		skipping   bool
	)

	reset := func() {
		rem = rem[:0]
		window = [scoreWindowSize]float32{}
		idx = 0
		d.scorer.Reset()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if d.muted() {
				skipping = true
				continue
			}
			if skipping {
				skipping = false
				reset()
				d.log.Debug("wakeword: pipeline reset after mute")
			}

			rem = append(rem, frame...)
			for len(rem) >= chunkSamples {
				chunk := make([]int16, chunkSamples)
				copy(chunk, rem)
				n := copy(rem, rem[chunkSamples:])
				rem = rem[:n]

				score, ok, err := d.scorer.Score(chunk)
				if err != nil {
					d.log.Error("wakeword: scoring failed: %v", err)
					continue
				}
				if !ok {
					continue
				}

				window[idx%scoreWindowSize] = score
				idx++
				var peak float32
				for _, s := range window {
					peak = max(peak, s)
				}
				if float64(peak) >= d.cfg.Threshold*0.1 {
					d.log.Debug("wakeword: score=%.4f max=%.4f (threshold=%.2f)", score, peak, d.cfg.Threshold)
				}

				now := d.now()
				if float64(peak) < d.cfg.Threshold || now.Sub(lastDetect) <= d.cfg.Cooldown {
					continue
				}
				d.log.Info("wakeword: detected (score=%.4f, windowMax=%.4f)", score, peak)
				lastDetect = now
				window = [scoreWindowSize]float32{}
				if d.OnDetected != nil {
					d.OnDetected()
				}
			}
		}
	}
}
