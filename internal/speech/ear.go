package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// ErrNoSpeech is returned when a listen window ends without any words.
var ErrNoSpeech = errors.New("no speech heard")

// Recorder records audio for d and returns its transcription.
type Recorder func(ctx context.Context, d time.Duration) (string, error)

// speaker is the part of Mouth the Ear needs.
type speaker interface {
	Say(text string, priority Priority)
	Interrupt()
	Busy() bool
}

// MicGate shares the microphone with another listener, such as a wake
// word detector. It is paused for the length of each Listen.
type MicGate interface {
	Pause()
	Resume()
}

// EarOption configures the Ear.
type EarOption func(*Ear)

// WithRecordDuration sets the length of each recorded chunk.
func WithRecordDuration(d time.Duration) EarOption {
	return func(e *Ear) { e.chunk = d }
}

// WithListenTimeout caps a whole push-to-talk window.
func WithListenTimeout(d time.Duration) EarOption {
	return func(e *Ear) { e.timeout = d }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) EarOption {
	return func(e *Ear) { e.tempDir = dir }
}

// WithMouth lets the Ear silence speech and say a listening prompt
// before recording.
func WithMouth(m *Mouth) EarOption {
	return func(e *Ear) {
		if m != nil {
			e.mouth = m
		}
	}
}

// WithMicGate pauses g while the Ear records.
func WithMicGate(g MicGate) EarOption {
	return func(e *Ear) { e.gate = g }
}

// WithRecorder replaces the Whisper recorder.
func WithRecorder(r Recorder) EarOption {
	return func(e *Ear) { e.record = r }
}

// Ear is push-to-talk speech input over a local Whisper model. Each
// Listen call records short chunks until the speaker goes quiet or the
// window times out, then returns the joined text.
type Ear struct {
	whisperBin string
	modelPath  string
	tempDir    string
	log        *logger.Logger
	mouth      speaker
	gate       MicGate
	record     Recorder

	chunk   time.Duration
	timeout time.Duration

	mu        sync.Mutex
	listening bool
}

// NewEar creates a push-to-talk listener.
func NewEar(whisperBin, modelPath string, log *logger.Logger, opts ...EarOption) *Ear {
	e := &Ear{
		whisperBin: whisperBin,
		modelPath:  modelPath,
		tempDir:    ".compost-stt",
		log:        log,
		chunk:      4 * time.Second,
		timeout:    20 * time.Second,
	}
	e.record = e.whisperChunk
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check reports whether the whisper binary can be found.
func (e *Ear) Check() error {
	if _, err := exec.LookPath(e.whisperBin); err != nil {
		return fmt.Errorf("whisper binary %q: %w", e.whisperBin, err)
	}
	return nil
}

// Listening reports whether a Listen call is in progress.
func (e *Ear) Listening() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listening
}

// Listen records one utterance. Only one Listen runs at a time.
func (e *Ear) Listen(ctx context.Context) (string, error) {
	e.mu.Lock()
	if e.listening {
		e.mu.Unlock()
		return "", errors.New("already listening")
	}
	e.listening = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.listening = false
		e.mu.Unlock()
	}()

	if e.gate != nil {
		e.gate.Pause()
		defer e.gate.Resume()
	}

	if e.mouth != nil {
		e.mouth.Interrupt()
		e.mouth.Say(LineListening(), PriorityCritical)
		if err := e.waitForMouth(ctx); err != nil {
			return "", err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	// More silence is tolerated before the first words than after.
	const graceEmpty, postSpeechEmpty = 2, 1

	var parts []string
	empty := 0
	for {
		text, err := e.record(ctx, e.chunk)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return "", err
		}

		text = cleanTranscription(text)
		if text == "" {
			empty++
			limit := graceEmpty
			if len(parts) > 0 {
				limit = postSpeechEmpty
			}
			if empty >= limit {
				break
			}
			continue
		}

		empty = 0
		e.log.Debug("ear: chunk %q", text)
		parts = append(parts, text)
	}

	heard := strings.TrimSpace(strings.Join(parts, " "))
	if heard == "" {
		return "", ErrNoSpeech
	}
	e.log.Info("ear: heard %q", heard)
	return heard, nil
}

// waitForMouth blocks until queued speech has played so the microphone
// doesn't record it.
func (e *Ear) waitForMouth(ctx context.Context) error {
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for e.mouth.Busy() {
		select {
		case <-tick.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// whisperChunk records d of audio through whisper-cli.
func (e *Ear) whisperChunk(ctx context.Context, d time.Duration) (string, error) {
	var (
		result string
		wg     sync.WaitGroup
	)
	wg.Add(1)
	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := e.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(e.whisperBin, e.modelPath, e.tempDir, "wav", callback, verbose)
	if err != nil {
		return "", fmt.Errorf("transcriber init: %w", err)
	}
	if err := t.Start(); err != nil {
		return "", fmt.Errorf("recording start: %w", err)
	}

	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
	t.Stop()
	wg.Wait()

	return result, ctx.Err()
}

// ── Transcription cleanup ────────────────────────────────────────

var (
	// "[00:00:00.000 --> 00:00:04.000]"
	whisperTimestamp = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\.\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}\.\d{3}\]`)
	// "[BLANK_AUDIO]", "(keyboard clicking)", "[Music]"...
	envAnnotation = regexp.MustCompile(`[\(\[][A-Za-z_][A-Za-z_\s]*[\)\]]`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// hallucinations are whole transcriptions whisper invents from silence.
var hallucinations = map[string]bool{
	"":                        true,
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"bye.":                    true,
	"the end.":                true,
}

// cleanTranscription strips whisper timestamps and annotations and
// drops known silence hallucinations.
func cleanTranscription(s string) string {
	s = whisperTimestamp.ReplaceAllString(s, " ")
	s = envAnnotation.ReplaceAllString(s, " ")
	s = strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	return s
}
