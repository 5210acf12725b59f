// Package speech reads coaching output aloud through Azure TTS and takes
// push-to-talk voice input through a local Whisper model.
package speech

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// Priority orders queued speech. Higher speaks first.
type Priority int

const (
	PriorityLow      Priority = iota // tips, ratio readouts
	PriorityNormal                   // replies, advice
	PriorityHigh                     // pile out of balance
	PriorityCritical                 // errors, listening prompt
)

// RatioPriority is how urgently a ratio readout for status is spoken.
// An unbalanced pile jumps ahead of tips and chatter.
func RatioPriority(status domain.Status) Priority {
	switch status {
	case domain.StatusTooGreen, domain.StatusTooBrown:
		return PriorityHigh
	default:
		return PriorityLow
	}
}

// SpeechRequest is a queued item waiting to be spoken.
type SpeechRequest struct {
	Text     string
	Priority Priority
	QueuedAt time.Time
}

// MouthOption configures the Mouth.
type MouthOption func(*Mouth)

// WithChunkSize sets the approximate max characters per TTS request.
// Longer text is split at sentence boundaries and synthesized in parallel.
func WithChunkSize(n int) MouthOption {
	return func(m *Mouth) { m.chunkSize = n }
}

// WithCacheDir sets the on-disk audio cache directory. Empty disables it.
func WithCacheDir(dir string) MouthOption {
	return func(m *Mouth) { m.cacheDir = dir }
}

// WithDiskWrite controls whether new clips are persisted. Existing clips
// on disk are read either way.
func WithDiskWrite(enabled bool) MouthOption {
	return func(m *Mouth) { m.diskWrite = enabled }
}

// WithSynthConcurrency caps parallel synthesis requests per utterance.
func WithSynthConcurrency(n int) MouthOption {
	return func(m *Mouth) { m.synthLimit = n }
}

// Mouth serializes all speech: queue, chunk, synthesize in parallel, play
// in order. Only one utterance plays at a time and higher priorities go
// first. Synthesized clips are cached.
type Mouth struct {
	tts    Synthesizer
	player AudioSink
	log    *logger.Logger
	cache  *AudioCache

	chunkSize  int
	synthLimit int
	cacheDir   string
	diskWrite  bool

	notify chan struct{}

	mu          sync.Mutex
	queue       []SpeechRequest
	speaking    bool
	interrupted bool
	lastSpoken  string
}

// NewMouth creates a speech dispatcher.
func NewMouth(tts Synthesizer, player AudioSink, log *logger.Logger, opts ...MouthOption) *Mouth {
	m := &Mouth{
		tts:        tts,
		player:     player,
		log:        log,
		notify:     make(chan struct{}, 1),
		chunkSize:  200,
		synthLimit: 4,
		diskWrite:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cache = NewAudioCache(tts.Voice(), m.cacheDir, m.diskWrite, log)
	return m
}

// Say queues text at the given priority and returns immediately. Anything
// at PriorityNormal or above drops queued PriorityLow items.
func (m *Mouth) Say(text string, priority Priority) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	m.mu.Lock()
	if priority >= PriorityNormal {
		m.dropLowLocked()
	}
	m.queue = append(m.queue, SpeechRequest{Text: text, Priority: priority, QueuedAt: time.Now()})
	n := len(m.queue)
	m.mu.Unlock()

	m.log.Debug("mouth: queued (priority=%d, queue_len=%d): %s", priority, n, truncate(text, 60))

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

func (m *Mouth) dropLowLocked() {
	kept := m.queue[:0]
	for _, item := range m.queue {
		if item.Priority > PriorityLow {
			kept = append(kept, item)
		}
	}
	if dropped := len(m.queue) - len(kept); dropped > 0 {
		m.log.Debug("mouth: dropped %d low-priority items", dropped)
	}
	m.queue = kept
}

// IsSpeaking reports whether an utterance is being synthesized or played.
func (m *Mouth) IsSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}

// QueueLen returns the number of pending requests.
func (m *Mouth) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Busy reports whether the mouth is speaking or has queued speech.
func (m *Mouth) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking || len(m.queue) > 0
}

// Interrupt stops playback, clears the queue and abandons any remaining
// chunks of the current utterance.
func (m *Mouth) Interrupt() {
	m.mu.Lock()
	m.queue = m.queue[:0]
	m.interrupted = true
	m.mu.Unlock()

	m.player.Stop()
	m.log.Debug("mouth: interrupted")
}

// Start runs the speech loop until ctx is cancelled. Non-blocking.
func (m *Mouth) Start(ctx context.Context) {
	go m.loop(ctx)
	m.log.Info("mouth started (voice=%s)", m.tts.Voice())
}

func (m *Mouth) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.log.Info("mouth stopped")
			return
		case <-m.notify:
			m.drain(ctx)
		}
	}
}

func (m *Mouth) drain(ctx context.Context) {
	for ctx.Err() == nil {
		item, ok := m.dequeue()
		if !ok {
			return
		}

		m.speak(ctx, item)

		m.mu.Lock()
		m.speaking = false
		if len(item.Text) > 20 {
			m.lastSpoken = item.Text
		}
		m.mu.Unlock()
	}
}

// dequeue pops the highest priority item, oldest first within a priority,
// and marks the mouth as speaking.
func (m *Mouth) dequeue() (SpeechRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return SpeechRequest{}, false
	}
	best := 0
	for i, item := range m.queue {
		if item.Priority > m.queue[best].Priority {
			best = i
		}
	}
	item := m.queue[best]
	m.queue = append(m.queue[:best], m.queue[best+1:]...)
	m.interrupted = false
	m.speaking = true
	return item, true
}

func (m *Mouth) speak(ctx context.Context, req SpeechRequest) {
	m.log.Debug("mouth: speaking (priority=%d, waited=%s): %s",
		req.Priority, time.Since(req.QueuedAt).Round(time.Millisecond), truncate(req.Text, 60))

	chunks := m.splitChunks(req.Text)
	clips := make([][]byte, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.synthLimit)
	for i, chunk := range chunks {
		g.Go(func() error {
			audio, err := m.synthesize(gctx, chunk)
			if err != nil {
				m.log.Error("mouth: chunk %d synthesis failed: %v", i, err)
				return nil
			}
			clips[i] = audio
			return nil
		})
	}
	_ = g.Wait()

	for i, clip := range clips {
		if clip == nil {
			continue
		}
		if ctx.Err() != nil || m.wasInterrupted() {
			m.log.Debug("mouth: abandoning playback at chunk %d", i)
			return
		}
		if err := m.player.Play(clip); err != nil {
			m.log.Error("mouth: chunk %d playback failed: %v", i, err)
		}
	}
}

func (m *Mouth) wasInterrupted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interrupted
}

func (m *Mouth) synthesize(ctx context.Context, text string) ([]byte, error) {
	if audio, ok := m.cache.Get(text); ok {
		return audio, nil
	}
	audio, err := m.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	m.cache.Put(text, audio)
	return audio, nil
}

// Prefetch synthesizes texts in the background so a later Say starts
// immediately. Cached chunks are skipped.
func (m *Mouth) Prefetch(ctx context.Context, texts ...string) {
	for _, text := range texts {
		for _, chunk := range m.splitChunks(text) {
			if chunk == "" || m.cache.Has(chunk) {
				continue
			}
			go func() {
				if _, err := m.synthesize(ctx, chunk); err != nil {
					m.log.Debug("prefetch: %v", err)
				}
			}()
		}
	}
}

// LastSpoken returns the most recent utterance longer than a short ack.
func (m *Mouth) LastSpoken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSpoken
}

// Cache exposes the audio cache for stats.
func (m *Mouth) Cache() *AudioCache { return m.cache }

// ── Chunking ─────────────────────────────────────────────────────

// splitChunks groups sentences into chunks of about chunkSize characters.
func (m *Mouth) splitChunks(text string) []string {
	text = strings.TrimSpace(text)
	if m.chunkSize <= 0 || len(text) <= m.chunkSize {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}
	for _, s := range splitSentences(text) {
		if cur.Len() > 0 && cur.Len()+len(s) > m.chunkSize {
			flush()
		}
		cur.WriteString(s)
	}
	flush()
	return chunks
}

// splitSentences splits after . ! or ? keeping the punctuation and
// trailing whitespace with the sentence.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if r := runes[i]; r != '.' && r != '!' && r != '?' {
			continue
		}
		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
			cur.WriteRune(runes[i])
		}
		out = append(out, cur.String())
		cur.Reset()
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
