package speech

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// Playback parameters matching DefaultAudioFormat.
const (
	SampleRate   = 24000
	ChannelCount = 1
)

// AudioSink plays WAV audio one clip at a time.
type AudioSink interface {
	Play(wav []byte) error
	Stop()
}

var _ AudioSink = (*Player)(nil)

// ErrBadWAV is returned for audio that isn't RIFF/WAVE PCM.
var ErrBadWAV = errors.New("invalid wav data")

// Player handles audio playback of WAV/PCM data via oto.
type Player struct {
	ctx    *oto.Context
	log    *logger.Logger
	mu     sync.Mutex
	active *oto.Player // nil when idle
}

// NewPlayer initializes the system audio context. It fails when no audio
// device is available.
func NewPlayer(log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	log.Debug("audio player initialized (rate=%d, channels=%d)", SampleRate, ChannelCount)
	return &Player{ctx: ctx, log: log}, nil
}

// Play blocks until the clip finishes or Stop is called.
func (p *Player) Play(wav []byte) error {
	pcm, err := extractPCM(wav)
	if err != nil {
		return err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(pcm))
	p.mu.Lock()
	p.active = player
	p.mu.Unlock()

	player.Play()
	p.log.Debug("audio player: playing %d bytes of PCM", len(pcm))

	tick := time.NewTicker(10 * time.Millisecond)
	for player.IsPlaying() {
		<-tick.C
	}
	tick.Stop()

	p.mu.Lock()
	p.active = nil
	p.mu.Unlock()
	return player.Close()
}

// Stop interrupts the current clip, if any. Safe to call at any time.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		p.log.Debug("audio player: interrupted")
	}
}

// extractPCM walks the RIFF chunks and returns the raw "data" payload.
func extractPCM(wav []byte) ([]byte, error) {
	if len(wav) < 44 {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrBadWAV, len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE header", ErrBadWAV)
	}

	pos := 12
	for pos+8 <= len(wav) {
		id := string(wav[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(wav[pos+4 : pos+8]))
		if id == "data" {
			start := pos + 8
			return wav[start:min(start+size, len(wav))], nil
		}
		// Chunks are word-aligned.
		pos += 8 + size + size%2
	}
	return nil, fmt.Errorf("%w: no data chunk", ErrBadWAV)
}
