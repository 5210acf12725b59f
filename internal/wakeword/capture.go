package wakeword

import (
	"encoding/binary"
	"errors"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// audioQueueCap bounds buffered capture frames; extra frames are dropped.
const audioQueueCap = 32

var _ Source = (*malgoSource)(nil)

// malgoSource captures 16 kHz mono S16 audio from the default microphone.
type malgoSource struct {
	log    *logger.Logger
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	drops  atomic.Int64
}

func newMalgoSource(log *logger.Logger) *malgoSource {
	return &malgoSource{log: log}
}

// Open starts the capture device. Frames arrive on the returned channel
// until Close.
func (m *malgoSource) Open() (<-chan []int16, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, err
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.SampleRate = sampleRate
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.Alsa.NoMMap = 1

	frames := make(chan []int16, audioQueueCap)
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, raw []byte, _ uint32) {
			if len(raw) == 0 {
				return
			}
			pcm := make([]int16, len(raw)/2)
			for i := range pcm {
				pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
			}
			select {
			case frames <- pcm:
			default:
				m.drops.Add(1)
			}
		},
	}

	device, err := malgo.InitDevice(mctx.Context, cfg, callbacks)
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return nil, err
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		return nil, err
	}

	m.ctx, m.device = mctx, device
	m.log.Debug("wakeword: capture started (rate=%d)", sampleRate)
	return frames, nil
}

// Close stops capture and frees the device.
func (m *malgoSource) Close() error {
	if m.device == nil {
		return nil
	}
	stopErr := m.device.Stop()
	m.device.Uninit()
	ctxErr := m.ctx.Uninit()
	m.ctx.Free()
	m.device, m.ctx = nil, nil
	if n := m.drops.Load(); n > 0 {
		m.log.Debug("wakeword: %d capture frames dropped", n)
	}
	return errors.Join(stopErr, ctxErr)
}
