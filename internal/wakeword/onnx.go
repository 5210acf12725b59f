package wakeword

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// openWakeWord pipeline shapes.
const (
	melWindowSize = 76 // mel frames per embedding
	melStepSize   = 8  // mel frames between embeddings
	melBins       = 32
	nMelFrames    = 5 // mel frames per 80 ms chunk
	embeddingDim  = 96
	nEmbedFrames  = 16 // embeddings per wake phrase score

	// recentWindow is how many of the newest embedding slots reach the
	// wake phrase model; older slots are zeroed so long silence can't
	// suppress a detection.
	recentWindow = 5
)

var _ Scorer = (*onnxScorer)(nil)

// onnxScorer runs the three openWakeWord models over 80 ms chunks.
type onnxScorer struct {
	log *logger.Logger

	melIn, melOut     *ort.Tensor[float32]
	embedIn, embedOut *ort.Tensor[float32]
	wakeIn, wakeOut   *ort.Tensor[float32]
	sessions          []*ort.AdvancedSession

	melBuf   []float32
	embedBuf []float32
}

// openONNXScorer loads the runtime and all three models. On error
// everything opened so far is released.
func openONNXScorer(cfg Config, log *logger.Logger) (_ *onnxScorer, err error) {
	log.Debug("wakeword: initializing ONNX runtime (lib=%s)", cfg.OnnxLib)
	ort.SetSharedLibraryPath(cfg.OnnxLib)
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("onnx runtime: %w", err)
	}

	s := &onnxScorer{
		log:      log,
		melBuf:   make([]float32, 0, 2*melWindowSize*melBins),
		embedBuf: make([]float32, nEmbedFrames*embeddingDim),
	}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if s.melIn, s.melOut, err = s.session(cfg.MelspecModel,
		ort.NewShape(1, chunkSamples), ort.NewShape(1, 1, nMelFrames, melBins)); err != nil {
		return nil, fmt.Errorf("melspectrogram model: %w", err)
	}
	if s.embedIn, s.embedOut, err = s.session(cfg.EmbeddingModel,
		ort.NewShape(1, melWindowSize, melBins, 1), ort.NewShape(1, 1, 1, embeddingDim)); err != nil {
		return nil, fmt.Errorf("embedding model: %w", err)
	}
	if s.wakeIn, s.wakeOut, err = s.session(cfg.WakewordModel,
		ort.NewShape(1, nEmbedFrames, embeddingDim), ort.NewShape(1, 1)); err != nil {
		return nil, fmt.Errorf("wake word model %s: %w", cfg.WakewordModel, err)
	}
	return s, nil
}

// session builds a single-input single-output session bound to fresh
// tensors of the given shapes.
func (s *onnxScorer) session(path string, inShape, outShape ort.Shape) (*ort.Tensor[float32], *ort.Tensor[float32], error) {
	in, err := ort.NewEmptyTensor[float32](inShape)
	if err != nil {
		return nil, nil, err
	}
	out, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		in.Destroy()
		return nil, nil, err
	}
	inInfo, outInfo, err := ort.GetInputOutputInfo(path)
	if err != nil {
		in.Destroy()
		out.Destroy()
		return nil, nil, err
	}
	sess, err := ort.NewAdvancedSession(path,
		[]string{inInfo[0].Name}, []string{outInfo[0].Name},
		[]ort.Value{in}, []ort.Value{out}, nil)
	if err != nil {
		in.Destroy()
		out.Destroy()
		return nil, nil, err
	}
	s.sessions = append(s.sessions, sess)
	return in, out, nil
}

// Score pushes one chunk through the pipeline. A score is produced only
// when the chunk completes at least one new embedding.
func (s *onnxScorer) Score(chunk []int16) (float32, bool, error) {
	in := s.melIn.GetData()
	for i, v := range chunk {
		in[i] = float32(v)
	}
	if err := s.sessions[0].Run(); err != nil {
		return 0, false, fmt.Errorf("melspectrogram: %w", err)
	}
	for _, v := range s.melOut.GetData()[:nMelFrames*melBins] {
		s.melBuf = append(s.melBuf, v/10.0+2.0)
	}

	fresh := false
	for len(s.melBuf)/melBins >= melWindowSize {
		copy(s.embedIn.GetData(), s.melBuf[:melWindowSize*melBins])
		if err := s.sessions[1].Run(); err != nil {
			return 0, false, fmt.Errorf("embedding: %w", err)
		}
		copy(s.embedBuf, s.embedBuf[embeddingDim:])
		copy(s.embedBuf[(nEmbedFrames-1)*embeddingDim:], s.embedOut.GetData()[:embeddingDim])
		fresh = true

		n := copy(s.melBuf, s.melBuf[melStepSize*melBins:])
		s.melBuf = s.melBuf[:n]
	}
	if !fresh {
		return 0, false, nil
	}

	wake := s.wakeIn.GetData()
	pad := (nEmbedFrames - recentWindow) * embeddingDim
	clear(wake[:pad])
	copy(wake[pad:], s.embedBuf[pad:])
	if err := s.sessions[2].Run(); err != nil {
		return 0, false, fmt.Errorf("wake word: %w", err)
	}
	return s.wakeOut.GetData()[0], true, nil
}

// Reset drops buffered mel frames and embeddings.
func (s *onnxScorer) Reset() {
	s.melBuf = s.melBuf[:0]
	clear(s.embedBuf)
}

// Close releases sessions, tensors and the runtime.
func (s *onnxScorer) Close() error {
	for _, sess := range s.sessions {
		sess.Destroy()
	}
	s.sessions = nil
	for _, t := range []*ort.Tensor[float32]{s.melIn, s.melOut, s.embedIn, s.embedOut, s.wakeIn, s.wakeOut} {
		if t != nil {
			t.Destroy()
		}
	}
	return ort.DestroyEnvironment()
}
