package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/compostcoach/internal/catalog"
	"github.com/hammamikhairi/compostcoach/internal/config"
	"github.com/hammamikhairi/compostcoach/internal/conversation"
	"github.com/hammamikhairi/compostcoach/internal/display"
	"github.com/hammamikhairi/compostcoach/internal/domain"
	"github.com/hammamikhairi/compostcoach/internal/engine"
	"github.com/hammamikhairi/compostcoach/internal/logger"
	"github.com/hammamikhairi/compostcoach/internal/metrics"
	"github.com/hammamikhairi/compostcoach/internal/speech"
	"github.com/hammamikhairi/compostcoach/internal/storage"
	"github.com/hammamikhairi/compostcoach/internal/tracker"
	"github.com/hammamikhairi/compostcoach/internal/wakeword"
)

// runInteractive wires every component and runs the TUI until quit.
func runInteractive(cmd *cobra.Command, opts *options) error {
	rt, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, log := rt.cfg, rt.log

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// A nil *advisor.Service must not leak into the interfaces below.
	var (
		adv     domain.Advisor
		content domain.ContentService
	)
	svc, err := buildService(ctx, cfg, log)
	switch {
	case errors.Is(err, errAIDisabled):
		log.Info("AI coach disabled: set %s or %s to enable", config.EnvGeminiKey, config.EnvOpenAIKey)
	case err != nil:
		return err
	default:
		adv, content = svc, svc
	}

	cat := catalog.NewMemoryCatalog(log)
	eng := engine.New(cat, adv, log, engine.WithAdviceTimeout(cfg.AdviceTimeoutDuration()))
	bins := tracker.New(storage.NewMemoryBinStore(log), content, log)
	ui := display.NewUI(eng)

	textNotifier := conversation.NewCLINotifier(log, ui.Printf)
	var notifier domain.Notifier = textNotifier

	mouth := buildMouth(ctx, cfg, log)
	if mouth != nil {
		notifier = speech.NewSpeakingNotifier(textNotifier, mouth, log)
	}

	wake := buildWakeWord(cfg, mouth, log)
	ear, err := buildEar(cfg, mouth, wake, log)
	if err != nil {
		return err
	}

	app := &cliApp{
		engine:   eng,
		tracker:  bins,
		svc:      svc,
		parser:   conversation.NewKeywordParser(log),
		notifier: notifier,
		mouth:    mouth,
		ear:      ear,
		log:      log,
		ui:       ui,
		voiceCh:  make(chan string, 1),
	}

	fmt.Println(display.RenderBanner())
	switch {
	case ear != nil && wake != nil:
		fmt.Println(display.BannerStyle.Render("  Voice mode ON: say the wake phrase or type 'listen', or type commands."))
	case ear != nil:
		fmt.Println(display.BannerStyle.Render("  Voice mode ON: type 'listen' and speak, or type commands."))
	}
	fmt.Println(display.BannerStyle.Render("  Type 'help' for commands, 'quit' to exit."))
	fmt.Println()

	g, gctx := errgroup.WithContext(ctx)

	if addr := cfg.Metrics.Addr; addr != "" {
		g.Go(func() error {
			log.Info("metrics listening on %s", addr)
			return metrics.Serve(gctx, addr)
		})
	}

	if ear != nil && wake != nil {
		app.wakeCh = make(chan struct{}, 1)
		wake.OnDetected = app.wake
		g.Go(func() error {
			// A missing model or microphone leaves push-to-talk working.
			if err := wake.Start(gctx); err != nil && gctx.Err() == nil {
				log.Error("wake word disabled: %v", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-ui.Ready():
		case <-gctx.Done():
			return nil
		}
		app.run(gctx)
		ui.Quit()
		return nil
	})

	// Bubble Tea owns the terminal until quit.
	g.Go(func() error {
		defer cancel()
		if err := ui.Run(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// buildMouth returns nil when speech is off or the audio device is missing.
func buildMouth(ctx context.Context, cfg *config.Config, log *logger.Logger) *speech.Mouth {
	if !cfg.SpeechReady() {
		if cfg.Speech.Enabled {
			log.Info("TTS disabled: set %s and %s to enable", config.EnvAzureSpeechKey, config.EnvAzureSpeechRegion)
		}
		return nil
	}

	tts := speech.NewAzureClient(cfg.Speech.AzureKey, cfg.Speech.AzureRegion, log,
		speech.WithVoice(cfg.Speech.Voice))
	player, err := speech.NewPlayer(log)
	if err != nil {
		log.Error("audio player init failed, speech disabled: %v", err)
		return nil
	}

	mouth := speech.NewMouth(tts, player, log,
		speech.WithCacheDir(cfg.Speech.CacheDir),
		speech.WithDiskWrite(cfg.Speech.DiskCache),
	)
	mouth.Start(ctx)
	mouth.Prefetch(ctx, speech.ThinkingFillers()...)
	mouth.Prefetch(ctx, speech.ListeningFillers()...)
	log.Info("TTS enabled (voice=%s, region=%s)", tts.Voice(), cfg.Speech.AzureRegion)
	return mouth
}

// buildWakeWord returns nil unless voice input is on with a wake model.
func buildWakeWord(cfg *config.Config, mouth *speech.Mouth, log *logger.Logger) *wakeword.Detector {
	if !cfg.WakeWordReady() {
		return nil
	}
	opts := []wakeword.Option{}
	if mouth != nil {
		opts = append(opts, wakeword.WithBusy(mouth.Busy))
	}
	log.Info("wake word enabled (model=%s, threshold=%.2f)", cfg.Voice.WakeModel, cfg.Voice.WakeThreshold)
	return wakeword.New(wakeword.Config{
		WakewordModel:  cfg.Voice.WakeModel,
		MelspecModel:   cfg.Voice.MelspecModel,
		EmbeddingModel: cfg.Voice.EmbeddingModel,
		OnnxLib:        cfg.Voice.OnnxLib,
		Threshold:      cfg.Voice.WakeThreshold,
	}, log, opts...)
}

// buildEar returns nil when voice input is off.
func buildEar(cfg *config.Config, mouth *speech.Mouth, wake *wakeword.Detector, log *logger.Logger) (*speech.Ear, error) {
	if !cfg.Voice.Enabled {
		return nil, nil
	}
	if _, err := os.Stat(cfg.Voice.WhisperModel); err != nil {
		return nil, fmt.Errorf("whisper model not found at %s: %w", cfg.Voice.WhisperModel, err)
	}
	if err := os.MkdirAll(cfg.Voice.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", cfg.Voice.TempDir, err)
	}

	opts := []speech.EarOption{
		speech.WithRecordDuration(cfg.RecordDuration()),
		speech.WithTempDir(cfg.Voice.TempDir),
		speech.WithMouth(mouth),
	}
	if wake != nil {
		opts = append(opts, speech.WithMicGate(wake))
	}
	ear := speech.NewEar(cfg.Voice.WhisperBin, cfg.Voice.WhisperModel, log, opts...)
	if err := ear.Check(); err != nil {
		log.Error("ear: %v", err)
	}
	log.Info("voice input enabled (bin=%s, model=%s, chunk=%s)",
		cfg.Voice.WhisperBin, cfg.Voice.WhisperModel, cfg.RecordDuration())
	return ear, nil
}
