// CompostCoach is a conversational compost mix calculator and bin tracker.
//
// Usage:
//
//	compostcoach [--verbose] [--quiet] [--voice [--wake-model path]]
//	compostcoach catalog
//	compostcoach ratio g1=2 b1=1
//	compostcoach advise g1=2 b1=1
//	compostcoach search "is bokashi worth it"
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/compostcoach/internal/advisor"
	"github.com/hammamikhairi/compostcoach/internal/config"
	"github.com/hammamikhairi/compostcoach/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// options holds the command-line flags. Flags only override config values
// when explicitly set.
type options struct {
	configPath   string
	logFile      string
	verbose      bool
	quiet        bool
	noAI         bool
	noSpeech     bool
	voice        bool
	whisperBin   string
	whisperModel string
	wakeModel    string
	metricsAddr  string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "compostcoach",
		Short: "Balance a compost pile's carbon to nitrogen ratio",
		Long: `CompostCoach mixes greens and browns, shows the live C:N ratio and
asks an AI coach for advice. It also tracks bins and answers compost questions.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd, opts)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", config.DefaultPath, "path to the YAML config file")
	f.StringVar(&opts.logFile, "log-file", "", "file to write logs to (\"stderr\" for console)")
	f.BoolVar(&opts.verbose, "verbose", false, "enable verbose/debug logging")
	f.BoolVar(&opts.quiet, "quiet", false, "disable all logging")
	f.BoolVar(&opts.noAI, "no-ai", false, "disable the AI coach even if keys are set")
	f.BoolVar(&opts.noSpeech, "no-speech", false, "disable text-to-speech even if Azure keys are set")
	f.BoolVar(&opts.voice, "voice", false, "enable push-to-talk voice input via local Whisper")
	f.StringVar(&opts.whisperBin, "whisper-bin", "", "path to the whisper-cpp CLI binary")
	f.StringVar(&opts.whisperModel, "whisper-model", "", "path to the Whisper GGML model file")
	f.StringVar(&opts.wakeModel, "wake-model", "", "openWakeWord model for hands-free listening (with --voice)")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(
		newCatalogCmd(opts),
		newRatioCmd(opts),
		newAdviseCmd(opts),
		newSearchCmd(opts),
	)
	return root
}

// runtime is what every command needs once flags and config are resolved.
type runtime struct {
	cfg   *config.Config
	log   *logger.Logger
	close func()
}

// setup loads config, applies flag overrides and opens the log.
func setup(cmd *cobra.Command, opts *options) (*runtime, error) {
	config.LoadDotEnv()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, opts, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out, closeFn := openLogOutput(cfg.Logging.File)

	// Third-party libs (the whisper transcriber) log through the standard
	// logger; keep them off the terminal.
	stdlog.SetOutput(out)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(cfg.LogLevel(), out)
	return &runtime{
		cfg: cfg,
		log: log,
		close: func() {
			_ = log.Sync()
			closeFn()
		},
	}, nil
}

func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("log-file") {
		cfg.Logging.File = opts.logFile
	}
	if opts.verbose {
		cfg.Logging.Level = "verbose"
	}
	if opts.quiet {
		cfg.Logging.Level = "quiet"
	}
	if opts.noAI {
		cfg.AI.Enabled = false
	}
	if opts.noSpeech {
		cfg.Speech.Enabled = false
	}
	if opts.voice {
		cfg.Voice.Enabled = true
	}
	if changed("whisper-bin") {
		cfg.Voice.WhisperBin = opts.whisperBin
	}
	if changed("whisper-model") {
		cfg.Voice.WhisperModel = opts.whisperModel
	}
	if changed("wake-model") {
		cfg.Voice.WakeModel = opts.wakeModel
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = opts.metricsAddr
	}
}

// openLogOutput opens path for appending, falling back to stderr.
func openLogOutput(path string) (io.Writer, func()) {
	if path == "" || path == "stderr" {
		return os.Stderr, func() {}
	}
	if dir := filepath.Dir(path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", path, err)
		return os.Stderr, func() {}
	}
	return f, func() { f.Close() }
}

// errAIDisabled is returned by commands that need a generative backend.
var errAIDisabled = errors.New("AI is disabled: set GEMINI_API_KEY or OPENAI_API_KEY")

// buildService wires the generative backend selected by cfg. It returns
// errAIDisabled when AI is off or has no key.
func buildService(ctx context.Context, cfg *config.Config, log *logger.Logger) (*advisor.Service, error) {
	if !cfg.AIReady() {
		return nil, errAIDisabled
	}

	var (
		gen advisor.Generator
		err error
	)
	switch cfg.AI.Provider {
	case config.ProviderOpenAI, config.ProviderAzure:
		oaOpts := []advisor.OpenAIOption{advisor.WithOpenAIModels(cfg.AI.FastModel, cfg.AI.DeepModel)}
		if cfg.AI.Provider == config.ProviderAzure {
			oaOpts = append(oaOpts, advisor.WithAzureEndpoint(cfg.AI.AzureEndpoint))
		}
		gen, err = advisor.NewOpenAIGenerator(cfg.AI.OpenAIAPIKey, log, oaOpts...)
	default:
		gen, err = advisor.NewGeminiGenerator(ctx, cfg.AI.GeminiAPIKey, log,
			advisor.WithGeminiModels(cfg.AI.FastModel, cfg.AI.DeepModel))
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s backend: %w", cfg.AI.Provider, err)
	}

	log.Info("AI coach enabled (backend=%s)", gen.Name())
	return advisor.NewService(gen, log, advisor.WithRateLimit(cfg.AI.RateLimit, cfg.AI.Burst)), nil
}
