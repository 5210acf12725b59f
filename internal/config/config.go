// Package config loads compostcoach settings. Values are layered: built-in
// defaults, then an optional YAML file, then environment variables (a .env
// file is read first if present). Command-line flags are applied last by
// the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "compostcoach.yaml"

// Environment variable names.
const (
	EnvGeminiKey         = "GEMINI_API_KEY"
	EnvAPIKey            = "API_KEY"
	EnvOpenAIKey         = "OPENAI_API_KEY"
	EnvAzureEndpoint     = "AZURE_OPENAI_ENDPOINT"
	EnvProvider          = "COMPOST_PROVIDER"
	EnvAzureSpeechKey    = "AZURE_SPEECH_KEY"
	EnvAzureSpeechRegion = "AZURE_SPEECH_REGION"
)

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
)

var validate = validator.New()

// Config is the full application configuration.
type Config struct {
	AI      AIConfig      `yaml:"ai"`
	Speech  SpeechConfig  `yaml:"speech"`
	Voice   VoiceConfig   `yaml:"voice"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// AIConfig selects and tunes the generative backend.
type AIConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Provider      string  `yaml:"provider" validate:"omitempty,oneof=gemini openai azure"`
	GeminiAPIKey  string  `yaml:"gemini_api_key"`
	OpenAIAPIKey  string  `yaml:"openai_api_key"`
	AzureEndpoint string  `yaml:"azure_endpoint" validate:"omitempty,url"`
	FastModel     string  `yaml:"fast_model"`
	DeepModel     string  `yaml:"deep_model"`
	AdviceTimeout string  `yaml:"advice_timeout"`
	RateLimit     float64 `yaml:"rate_limit" validate:"gt=0"`
	Burst         int     `yaml:"burst" validate:"gte=1"`
}

// SpeechConfig controls text-to-speech.
type SpeechConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AzureKey    string `yaml:"azure_key"`
	AzureRegion string `yaml:"azure_region"`
	Voice       string `yaml:"voice"`
	CacheDir    string `yaml:"cache_dir"`
	DiskCache   bool   `yaml:"disk_cache"`
}

// VoiceConfig controls push-to-talk speech input.
type VoiceConfig struct {
	Enabled       bool   `yaml:"enabled"`
	WhisperBin    string `yaml:"whisper_bin"`
	WhisperModel  string `yaml:"whisper_model"`
	RecordSeconds int    `yaml:"record_seconds" validate:"gte=1,lte=30"`
	TempDir       string `yaml:"temp_dir"`

	// Hands-free listening. Empty WakeModel keeps push-to-talk only.
	WakeModel      string  `yaml:"wake_model"`
	MelspecModel   string  `yaml:"melspec_model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	OnnxLib        string  `yaml:"onnx_lib"`
	WakeThreshold  float64 `yaml:"wake_threshold" validate:"gt=0,lte=1"`
}

// LoggingConfig controls the log level and destination.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=quiet normal verbose"`
	File  string `yaml:"file"`
}

// MetricsConfig controls the Prometheus listener. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AI: AIConfig{
			Enabled:       true,
			AdviceTimeout: "45s",
			RateLimit:     1,
			Burst:         3,
		},
		Speech: SpeechConfig{
			Enabled:   true,
			CacheDir:  ".compost-cache",
			DiskCache: true,
		},
		Voice: VoiceConfig{
			WhisperBin:    "whisper-cli",
			WhisperModel:  "bin/ggml-small.bin",
			RecordSeconds:  4,
			TempDir:        ".compost-stt",
			MelspecModel:   "bin/melspectrogram.onnx",
			EmbeddingModel: "bin/embedding_model.onnx",
			OnnxLib:        "bin/libonnxruntime.so",
			WakeThreshold:  0.3,
		},
		Logging: LoggingConfig{
			Level: "normal",
			File:  ".compost-logs/compostcoach.log",
		},
	}
}

// LoadDotEnv reads .env files into the environment. Missing files are
// ignored; variables already set win.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnvOverrides(os.Getenv)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides(getenv func(string) string) {
	if key := getenv(EnvAPIKey); key != "" {
		c.AI.GeminiAPIKey = key
	}
	if key := getenv(EnvGeminiKey); key != "" {
		c.AI.GeminiAPIKey = key
	}
	if key := getenv(EnvOpenAIKey); key != "" {
		c.AI.OpenAIAPIKey = key
	}
	if ep := getenv(EnvAzureEndpoint); ep != "" {
		c.AI.AzureEndpoint = ep
	}
	if p := getenv(EnvProvider); p != "" {
		c.AI.Provider = strings.ToLower(p)
	}
	if key := getenv(EnvAzureSpeechKey); key != "" {
		c.Speech.AzureKey = key
	}
	if region := getenv(EnvAzureSpeechRegion); region != "" {
		c.Speech.AzureRegion = region
	}

	if c.AI.Provider == "" {
		c.AI.Provider = c.detectProvider()
	}
}

// detectProvider picks a backend from whichever credentials are present.
func (c *Config) detectProvider() string {
	switch {
	case c.AI.GeminiAPIKey != "":
		return ProviderGemini
	case c.AI.OpenAIAPIKey != "" && c.AI.AzureEndpoint != "":
		return ProviderAzure
	case c.AI.OpenAIAPIKey != "":
		return ProviderOpenAI
	default:
		return ProviderGemini
	}
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.ParseDuration(c.AI.AdviceTimeout); err != nil {
		return fmt.Errorf("invalid config: ai.advice_timeout %q: %w", c.AI.AdviceTimeout, err)
	}
	if c.AI.Provider == ProviderAzure && c.AI.AzureEndpoint == "" {
		return fmt.Errorf("invalid config: provider azure needs %s", EnvAzureEndpoint)
	}
	return nil
}

// AIReady reports whether AI is enabled and the selected provider has a key.
func (c *Config) AIReady() bool {
	if !c.AI.Enabled {
		return false
	}
	switch c.AI.Provider {
	case ProviderGemini:
		return c.AI.GeminiAPIKey != ""
	case ProviderOpenAI, ProviderAzure:
		return c.AI.OpenAIAPIKey != ""
	default:
		return false
	}
}

// SpeechReady reports whether TTS is enabled and Azure credentials are set.
func (c *Config) SpeechReady() bool {
	return c.Speech.Enabled && c.Speech.AzureKey != "" && c.Speech.AzureRegion != ""
}

// AdviceTimeoutDuration returns the advice timeout, defaulting to 45s.
func (c *Config) AdviceTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.AI.AdviceTimeout)
	if err != nil || d <= 0 {
		return 45 * time.Second
	}
	return d
}

// LogLevel maps the configured level name onto a logger level.
func (c *Config) LogLevel() logger.Level {
	switch c.Logging.Level {
	case "quiet":
		return logger.LevelOff
	case "verbose":
		return logger.LevelVerbose
	default:
		return logger.LevelNormal
	}
}

// WakeWordReady reports whether voice input is on and a wake phrase model
// is configured.
func (c *Config) WakeWordReady() bool {
	return c.Voice.Enabled && c.Voice.WakeModel != ""
}

// RecordDuration returns the voice chunk length.
func (c *Config) RecordDuration() time.Duration {
	return time.Duration(c.Voice.RecordSeconds) * time.Second
}
