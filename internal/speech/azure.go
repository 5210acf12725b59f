package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hammamikhairi/compostcoach/internal/logger"
)

// DefaultVoice is the Azure neural voice used when none is configured.
const DefaultVoice = "en-US-AndrewNeural"

// DefaultAudioFormat is requested from Azure and expected by the player.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Synthesizer turns text into WAV audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Voice() string
}

var _ Synthesizer = (*AzureClient)(nil)

// AzureOption configures the Azure TTS client.
type AzureOption func(*AzureClient)

// WithVoice sets the TTS voice. Empty keeps the default.
func WithVoice(voice string) AzureOption {
	return func(c *AzureClient) {
		if voice != "" {
			c.voice = voice
		}
	}
}

// WithHTTPTimeout sets the HTTP client timeout for TTS requests.
func WithHTTPTimeout(d time.Duration) AzureOption {
	return func(c *AzureClient) {
		c.httpClient.Timeout = d
	}
}

// WithRequestRate caps synthesis calls per second. The free Azure tier
// allows 20 requests a minute.
func WithRequestRate(rps float64, burst int) AzureOption {
	return func(c *AzureClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// AzureClient handles text-to-speech synthesis via Azure Cognitive Services.
type AzureClient struct {
	subscriptionKey string
	endpoint        string
	voice           string
	format          string
	httpClient      *http.Client
	limiter         *rate.Limiter
	log             *logger.Logger
}

// NewAzureClient creates an Azure TTS client for the given region.
func NewAzureClient(key, region string, log *logger.Logger, opts ...AzureOption) *AzureClient {
	c := &AzureClient{
		subscriptionKey: key,
		endpoint:        fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		voice:           DefaultVoice,
		format:          DefaultAudioFormat,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		limiter:         rate.NewLimiter(rate.Every(3*time.Second), 5),
		log:             log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Voice returns the configured voice name.
func (c *AzureClient) Voice() string { return c.voice }

// Synthesize converts text to WAV bytes.
func (c *AzureClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("tts rate limit: %w", err)
	}

	ssml, err := buildSSML(c.voice, text)
	if err != nil {
		return nil, err
	}
	c.log.Debug("azure tts: synthesizing %d chars with voice %s", len(text), c.voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", c.format)
	req.Header.Set("User-Agent", "CompostCoach/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("azure tts error %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio data: %w", err)
	}

	c.log.Debug("azure tts: got %d bytes of audio", len(audio))
	return audio, nil
}

// buildSSML wraps escaped text in SSML for the given voice.
func buildSSML(voice, text string) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, `<speak version='1.0' xml:lang='en-US'><voice xml:lang='en-US' name='%s'>`, voice)
	if err := xml.EscapeText(&b, []byte(text)); err != nil {
		return nil, fmt.Errorf("escaping ssml: %w", err)
	}
	b.WriteString(`</voice></speak>`)
	return b.Bytes(), nil
}
