// Package speech converts guidance phrases into audio using a hosted
// text to speech service
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/sjson"
)

// Synthesizer turns a phrase into encoded audio
type Synthesizer interface {
	// Synthesize returns the audio for the given phrase
	Synthesize(ctx context.Context, phrase string) ([]byte, error)
}

// Config holds text to speech client settings
type Config struct {
	// Endpoint is the base URL of the text to speech API
	Endpoint string
	// VoiceID selects the synthesis voice
	VoiceID string
	// APIKey authenticates requests
	APIKey string
	// Stability controls voice consistency between runs
	Stability float64
	// SimilarityBoost controls adherence to the reference voice
	SimilarityBoost float64
	// Timeout bounds a single synthesis request
	Timeout time.Duration
}

// DefaultConfig returns text to speech settings with sensible defaults
func DefaultConfig() Config {
	return Config{
		Endpoint:        "https://api.elevenlabs.io/v1/text-to-speech",
		Stability:       0.4,
		SimilarityBoost: 0.8,
		Timeout:         10 * time.Second,
	}
}

// Client is a Synthesizer backed by an HTTP text to speech API
type Client struct {
	cfg  Config
	http *http.Client
	log  *logrus.Entry
}

// NewClient returns a Client for the given settings
func NewClient(cfg Config) *Client {

	def := DefaultConfig()

	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.Stability == 0 {
		cfg.Stability = def.Stability
	}
	if cfg.SimilarityBoost == 0 {
		cfg.SimilarityBoost = def.SimilarityBoost
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logrus.WithField("component", "speech"),
	}
}

// Synthesize posts the phrase to the API and returns the audio bytes
func (c *Client) Synthesize(ctx context.Context, phrase string) ([]byte, error) {

	if phrase == "" {
		return nil, fmt.Errorf("empty phrase")
	}
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("speech API key is not configured")
	}
	if c.cfg.VoiceID == "" {
		return nil, fmt.Errorf("speech voice id is not configured")
	}

	body, err := c.buildRequest(phrase)
	if err != nil {
		return nil, fmt.Errorf("failed to build synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.cfg.Endpoint, c.cfg.VoiceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("synthesis request failed with status %d",
			resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesis response: %w", err)
	}

	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesis returned no audio")
	}

	c.log.WithFields(logrus.Fields{
		"bytes":  len(audio),
		"phrase": phrase,
	}).Debug("synthesized phrase")

	return audio, nil
}

// buildRequest assembles the synthesis request JSON body
func (c *Client) buildRequest(phrase string) ([]byte, error) {

	body := []byte(`{}`)
	var err error

	body, err = sjson.SetBytes(body, "text", phrase)
	if err != nil {
		return nil, err
	}

	body, err = sjson.SetBytes(body, "voice_settings.stability", c.cfg.Stability)
	if err != nil {
		return nil, err
	}

	body, err = sjson.SetBytes(body, "voice_settings.similarity_boost",
		c.cfg.SimilarityBoost)
	if err != nil {
		return nil, err
	}

	return body, nil
}

// SaveAudio writes audio bytes to path, creating parent directories as
// needed.  It returns the path written for convenience
func SaveAudio(path string, audio []byte) (string, error) {

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}

	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	return path, nil
}
