package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	elevenLabsBaseURL = "https://api.elevenlabs.io/v1"

	// DefaultVoiceID is used when a scenario has no voice for the language.
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

	ttsModelID = "eleven_multilingual_v2"
)

type vendorConfig struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*vendorConfig)

func WithBaseURL(u string) Option {
	return func(c *vendorConfig) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *vendorConfig) {
		c.httpClient = hc
	}
}

func newVendorConfig(timeout time.Duration, opts []Option) vendorConfig {
	cfg := vendorConfig{
		baseURL:    elevenLabsBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ElevenLabsTTS synthesizes speech with the ElevenLabs REST API.
type ElevenLabsTTS struct {
	apiKey string
	cfg    vendorConfig
}

func NewElevenLabsTTS(apiKey string, opts ...Option) *ElevenLabsTTS {
	return &ElevenLabsTTS{
		apiKey: apiKey,
		cfg:    newVendorConfig(60*time.Second, opts),
	}
}

type ttsRequest struct {
	Text          string `json:"text"`
	ModelID       string `json:"model_id"`
	VoiceSettings struct {
		Stability       float64 `json:"stability"`
		SimilarityBoost float64 `json:"similarity_boost"`
	} `json:"voice_settings"`
}

// Synthesize returns MP3 audio for text in the given voice.
func (c *ElevenLabsTTS) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}

	reqBody := ttsRequest{
		Text:    text,
		ModelID: ttsModelID,
	}
	reqBody.VoiceSettings.Stability = 0.5
	reqBody.VoiceSettings.SimilarityBoost = 0.75

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.cfg.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.cfg.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("TTS API error: %s - %s", resp.Status, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.New("TTS API returned empty audio")
	}
	return audio, nil
}
