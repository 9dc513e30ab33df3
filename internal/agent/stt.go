package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

const sttModelID = "scribe_v1"

// ElevenLabsSTT transcribes audio with the ElevenLabs speech-to-text API.
type ElevenLabsSTT struct {
	apiKey string
	cfg    vendorConfig
}

func NewElevenLabsSTT(apiKey string, opts ...Option) *ElevenLabsSTT {
	return &ElevenLabsSTT{
		apiKey: apiKey,
		cfg:    newVendorConfig(60*time.Second, opts),
	}
}

type sttResponse struct {
	Text         string `json:"text"`
	LanguageCode string `json:"language_code"`
}

func (c *ElevenLabsSTT) Transcribe(ctx context.Context, audioData []byte, fileName, contentType string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}
	if fileName == "" {
		fileName = "audio.webm"
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("model_id", sttModelID); err != nil {
		return "", err
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	hdr.Set("Content-Type", contentType)
	part, err := writer.CreatePart(hdr)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audioData); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.baseURL+"/speech-to-text", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.cfg.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("STT API error: %s - %s", resp.Status, string(respBody))
	}

	var result sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Text, nil
}
