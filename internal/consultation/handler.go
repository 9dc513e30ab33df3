package consultation

import (
	"bytes"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medcomm-trainer/internal/apperr"
	"medcomm-trainer/internal/httpx"
)

// MaxAudioBytes bounds uploads to the transcription endpoint.
const MaxAudioBytes = 10 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type ChatRequest struct {
	ScenarioID            string   `json:"scenario_id"`
	History               []string `json:"history"`
	Message               string   `json:"message"`
	CurrentEmotionalState string   `json:"current_emotional_state"`
	Language              string   `json:"language"`
}

type ChatResponse struct {
	TextResponse        string  `json:"text_response"`
	AudioResponseBase64 *string `json:"audio_response_base64"`
	NewEmotionalState   string  `json:"new_emotional_state"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	res, err := h.svc.TakeTurn(r.Context(), TurnInput{
		ScenarioID:   req.ScenarioID,
		Language:     req.Language,
		History:      req.History,
		Message:      req.Message,
		CurrentState: req.CurrentEmotionalState,
	})
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	resp := ChatResponse{TextResponse: res.Text, NewEmotionalState: string(res.State)}
	if len(res.Audio) > 0 {
		encoded := base64.StdEncoding.EncodeToString(res.Audio)
		resp.AudioResponseBase64 = &encoded
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

type TTSRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id"`
}

func (h *Handler) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	var req TTSRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	audio, err := h.svc.SynthesizeSpeech(r.Context(), req.Text, req.VoiceID)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	var encoded *string
	if len(audio) > 0 {
		s := base64.StdEncoding.EncodeToString(audio)
		encoded = &s
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]*string{"audio_response_base64": encoded})
}

func (h *Handler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxAudioBytes+(1<<20))
	if err := r.ParseMultipartForm(MaxAudioBytes); err != nil {
		apperr.Write(w, r, apperr.New(apperr.KindBadRequest, "invalid multipart upload", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apperr.Write(w, r, apperr.BadRequest("missing audio file"))
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(file, MaxAudioBytes+1)); err != nil {
		apperr.Write(w, r, apperr.New(apperr.KindBadRequest, "failed to read audio file", err))
		return
	}
	if buf.Len() > MaxAudioBytes {
		apperr.Write(w, r, apperr.BadRequest("audio file exceeds 10 MB"))
		return
	}

	text, err := h.svc.TranscribeAudio(r.Context(), buf.Bytes(), header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"transcript": text})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/chat", h.Chat)
	r.Post("/text-to-speech", h.TextToSpeech)
	r.Post("/transcribe", h.Transcribe)
}
