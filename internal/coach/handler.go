package coach

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medcomm-trainer/internal/apperr"
	"medcomm-trainer/internal/auth"
	"medcomm-trainer/internal/httpx"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type FeedbackRequest struct {
	EvaluationID int64 `json:"evaluation_id"`
}

type ChatRequest struct {
	Question    string   `json:"question"`
	ChatHistory []string `json:"chat_history"`
}

type HintRequest struct {
	ScenarioID string   `json:"scenario_id"`
	History    []string `json:"history"`
}

func (h *Handler) GenerateFeedback(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		apperr.Write(w, r, apperr.Unauthorized("authentication required"))
		return
	}
	var req FeedbackRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	text, err := h.svc.GenerateFeedback(r.Context(), userID, req.EvaluationID)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"feedback_text": text})
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	reply, err := h.svc.Chat(r.Context(), req.Question, req.ChatHistory)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"response": reply})
}

func (h *Handler) Hint(w http.ResponseWriter, r *http.Request) {
	var req HintRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	hint, err := h.svc.Hint(r.Context(), req.ScenarioID, req.History)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"hint": hint})
}

// RegisterRoutes mounts the coach endpoints. Only feedback generation needs
// an authenticated caller.
func RegisterRoutes(r chi.Router, h *Handler, requireUser func(http.Handler) http.Handler) {
	r.With(requireUser).Post("/coach/generate-feedback", h.GenerateFeedback)
	r.Post("/coach/chat", h.Chat)
	r.Post("/coach/hint", h.Hint)
}
