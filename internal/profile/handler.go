package profile

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

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		apperr.Write(w, r, apperr.Unauthorized("authentication required"))
		return
	}
	st, err := h.svc.Settings(r.Context(), userID)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		apperr.Write(w, r, apperr.Unauthorized("authentication required"))
		return
	}
	var req Settings
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}
	st, err := h.svc.SetLanguage(r.Context(), userID, req.PreferredLanguage)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, st)
}

func RegisterRoutes(r chi.Router, h *Handler, requireUser func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/me/settings", h.Get)
		r.Post("/me/settings", h.Update)
	})
}
