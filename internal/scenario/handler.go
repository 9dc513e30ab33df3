package scenario

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medcomm-trainer/internal/apperr"
	"medcomm-trainer/internal/httpx"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List(r.Context(), r.URL.Query().Get("lang"))
	if err != nil {
		apperr.Write(w, r, apperr.Persistence("failed to load scenarios", err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("lang"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			apperr.Write(w, r, apperr.NotFound("scenario not found"))
			return
		}
		apperr.Write(w, r, apperr.Persistence("failed to load scenario", err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, s)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/scenarios", h.List)
	r.Get("/scenarios/{id}", h.Get)
}
