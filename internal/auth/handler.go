package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"medcomm-trainer/internal/apperr"
	"medcomm-trainer/internal/httpx"
)

// Provider registers and signs in users.
type Provider interface {
	SignUp(ctx context.Context, email, password, username string) (json.RawMessage, error)
	Login(ctx context.Context, email, password string) (json.RawMessage, error)
}

type Handler struct {
	provider Provider
}

func NewHandler(p Provider) *Handler {
	return &Handler{provider: p}
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		apperr.Write(w, r, apperr.BadRequest("email and password are required"))
		return
	}

	user, err := h.provider.SignUp(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		apperr.Write(w, r, providerErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]json.RawMessage{"user": user})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		apperr.Write(w, r, apperr.BadRequest("email and password are required"))
		return
	}

	session, err := h.provider.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		apperr.Write(w, r, providerErr(err))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]json.RawMessage{"session": session})
}

func providerErr(err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return apperr.BadRequest(perr.Message)
	}
	return apperr.Upstream("identity provider unavailable", err)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/auth/signup", h.SignUp)
	r.Post("/auth/login", h.Login)
}
