// Package profile stores per-user preferences for authenticated callers.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"medcomm-trainer/internal/apperr"
	"medcomm-trainer/internal/log"
	"medcomm-trainer/internal/scenario"
)

var ErrNotFound = errors.New("profile: settings not found")

type Settings struct {
	PreferredLanguage string `json:"preferred_language"`
}

type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (*Settings, error)
	Save(ctx context.Context, userID uuid.UUID, s Settings) error
}

type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: log.Or(logger)}
}

// Settings returns the caller's settings, or the defaults when none were
// saved.
func (s *Service) Settings(ctx context.Context, userID uuid.UUID) (*Settings, error) {
	if userID == uuid.Nil {
		return nil, apperr.Unauthorized("caller identity required")
	}
	st, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return &Settings{PreferredLanguage: scenario.DefaultLanguage}, nil
	}
	if err != nil {
		return nil, apperr.Persistence("load settings", err)
	}
	return st, nil
}

// SetLanguage records the caller's preferred scenario language.
func (s *Service) SetLanguage(ctx context.Context, userID uuid.UUID, lang string) (*Settings, error) {
	if userID == uuid.Nil {
		return nil, apperr.Unauthorized("caller identity required")
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !scenario.IsSupportedLanguage(lang) {
		return nil, apperr.BadRequest("preferred_language must be one of en, cs, sk")
	}
	st := Settings{PreferredLanguage: lang}
	if err := s.store.Save(ctx, userID, st); err != nil {
		return nil, apperr.Persistence("save settings", err)
	}
	s.logger.Debug("language preference saved", "user", userID, "language", lang)
	return &st, nil
}
