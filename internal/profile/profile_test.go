package profile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"medcomm-trainer/internal/apperr"
	"medcomm-trainer/internal/auth"
)

type memStore struct {
	settings map[uuid.UUID]Settings
	err      error
}

func (m *memStore) Get(_ context.Context, userID uuid.UUID) (*Settings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.settings[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *memStore) Save(_ context.Context, userID uuid.UUID, s Settings) error {
	if m.err != nil {
		return m.err
	}
	m.settings[userID] = s
	return nil
}

func TestSettings_DefaultsToEnglish(t *testing.T) {
	svc := NewService(&memStore{settings: map[uuid.UUID]Settings{}}, nil)
	st, err := svc.Settings(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Equal(t, "en", st.PreferredLanguage)
}

func TestSetLanguage(t *testing.T) {
	store := &memStore{settings: map[uuid.UUID]Settings{}}
	svc := NewService(store, nil)
	user := uuid.New()

	st, err := svc.SetLanguage(context.Background(), user, " CS ")
	require.NoError(t, err)
	require.Equal(t, "cs", st.PreferredLanguage)
	require.Equal(t, "cs", store.settings[user].PreferredLanguage)

	_, err = svc.SetLanguage(context.Background(), user, "de")
	require.True(t, apperr.Is(err, apperr.KindBadRequest))
	require.Equal(t, "cs", store.settings[user].PreferredLanguage)

	_, err = svc.SetLanguage(context.Background(), uuid.Nil, "sk")
	require.True(t, apperr.Is(err, apperr.KindUnauthorized))

	store.err = errors.New("db down")
	_, err = svc.SetLanguage(context.Background(), user, "sk")
	require.True(t, apperr.Is(err, apperr.KindPersistence))
}

type stubValidator struct{ id uuid.UUID }

func (s stubValidator) ValidateToken(context.Context, string) (uuid.UUID, error) {
	return s.id, nil
}

func TestHandler(t *testing.T) {
	user := uuid.New()
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(NewService(&memStore{settings: map[uuid.UUID]Settings{}}, nil)), auth.RequireUser(stubValidator{id: user}, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/me/settings", strings.NewReader(`{"preferred_language":"sk"}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/me/settings", strings.NewReader(`{"preferred_language":"sk"}`))
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"preferred_language":"sk"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me/settings", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"preferred_language":"sk"}`, rec.Body.String())
}
