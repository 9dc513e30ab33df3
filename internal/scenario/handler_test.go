package scenario

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	scenarios map[string]*Scenario
	err       error
	lastLang  string
}

func (s *stubRepo) List(_ context.Context, lang string) ([]Summary, error) {
	s.lastLang = lang
	if s.err != nil {
		return nil, s.err
	}
	out := []Summary{}
	for _, sc := range s.scenarios {
		out = append(out, Summary{ID: sc.ID, Title: sc.Title, LearningPath: sc.LearningPath, Difficulty: sc.Difficulty})
	}
	return out, nil
}

func (s *stubRepo) Get(_ context.Context, id, lang string) (*Scenario, error) {
	s.lastLang = lang
	if s.err != nil {
		return nil, s.err
	}
	sc, ok := s.scenarios[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sc, nil
}

func newRouter(repo Repository) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(repo))
	return r
}

func elena() *Scenario {
	return &Scenario{
		ID:            "elena-petrova",
		Language:      "en",
		Title:         "Vaccine Hesitancy",
		LearningPath:  "Difficult Conversations",
		Difficulty:    "intermediate",
		MessageLimit:  20,
		Skills:        []string{"Information Gathering"},
		PersonaPrompt: "secret persona",
		VoiceID:       "voice-en",
	}
}

func TestGet_ReturnsDetailWithoutPersona(t *testing.T) {
	repo := &stubRepo{scenarios: map[string]*Scenario{"elena-petrova": elena()}}
	rec := httptest.NewRecorder()
	newRouter(repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scenarios/elena-petrova?lang=cs", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "cs", repo.lastLang)
	require.Contains(t, rec.Body.String(), `"skills":["Information Gathering"]`)
	require.NotContains(t, rec.Body.String(), "secret persona")
	require.NotContains(t, rec.Body.String(), "voice-en")
}

func TestGet_IsIdempotent(t *testing.T) {
	router := newRouter(&stubRepo{scenarios: map[string]*Scenario{"elena-petrova": elena()}})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/scenarios/elena-petrova", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/scenarios/elena-petrova", nil))

	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, first.Body.String(), second.Body.String())
}

func TestGet_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&stubRepo{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scenarios/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestList(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&stubRepo{scenarios: map[string]*Scenario{"elena-petrova": elena()}}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scenarios", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"id":"elena-petrova","title":"Vaccine Hesitancy","learning_path":"Difficult Conversations","difficulty":"intermediate"}]`, rec.Body.String())
}

func TestList_StoreFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(&stubRepo{err: errors.New("db down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scenarios", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNormalizeLanguage(t *testing.T) {
	require.Equal(t, "cs", NormalizeLanguage(" CS "))
	require.Equal(t, "sk", NormalizeLanguage("sk"))
	require.Equal(t, "en", NormalizeLanguage("de"))
	require.Equal(t, "en", NormalizeLanguage(""))
}

func TestPickVoice(t *testing.T) {
	require.Equal(t, "cs-voice", pickVoice("cs", "en-voice", "cs-voice", ""))
	require.Equal(t, "en-voice", pickVoice("sk", "en-voice", "cs-voice", ""))
	require.Equal(t, "en-voice", pickVoice("en", "en-voice", "cs-voice", "sk-voice"))
	require.Equal(t, "", pickVoice("en", "", "", ""))
}
