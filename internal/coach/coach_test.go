package coach

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"medcomm-trainer/internal/agent"
	"medcomm-trainer/internal/apperr"
	"medcomm-trainer/internal/auth"
	"medcomm-trainer/internal/evaluation"
	"medcomm-trainer/internal/scenario"
)

type stubGenerator struct {
	reply string
	err   error
	calls []agent.Request
}

func (g *stubGenerator) Generate(_ context.Context, req agent.Request) (string, error) {
	g.calls = append(g.calls, req)
	return g.reply, g.err
}

type stubEvaluations struct {
	owner uuid.UUID
	rec   evaluation.Record
}

func (s stubEvaluations) Get(_ context.Context, id int64, userID uuid.UUID) (*evaluation.Record, error) {
	if id != s.rec.ID || userID != s.owner {
		return nil, apperr.NotFound("evaluation not found")
	}
	rec := s.rec
	return &rec, nil
}

type stubScenarios struct{}

func (stubScenarios) Get(_ context.Context, id, _ string) (*scenario.Scenario, error) {
	if id != "elena-petrova" {
		return nil, scenario.ErrNotFound
	}
	return &scenario.Scenario{ID: id, Title: "Vaccine Hesitancy", Goal: "Address vaccine concerns"}, nil
}

type memFeedback struct {
	saved map[int64]string
	err   error
}

func (m *memFeedback) SaveFeedback(_ context.Context, id int64, text string) error {
	if m.err != nil {
		return m.err
	}
	m.saved[id] = text
	return nil
}

type fixture struct {
	gen      *stubGenerator
	feedback *memFeedback
	owner    uuid.UUID
	svc      *Service
}

func newFixture(t *testing.T, reply string) *fixture {
	t.Helper()
	return newPolicyFixture(t, reply, nil)
}

func newPolicyFixture(t *testing.T, reply string, policies agent.Policies) *fixture {
	t.Helper()
	f := &fixture{
		gen:      &stubGenerator{reply: reply},
		feedback: &memFeedback{saved: map[int64]string{}},
		owner:    uuid.New(),
	}
	svc, err := NewService(Deps{
		Generator: f.gen,
		Evaluations: stubEvaluations{owner: f.owner, rec: evaluation.Record{
			ID:         3,
			ScenarioID: "elena-petrova",
			Transcript: "Doctor: Hello",
			Scores:     []evaluation.Score{{Skill: "Information Gathering", Score: 2, Justification: "Closed questions."}},
		}},
		Scenarios: stubScenarios{},
		Feedback:  f.feedback,
		Policies:  policies,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestGenerateFeedback_StoresText(t *testing.T) {
	f := newFixture(t, "## Overall\nGood start.\n")
	text, err := f.svc.GenerateFeedback(context.Background(), f.owner, 3)
	require.NoError(t, err)
	require.Equal(t, "## Overall\nGood start.", text)
	require.Equal(t, text, f.feedback.saved[3])
	require.Contains(t, f.gen.calls[0].Messages[0].Content, "Information Gathering: 2/5")
}

func TestGenerateFeedback_OtherUsersEvaluation(t *testing.T) {
	f := newFixture(t, "feedback")
	_, err := f.svc.GenerateFeedback(context.Background(), uuid.New(), 3)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
	require.Empty(t, f.gen.calls)
	require.Empty(t, f.feedback.saved)
}

func TestGenerateFeedback_Failures(t *testing.T) {
	f := newFixture(t, "")
	f.gen.err = errors.New("openai down")
	_, err := f.svc.GenerateFeedback(context.Background(), f.owner, 3)
	require.True(t, apperr.Is(err, apperr.KindUpstream))

	f = newFixture(t, "feedback")
	f.feedback.err = errors.New("db down")
	_, err = f.svc.GenerateFeedback(context.Background(), f.owner, 3)
	require.True(t, apperr.Is(err, apperr.KindPersistence))
}

func TestChat_TrimsHistory(t *testing.T) {
	f := newFixture(t, "Try reflective listening.")
	history := make([]string, 25)
	for i := range history {
		history[i] = "turn"
	}

	reply, err := f.svc.Chat(context.Background(), "How do I calm an angry patient?", history)
	require.NoError(t, err)
	require.Equal(t, "Try reflective listening.", reply)

	msgs := f.gen.calls[0].Messages
	require.LessOrEqual(t, len(msgs), maxChatHistory+1)
	require.Equal(t, agent.RoleUser, msgs[0].Role)
	require.Equal(t, "How do I calm an angry patient?", msgs[len(msgs)-1].Content)

	_, err = f.svc.Chat(context.Background(), " ", nil)
	require.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestChat_TrimKeepsRoleParity(t *testing.T) {
	f := newFixture(t, "ok")
	history := make([]string, 23)
	for i := range history {
		speaker := "doctor"
		if i%2 == 1 {
			speaker = "coach"
		}
		history[i] = fmt.Sprintf("%s-%d", speaker, i)
	}

	_, err := f.svc.Chat(context.Background(), "next?", history)
	require.NoError(t, err)

	msgs := f.gen.calls[0].Messages
	require.Len(t, msgs, 20)
	require.Equal(t, agent.Message{Role: agent.RoleUser, Content: "doctor-4"}, msgs[0])
	for _, m := range msgs[:len(msgs)-1] {
		if strings.HasPrefix(m.Content, "doctor-") {
			require.Equal(t, agent.RoleUser, m.Role, m.Content)
		} else {
			require.Equal(t, agent.RoleAssistant, m.Role, m.Content)
		}
	}
	require.Equal(t, agent.Message{Role: agent.RoleUser, Content: "next?"}, msgs[len(msgs)-1])
}

func TestChat_FailSoftCoachReturnsEmptyReply(t *testing.T) {
	policies := agent.DefaultPolicies()
	policies[agent.CallCoach] = agent.FailSoft
	f := newPolicyFixture(t, "", policies)
	f.gen.err = errors.New("openai down")

	reply, err := f.svc.Chat(context.Background(), "Tips?", nil)
	require.NoError(t, err)
	require.Empty(t, reply)

	f = newFixture(t, "")
	f.gen.err = errors.New("openai down")
	_, err = f.svc.Chat(context.Background(), "Tips?", nil)
	require.True(t, apperr.Is(err, apperr.KindUpstream))
}

func TestHint(t *testing.T) {
	f := newFixture(t, "Ask what worries her most.")
	hint, err := f.svc.Hint(context.Background(), "elena-petrova", []string{"Hello", "I don't want the vaccine."})
	require.NoError(t, err)
	require.Equal(t, "Ask what worries her most.", hint)
	require.Contains(t, f.gen.calls[0].Messages[0].Content, "Patient: I don't want the vaccine.")

	_, err = f.svc.Hint(context.Background(), "unknown", nil)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

type stubValidator struct{ id uuid.UUID }

func (s stubValidator) ValidateToken(context.Context, string) (uuid.UUID, error) {
	return s.id, nil
}

func TestHandler(t *testing.T) {
	f := newFixture(t, "Nice work.")
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(f.svc), auth.RequireUser(stubValidator{id: f.owner}, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/coach/generate-feedback", strings.NewReader(`{"evaluation_id":3}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/coach/generate-feedback", strings.NewReader(`{"evaluation_id":3}`))
	req.Header.Set("Authorization", "Bearer tok")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"feedback_text":"Nice work."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/coach/chat", strings.NewReader(`{"question":"Tips?","chat_history":[]}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"response":"Nice work."}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/coach/hint", strings.NewReader(`{"scenario_id":"elena-petrova","history":[]}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"hint":"Nice work."}`, rec.Body.String())
}
