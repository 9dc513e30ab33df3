// Package coach layers narrative feedback on top of evaluations: written
// feedback for a session, a free-form coaching chat and in-session hints.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"medcomm-trainer/internal/agent"
	"medcomm-trainer/internal/apperr"
	"medcomm-trainer/internal/evaluation"
	"medcomm-trainer/internal/log"
	"medcomm-trainer/internal/scenario"
)

// maxChatHistory caps the coaching chat turns sent to the model.
const maxChatHistory = 20

type Generator interface {
	Generate(ctx context.Context, req agent.Request) (string, error)
}

// Evaluations loads one of a user's evaluations.
type Evaluations interface {
	Get(ctx context.Context, id int64, userID uuid.UUID) (*evaluation.Record, error)
}

type ScenarioSource interface {
	Get(ctx context.Context, id, lang string) (*scenario.Scenario, error)
}

type FeedbackStore interface {
	SaveFeedback(ctx context.Context, evaluationID int64, text string) error
}

type Deps struct {
	Generator   Generator
	Evaluations Evaluations
	Scenarios   ScenarioSource
	Feedback    FeedbackStore
	Policies    agent.Policies
	Logger      *slog.Logger
}

type Service struct {
	gen       Generator
	evals     Evaluations
	scenarios ScenarioSource
	feedback  FeedbackStore
	policies  agent.Policies
	logger    *slog.Logger
}

func NewService(d Deps) (*Service, error) {
	if d.Generator == nil || d.Evaluations == nil || d.Scenarios == nil || d.Feedback == nil {
		return nil, errors.New("coach: generator, evaluations, scenarios and feedback store are required")
	}
	return &Service{
		gen:       d.Generator,
		evals:     d.Evaluations,
		scenarios: d.Scenarios,
		feedback:  d.Feedback,
		policies:  d.Policies,
		logger:    log.Or(d.Logger),
	}, nil
}

const coachPersona = "You are an experienced medical communication coach. " +
	"You help doctors improve how they talk with patients: empathy, information gathering, " +
	"clear explanations and handling difficult conversations. Be specific and practical."

// GenerateFeedback writes Markdown feedback for one of the caller's
// evaluations and stores it.
func (s *Service) GenerateFeedback(ctx context.Context, userID uuid.UUID, evaluationID int64) (string, error) {
	rec, err := s.evals.Get(ctx, evaluationID, userID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n\nScores:\n", rec.ScenarioID)
	for _, sc := range rec.Scores {
		fmt.Fprintf(&b, "- %s: %d/5. %s\n", sc.Skill, sc.Score, sc.Justification)
	}
	b.WriteString("\nTranscript:\n")
	b.WriteString(rec.Transcript)

	text, err := s.gen.Generate(ctx, agent.Request{
		Instructions: coachPersona + "\n\nWrite feedback in Markdown on the session below. " +
			"Start with a short overall impression, then cover strengths, areas to improve with concrete " +
			"alternative phrasings quoted from the transcript, and end with two or three practice goals.",
		Messages: []agent.Message{{Role: agent.RoleUser, Content: b.String()}},
	})
	if err != nil {
		if err := s.policies.Check(s.logger, agent.CallCoach, err); err != nil {
			return "", apperr.Upstream("feedback generation failed", err)
		}
		return "", nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Upstream("feedback generation returned no text", nil)
	}

	if err := s.policies.Check(s.logger, agent.CallPersist, s.feedback.SaveFeedback(ctx, rec.ID, text)); err != nil {
		return "", apperr.Persistence("save feedback", err)
	}
	return text, nil
}

// Chat answers a coaching question. history alternates doctor and coach,
// doctor first.
func (s *Service) Chat(ctx context.Context, question string, history []string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", apperr.BadRequest("question must not be empty")
	}
	// Drop an even number of turns so the kept slice still opens on a
	// doctor turn.
	if len(history) > maxChatHistory {
		drop := len(history) - maxChatHistory
		if drop%2 == 1 {
			drop++
		}
		history = history[drop:]
	}

	msgs := make([]agent.Message, 0, len(history)+1)
	for i, turn := range history {
		role := agent.RoleUser
		if i%2 == 1 {
			role = agent.RoleAssistant
		}
		msgs = append(msgs, agent.Message{Role: role, Content: turn})
	}
	msgs = append(msgs, agent.Message{Role: agent.RoleUser, Content: question})

	reply, err := s.gen.Generate(ctx, agent.Request{Instructions: coachPersona, Messages: msgs})
	if err := s.policies.Check(s.logger, agent.CallCoach, err); err != nil {
		return "", apperr.Upstream("coach reply failed", err)
	}
	return strings.TrimSpace(reply), nil
}

// Hint suggests the doctor's next move in an ongoing scenario.
func (s *Service) Hint(ctx context.Context, scenarioID string, history []string) (string, error) {
	sc, err := s.scenarios.Get(ctx, scenarioID, scenario.DefaultLanguage)
	if err != nil {
		if errors.Is(err, scenario.ErrNotFound) {
			return "", apperr.NotFound("scenario not found")
		}
		return "", apperr.Persistence("load scenario", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\nGoal for the doctor: %s\n\nConversation so far:\n", sc.Title, sc.Goal)
	if len(history) == 0 {
		b.WriteString("(not started)\n")
	}
	for i, turn := range history {
		speaker := "Doctor"
		if i%2 == 1 {
			speaker = "Patient"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, turn)
	}

	hint, err := s.gen.Generate(ctx, agent.Request{
		Instructions: coachPersona + "\n\nGive the doctor one short hint, at most two sentences, " +
			"for what to say or do next. Do not write the full reply for them.",
		Messages:        []agent.Message{{Role: agent.RoleUser, Content: b.String()}},
		MaxOutputTokens: 120,
	})
	if err := s.policies.Check(s.logger, agent.CallCoach, err); err != nil {
		return "", apperr.Upstream("hint generation failed", err)
	}
	return strings.TrimSpace(hint), nil
}
