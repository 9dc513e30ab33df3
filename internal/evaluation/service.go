package evaluation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"medcomm-trainer/internal/agent"
	"medcomm-trainer/internal/apperr"
	"medcomm-trainer/internal/log"
	"medcomm-trainer/internal/rubric"
	"medcomm-trainer/internal/scenario"
)

type Generator interface {
	Generate(ctx context.Context, req agent.Request) (string, error)
}

type ScenarioSource interface {
	Get(ctx context.Context, id, lang string) (*scenario.Scenario, error)
}

// Store persists evaluations. Create writes the record and its scores
// atomically.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Record, error)
	GetForUser(ctx context.Context, id int64, userID uuid.UUID) (*Record, error)
}

// Notifier delivers a finished evaluation to an instructor.
type Notifier interface {
	NotifyEvaluation(ctx context.Context, rec Record) error
}

type Deps struct {
	Scenarios ScenarioSource
	Generator Generator
	Store     Store
	Rubric    *rubric.Store
	Notifier  Notifier
	Policies  agent.Policies
	Model     string
	Logger    *slog.Logger
}

type Service struct {
	scenarios ScenarioSource
	gen       Generator
	store     Store
	rubric    *rubric.Store
	notifier  Notifier
	policies  agent.Policies
	model     string
	logger    *slog.Logger
}

func NewService(d Deps) (*Service, error) {
	switch {
	case d.Scenarios == nil:
		return nil, errors.New("evaluation: scenario source is required")
	case d.Generator == nil:
		return nil, errors.New("evaluation: generator is required")
	case d.Store == nil:
		return nil, errors.New("evaluation: store is required")
	case d.Rubric == nil:
		return nil, errors.New("evaluation: rubric is required")
	}
	return &Service{
		scenarios: d.Scenarios,
		gen:       d.Generator,
		store:     d.Store,
		rubric:    d.Rubric,
		notifier:  d.Notifier,
		policies:  d.Policies,
		model:     d.Model,
		logger:    log.Or(d.Logger),
	}, nil
}

// Evaluate scores a transcript against the scenario's skills and stores
// the result for the caller. A fail-soft scoring call yields an empty
// verdict, and a fail-soft persist returns the verdict without an id.
func (s *Service) Evaluate(ctx context.Context, in EvaluateInput) (*Result, error) {
	if in.UserID == uuid.Nil {
		return nil, apperr.Unauthorized("caller identity required")
	}
	if strings.TrimSpace(in.Transcript) == "" {
		return nil, apperr.BadRequest("transcript must not be empty")
	}

	sc, err := s.scenarios.Get(ctx, in.ScenarioID, scenario.DefaultLanguage)
	if err != nil {
		if errors.Is(err, scenario.ErrNotFound) {
			return nil, apperr.NotFound("scenario not found")
		}
		return nil, apperr.Persistence("load scenario", err)
	}
	if len(sc.Skills) == 0 {
		return nil, apperr.BadRequest("scenario has no skills configured")
	}
	skills, missing := s.rubric.Select(sc.Skills)
	if len(missing) > 0 {
		s.logger.Warn("scenario skills missing from rubric", "scenario", sc.ID, "skills", missing)
	}
	if len(skills) == 0 {
		return nil, apperr.BadRequest("scenario has no skills with a rubric")
	}

	schema, err := verdictSchema(skills)
	if err != nil {
		return nil, apperr.Upstream("build verdict schema", err)
	}
	reply, err := s.gen.Generate(ctx, agent.Request{
		Model:        s.model,
		Instructions: scoringInstructions(skills),
		Messages:     []agent.Message{{Role: agent.RoleUser, Content: in.Transcript}},
		SchemaName:   verdictSchemaName,
		Schema:       schema,
	})
	if err != nil {
		if err := s.policies.Check(s.logger, agent.CallScore, err); err != nil {
			return nil, apperr.Upstream("scoring failed", err)
		}
		return &Result{Verdict: Verdict{}}, nil
	}

	raw, err := ExtractObject(reply)
	if err != nil {
		return nil, apperr.Upstream("unparseable verdict", err)
	}
	names := make([]string, len(skills))
	for i, sk := range skills {
		names[i] = sk.Name
	}
	verdict, skipped := Normalize(raw, names)
	if len(skipped) > 0 {
		s.logger.Warn("verdict entries skipped", "scenario", sc.ID, "keys", skipped)
	}
	if len(verdict) == 0 {
		return nil, apperr.Upstream("verdict contained no valid scores", nil)
	}

	rec := Record{
		UserID:     in.UserID,
		ScenarioID: sc.ID,
		Transcript: in.Transcript,
	}
	for _, name := range names {
		if v, ok := verdict[name]; ok {
			rec.Scores = append(rec.Scores, Score{Skill: name, Score: v.Score, Justification: v.Justification})
		}
	}
	if err := s.store.Create(ctx, &rec); err != nil {
		if err := s.policies.Check(s.logger, agent.CallPersist, err); err != nil {
			return nil, apperr.Persistence("save evaluation", err)
		}
		return &Result{Verdict: verdict}, nil
	}

	if s.notifier != nil {
		if err := s.policies.Check(s.logger, agent.CallNotify, s.notifier.NotifyEvaluation(ctx, rec)); err != nil {
			return nil, apperr.Upstream("report delivery failed", err)
		}
	}

	s.logger.Info("evaluation stored", "id", rec.ID, "scenario", sc.ID, "scores", len(rec.Scores))
	return &Result{EvaluationID: rec.ID, Verdict: verdict}, nil
}

// History returns the caller's evaluations, oldest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]Record, error) {
	if userID == uuid.Nil {
		return nil, apperr.Unauthorized("caller identity required")
	}
	recs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("load history", err)
	}
	return recs, nil
}

// Get returns one of the caller's evaluations.
func (s *Service) Get(ctx context.Context, id int64, userID uuid.UUID) (*Record, error) {
	rec, err := s.store.GetForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.NotFound("evaluation not found")
		}
		return nil, apperr.Persistence("load evaluation", err)
	}
	return rec, nil
}
