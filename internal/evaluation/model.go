package evaluation

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("evaluation not found")

// MinScore and MaxScore bound every persisted skill score.
const (
	MinScore = 1
	MaxScore = 5
)

// SkillScore is the model's judgement of one skill.
type SkillScore struct {
	Score         int    `json:"score" jsonschema:"required,description=Integer score from 1 to 5"`
	Justification string `json:"justification" jsonschema:"required"`
}

// Verdict maps skill names to their scores.
type Verdict map[string]SkillScore

// Score is one persisted row of an evaluation.
type Score struct {
	Skill         string `json:"skill_name"`
	Score         int    `json:"score"`
	Justification string `json:"justification"`
}

// Record is a stored evaluation with its scores.
type Record struct {
	ID         int64     `json:"id"`
	UserID     uuid.UUID `json:"-"`
	ScenarioID string    `json:"scenario_id"`
	Transcript string    `json:"full_transcript"`
	CreatedAt  time.Time `json:"created_at"`
	Scores     []Score   `json:"scores"`
}

type EvaluateInput struct {
	ScenarioID string
	Transcript string
	UserID     uuid.UUID
}

type Result struct {
	EvaluationID int64
	Verdict      Verdict
}
