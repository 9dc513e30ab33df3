package consultation

import (
	"errors"
	"strings"

	"medcomm-trainer/internal/agent"
)

// EmotionalState is the patient's mood, carried by the client between turns.
type EmotionalState string

const (
	StateCalm        EmotionalState = "Calm"
	StateCooperative EmotionalState = "Cooperative"
	StateResistant   EmotionalState = "Resistant"
	StateAnxious     EmotionalState = "Anxious"
	StateAgitated    EmotionalState = "Agitated"
)

// States lists every emotional state in a stable order.
var States = []EmotionalState{StateCalm, StateCooperative, StateResistant, StateAnxious, StateAgitated}

var ErrInvalidState = errors.New("invalid emotional state")

// ParseEmotionalState validates a client supplied label. Matching is
// case-insensitive; an empty label yields def.
func ParseEmotionalState(s string, def EmotionalState) (EmotionalState, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	for _, st := range States {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", ErrInvalidState
}

// canonical reports whether s is exactly one of the state labels.
func canonical(s string) (EmotionalState, bool) {
	for _, st := range States {
		if s == string(st) {
			return st, true
		}
	}
	return "", false
}

// ContextBlock is the conversation context handed to the reply generator.
type ContextBlock struct {
	Messages   []agent.Message
	Summarized bool
}

// TurnInput is one doctor utterance plus the state the client holds.
type TurnInput struct {
	ScenarioID   string
	Language     string
	History      []string
	Message      string
	CurrentState string
}

type TurnResult struct {
	Text  string
	Audio []byte
	State EmotionalState
}
