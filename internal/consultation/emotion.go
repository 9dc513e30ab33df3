package consultation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"medcomm-trainer/internal/agent"
	"medcomm-trainer/internal/log"
)

// Generator produces one model reply.
type Generator interface {
	Generate(ctx context.Context, req agent.Request) (string, error)
}

var guidance = map[EmotionalState]string{
	StateCalm:        "You are calm and composed. Speak evenly, listen, and answer questions plainly.",
	StateCooperative: "You are open and cooperative. You accept explanations readily and help the doctor understand your situation.",
	StateResistant:   "You are skeptical and push back. Question the doctor's reasoning and do not agree easily.",
	StateAnxious:     "You are worried and uneasy. Ask anxious follow-up questions and look for reassurance.",
	StateAgitated:    "You are upset and irritable. Answer curtly, interrupt, and show frustration openly.",
}

// Guidance returns the behavioural directive for state.
func Guidance(state EmotionalState) string {
	if g, ok := guidance[state]; ok {
		return g
	}
	return guidance[StateCalm]
}

// StateEngine derives the patient's next emotional state.
type StateEngine struct {
	gen      Generator
	policies agent.Policies
	logger   *slog.Logger
}

// NewStateEngine builds a StateEngine. nil policies use the defaults.
func NewStateEngine(gen Generator, policies agent.Policies, logger *slog.Logger) *StateEngine {
	return &StateEngine{gen: gen, policies: policies, logger: log.Or(logger)}
}

// Next classifies the doctor's latest utterance. A label outside the closed
// set keeps current, and so does a failed call when classification is
// fail-soft. Otherwise the call error is returned.
func (e *StateEngine) Next(ctx context.Context, current EmotionalState, utterance string) (EmotionalState, error) {
	reply, err := e.gen.Generate(ctx, agent.Request{
		Instructions:    classifyInstructions(),
		Messages:        []agent.Message{{Role: agent.RoleUser, Content: classifyPrompt(current, utterance)}},
		MaxOutputTokens: 16,
	})
	if err != nil {
		return current, e.policies.Check(e.logger, agent.CallClassifyState, err)
	}
	next, ok := canonical(strings.TrimSpace(reply))
	if !ok {
		e.logger.Warn("unrecognised emotional state", "reply", reply, "kept", string(current))
		return current, nil
	}
	return next, nil
}

func classifyInstructions() string {
	labels := make([]string, len(States))
	for i, st := range States {
		labels[i] = string(st)
	}
	return "You track the emotional state of a patient talking to a doctor. " +
		"Answer with exactly one word from this list and nothing else: " +
		strings.Join(labels, ", ") + "."
}

func classifyPrompt(current EmotionalState, utterance string) string {
	return fmt.Sprintf("The patient currently feels %s.\nThe doctor just said: %q\nHow does the patient feel now?", current, utterance)
}
