package consultation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"medcomm-trainer/internal/agent"
	"medcomm-trainer/internal/log"
)

// SummaryThreshold is the history length above which turns are summarized.
const SummaryThreshold = 8

const summaryPrefix = "Summary of the conversation so far:"

var errEmptySummary = errors.New("empty summary")

// SummaryCache stores summaries keyed by a digest of the history.
type SummaryCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Condenser decides what conversation context reaches the reply generator.
type Condenser struct {
	gen      Generator
	cache    SummaryCache
	policies agent.Policies
	logger   *slog.Logger
}

// NewCondenser builds a Condenser. cache and policies may be nil.
func NewCondenser(gen Generator, cache SummaryCache, policies agent.Policies, logger *slog.Logger) *Condenser {
	return &Condenser{gen: gen, cache: cache, policies: policies, logger: log.Or(logger)}
}

// Build returns the raw turns for short histories and a single summary
// message for long ones. A failed summary falls back to the raw turns
// while summarizing is fail-soft.
func (c *Condenser) Build(ctx context.Context, history []string) (ContextBlock, error) {
	raw := ContextBlock{Messages: RawTurns(history)}
	if len(history) <= SummaryThreshold {
		return raw, nil
	}

	key := historyKey(history)
	summary, ok, err := c.cached(ctx, key)
	if err != nil {
		return ContextBlock{}, err
	}
	if ok {
		return summaryBlock(summary), nil
	}

	summary, err = c.gen.Generate(ctx, agent.Request{
		Instructions: "Summarize this conversation between a doctor and a patient as short bullet points. " +
			"Cover the key points raised and how the patient's emotions progressed.",
		Messages: []agent.Message{{Role: agent.RoleUser, Content: transcript(history)}},
	})
	if err == nil && strings.TrimSpace(summary) == "" {
		err = errEmptySummary
	}
	if err != nil {
		if err := c.policies.Check(c.logger, agent.CallSummarize, err); err != nil {
			return ContextBlock{}, err
		}
		return raw, nil
	}

	summary = strings.TrimSpace(summary)
	if c.cache != nil {
		if err := c.policies.Check(c.logger, agent.CallCache, c.cache.Set(ctx, key, summary)); err != nil {
			return ContextBlock{}, err
		}
	}
	return summaryBlock(summary), nil
}

// cached treats a fail-soft cache error as a miss.
func (c *Condenser) cached(ctx context.Context, key string) (string, bool, error) {
	if c.cache == nil {
		return "", false, nil
	}
	summary, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		return "", false, c.policies.Check(c.logger, agent.CallCache, err)
	}
	return summary, ok, nil
}

func summaryBlock(summary string) ContextBlock {
	return ContextBlock{
		Messages:   []agent.Message{{Role: agent.RoleSystem, Content: summaryPrefix + "\n" + summary}},
		Summarized: true,
	}
}

// RawTurns maps history onto alternating roles, doctor first.
func RawTurns(history []string) []agent.Message {
	out := make([]agent.Message, len(history))
	for i, turn := range history {
		role := agent.RoleUser
		if i%2 == 1 {
			role = agent.RoleAssistant
		}
		out[i] = agent.Message{Role: role, Content: turn}
	}
	return out
}

func transcript(history []string) string {
	var b strings.Builder
	for i, turn := range history {
		if i%2 == 0 {
			b.WriteString("Doctor: ")
		} else {
			b.WriteString("Patient: ")
		}
		b.WriteString(turn)
		b.WriteByte('\n')
	}
	return b.String()
}

func historyKey(history []string) string {
	h := sha256.New()
	for _, turn := range history {
		h.Write([]byte(turn))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
