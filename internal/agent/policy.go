package agent

import (
	"fmt"
	"log/slog"
	"maps"
)

// Call names an outbound call made while serving a request.
type Call string

const (
	CallClassifyState Call = "classify_state"
	CallSummarize     Call = "summarize"
	CallSynthesize    Call = "synthesize"
	CallCache         Call = "cache"
	CallNotify        Call = "notify"
	CallGenerateReply Call = "generate_reply"
	CallScore         Call = "score"
	CallCoach         Call = "coach"
	CallTranscribe    Call = "transcribe"
	CallPersist       Call = "persist"
)

type Policy int

const (
	// FailHard calls abort the request and surface the error.
	FailHard Policy = iota
	// FailSoft calls degrade to a fallback and the request continues.
	FailSoft
)

func (p Policy) String() string {
	if p == FailSoft {
		return "fail-soft"
	}
	return "fail-hard"
}

// Policies decides how each call treats errors. Unlisted calls are
// fail-hard. A nil Policies behaves like DefaultPolicies.
type Policies map[Call]Policy

var defaultPolicies = Policies{
	CallClassifyState: FailSoft, // keep previous emotional state
	CallSummarize:     FailSoft, // use raw history
	CallSynthesize:    FailSoft, // omit audio
	CallCache:         FailSoft, // behave as a cache miss
	CallNotify:        FailSoft, // report not delivered
	CallGenerateReply: FailHard,
	CallScore:         FailHard,
	CallCoach:         FailHard,
	CallTranscribe:    FailHard,
	CallPersist:       FailHard,
}

// DefaultPolicies returns a fresh copy of the production table.
func DefaultPolicies() Policies {
	return maps.Clone(defaultPolicies)
}

func (p Policies) For(call Call) Policy {
	if p == nil {
		p = defaultPolicies
	}
	if pol, ok := p[call]; ok {
		return pol
	}
	return FailHard
}

// Degrade reports whether the caller may swallow err from call and continue
// with its fallback. Swallowed errors are logged at warn.
func (p Policies) Degrade(logger *slog.Logger, call Call, err error) bool {
	if p.For(call) != FailSoft {
		return false
	}
	if logger != nil {
		logger.Warn("degraded outbound call", "call", string(call), "err", err)
	}
	return true
}

// Check returns nil when err is nil or call is fail-soft, and err tagged
// with the call name otherwise. Callers take their fallback on nil.
func (p Policies) Check(logger *slog.Logger, call Call, err error) error {
	if err == nil || p.Degrade(logger, call, err) {
		return nil
	}
	return fmt.Errorf("%s: %w", call, err)
}
