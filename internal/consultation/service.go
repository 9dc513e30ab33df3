package consultation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"medcomm-trainer/internal/agent"
	"medcomm-trainer/internal/apperr"
	"medcomm-trainer/internal/log"
	"medcomm-trainer/internal/scenario"
)

// ScenarioSource resolves a scenario for a language.
type ScenarioSource interface {
	Get(ctx context.Context, id, lang string) (*scenario.Scenario, error)
}

// Synthesizer turns text into speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Transcriber turns speech audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileName, contentType string) (string, error)
}

// Deps are the collaborators of a Service. Synthesizer, Transcriber, Cache
// and Policies are optional.
type Deps struct {
	Scenarios      ScenarioSource
	Generator      Generator
	Synthesizer    Synthesizer
	Transcriber    Transcriber
	Cache          SummaryCache
	Policies       agent.Policies
	DefaultVoiceID string
	Logger         *slog.Logger
}

type Service struct {
	scenarios    ScenarioSource
	gen          Generator
	tts          Synthesizer
	stt          Transcriber
	engine       *StateEngine
	condenser    *Condenser
	policies     agent.Policies
	defaultVoice string
	logger       *slog.Logger
}

func NewService(d Deps) (*Service, error) {
	if d.Scenarios == nil {
		return nil, errors.New("consultation: scenario source is required")
	}
	if d.Generator == nil {
		return nil, errors.New("consultation: generator is required")
	}
	logger := log.Or(d.Logger)
	voice := d.DefaultVoiceID
	if voice == "" {
		voice = agent.DefaultVoiceID
	}
	return &Service{
		scenarios:    d.Scenarios,
		gen:          d.Generator,
		tts:          d.Synthesizer,
		stt:          d.Transcriber,
		engine:       NewStateEngine(d.Generator, d.Policies, logger),
		condenser:    NewCondenser(d.Generator, d.Cache, d.Policies, logger),
		policies:     d.Policies,
		defaultVoice: voice,
		logger:       logger,
	}, nil
}

// TakeTurn produces the patient's reply to the doctor's latest message
// together with the patient's next emotional state.
func (s *Service) TakeTurn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, apperr.BadRequest("message must not be empty")
	}

	sc, err := s.scenarios.Get(ctx, in.ScenarioID, scenario.NormalizeLanguage(in.Language))
	if err != nil {
		if errors.Is(err, scenario.ErrNotFound) {
			return nil, apperr.NotFound("scenario not found")
		}
		return nil, apperr.Persistence("load scenario", err)
	}
	if sc.PersonaPrompt == "" {
		return nil, apperr.NotFound("persona not found for scenario")
	}

	initial, err := ParseEmotionalState(sc.InitialEmotionalState, StateCalm)
	if err != nil {
		initial = StateCalm
	}
	current, err := ParseEmotionalState(in.CurrentState, initial)
	if err != nil {
		return nil, apperr.BadRequest("current_emotional_state must be one of Calm, Cooperative, Resistant, Anxious, Agitated")
	}
	if sc.MessageLimit > 0 && len(in.History) >= sc.MessageLimit {
		return nil, apperr.BadRequest("message limit reached for this scenario")
	}

	next, err := s.engine.Next(ctx, current, in.Message)
	if err != nil {
		return nil, apperr.Upstream("emotional state classification failed", err)
	}
	block, err := s.condenser.Build(ctx, in.History)
	if err != nil {
		return nil, apperr.Upstream("conversation summary failed", err)
	}

	messages := append(block.Messages, agent.Message{Role: agent.RoleUser, Content: in.Message})
	reply, err := s.gen.Generate(ctx, agent.Request{
		Instructions: ComposePersona(sc.PersonaPrompt, next),
		Messages:     messages,
	})
	if err != nil {
		if err := s.policies.Check(s.logger, agent.CallGenerateReply, err); err != nil {
			return nil, apperr.Upstream("reply generation failed", err)
		}
		reply = ""
	}
	reply = strings.TrimSpace(reply)

	res := &TurnResult{Text: reply, State: next}
	if s.tts != nil && reply != "" {
		audio, err := s.tts.Synthesize(ctx, reply, s.voiceFor(sc))
		switch {
		case err != nil:
			if err := s.policies.Check(s.logger, agent.CallSynthesize, err); err != nil {
				return nil, apperr.Upstream("speech synthesis failed", err)
			}
		case len(audio) > 0:
			res.Audio = audio
		}
	}

	s.logger.Debug("turn complete",
		"scenario", sc.ID,
		"from", string(current),
		"to", string(next),
		"summarized", block.Summarized,
		"audio", res.Audio != nil,
	)
	return res, nil
}

func (s *Service) voiceFor(sc *scenario.Scenario) string {
	if sc.VoiceID != "" {
		return sc.VoiceID
	}
	return s.defaultVoice
}

var errNoAudio = errors.New("speech synthesis returned no audio")

// SynthesizeSpeech renders text with voiceID, or the default voice. A
// fail-soft synthesis failure yields nil audio and no error.
func (s *Service) SynthesizeSpeech(ctx context.Context, text, voiceID string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.BadRequest("text must not be empty")
	}
	if s.tts == nil {
		return nil, apperr.Upstream("speech synthesis is not configured", agent.ErrNoAPIKey)
	}
	if voiceID == "" {
		voiceID = s.defaultVoice
	}
	audio, err := s.tts.Synthesize(ctx, text, voiceID)
	if err == nil && len(audio) == 0 {
		err = errNoAudio
	}
	if err != nil {
		if err := s.policies.Check(s.logger, agent.CallSynthesize, err); err != nil {
			return nil, apperr.Upstream("speech synthesis failed", err)
		}
		return nil, nil
	}
	return audio, nil
}

// TranscribeAudio converts an uploaded recording into text.
func (s *Service) TranscribeAudio(ctx context.Context, audio []byte, fileName, contentType string) (string, error) {
	if !strings.HasPrefix(contentType, "audio/") {
		return "", apperr.BadRequest("file must be an audio file")
	}
	if len(audio) == 0 {
		return "", apperr.BadRequest("audio file is empty")
	}
	if s.stt == nil {
		return "", apperr.Upstream("transcription is not configured", agent.ErrNoAPIKey)
	}
	text, err := s.stt.Transcribe(ctx, audio, fileName, contentType)
	if err != nil {
		if err := s.policies.Check(s.logger, agent.CallTranscribe, err); err != nil {
			return "", apperr.Upstream("transcription failed", err)
		}
		return "", nil
	}
	return text, nil
}
