package report

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"medcomm-trainer/internal/evaluation"
)

type sentDoc struct {
	name string
	data []byte
}

type stubTelegram struct {
	messages []string
	docs     []sentDoc
	err      error
}

func (s *stubTelegram) SendMessage(ctx context.Context, _ int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.messages = append(s.messages, text)
	return s.err
}

func (s *stubTelegram) SendDocument(ctx context.Context, _ int64, data []byte, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.docs = append(s.docs, sentDoc{name: name, data: data})
	return s.err
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) RenderEvaluation(context.Context, evaluation.Record) ([]byte, error) {
	return []byte("%PDF"), r.err
}

func sampleRecord() evaluation.Record {
	return evaluation.Record{
		ID:         7,
		ScenarioID: "elena-petrova",
		Transcript: "Doctor: Hello\nPatient: Hi",
		CreatedAt:  time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC),
		Scores: []evaluation.Score{
			{Skill: "Information Gathering", Score: 4, Justification: "Good open questions."},
			{Skill: "Managing Difficult Conversations", Score: 3, Justification: "Stayed calm."},
		},
	}
}

func TestSummary(t *testing.T) {
	require.Equal(t, "New evaluation #7\n"+
		"Scenario: elena-petrova\n"+
		"Date: 04.03.2026 10:30\n\n"+
		"- Information Gathering: 4/5\n"+
		"- Managing Difficult Conversations: 3/5\n\n"+
		"Average: 3.5/5", Summary(sampleRecord()))
}

func TestAverage_Empty(t *testing.T) {
	_, ok := Average(evaluation.Record{})
	require.False(t, ok)
}

func TestNotifyEvaluation(t *testing.T) {
	tg := &stubTelegram{}
	require.NoError(t, NewService(tg, stubRenderer{}, 42, nil).NotifyEvaluation(context.Background(), sampleRecord()))
	require.Len(t, tg.messages, 1)
	require.Len(t, tg.docs, 1)
	require.Equal(t, "evaluation_7.pdf", tg.docs[0].name)
}

func TestNotifyEvaluation_SummarySurvivesRenderFailure(t *testing.T) {
	tg := &stubTelegram{}
	err := NewService(tg, stubRenderer{err: ErrNoFont}, 42, nil).NotifyEvaluation(context.Background(), sampleRecord())
	require.ErrorIs(t, err, ErrNoFont)
	require.Len(t, tg.messages, 1)
	require.Empty(t, tg.docs)
}

func TestNotifyEvaluation_TelegramFailure(t *testing.T) {
	tg := &stubTelegram{err: errors.New("bad gateway")}
	err := NewService(tg, stubRenderer{}, 42, nil).NotifyEvaluation(context.Background(), sampleRecord())
	require.Error(t, err)
	require.Empty(t, tg.docs)
}

func TestNotifyEvaluation_StopsWhenCallerCancels(t *testing.T) {
	tg := &stubTelegram{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewService(tg, stubRenderer{}, 42, nil).NotifyEvaluation(ctx, sampleRecord())
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, tg.messages)
	require.Empty(t, tg.docs)
}

func TestRenderer_MissingFont(t *testing.T) {
	r := &Renderer{fontPaths: []string{"/nonexistent/font.ttf"}, logger: slog.Default()}
	_, err := r.RenderEvaluation(context.Background(), sampleRecord())
	require.ErrorIs(t, err, ErrNoFont)
}

func TestRenderer_ProducesPDF(t *testing.T) {
	found := false
	for _, p := range DefaultFontPaths {
		if _, err := os.Stat(p); err == nil {
			found = true
			break
		}
	}
	if !found {
		t.Skip("DejaVuSans not installed")
	}

	out, err := NewRenderer("", nil).RenderEvaluation(context.Background(), sampleRecord())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
