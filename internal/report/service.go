package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"medcomm-trainer/internal/evaluation"
	"medcomm-trainer/internal/log"
)

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName string) error
}

type EvaluationRenderer interface {
	RenderEvaluation(ctx context.Context, rec evaluation.Record) ([]byte, error)
}

// Service delivers finished evaluations to the instructor chat.
type Service struct {
	tgClient TelegramClient
	renderer EvaluationRenderer
	chatID   int64
	logger   *slog.Logger
}

func NewService(tg TelegramClient, renderer EvaluationRenderer, chatID int64, logger *slog.Logger) *Service {
	return &Service{
		tgClient: tg,
		renderer: renderer,
		chatID:   chatID,
		logger:   log.Or(logger),
	}
}

// NotifyEvaluation sends a text summary followed by the PDF report. The
// summary is sent even when the PDF cannot be rendered.
func (s *Service) NotifyEvaluation(ctx context.Context, rec evaluation.Record) error {
	if err := s.tgClient.SendMessage(ctx, s.chatID, Summary(rec)); err != nil {
		return fmt.Errorf("report: send summary: %w", err)
	}

	pdf, err := s.renderer.RenderEvaluation(ctx, rec)
	if err != nil {
		return err
	}
	fileName := fmt.Sprintf("evaluation_%d.pdf", rec.ID)
	if err := s.tgClient.SendDocument(ctx, s.chatID, pdf, fileName); err != nil {
		return fmt.Errorf("report: send document: %w", err)
	}
	s.logger.Info("evaluation report delivered", "id", rec.ID, "chat", s.chatID)
	return nil
}

// Summary is the plain-text digest of an evaluation.
func Summary(rec evaluation.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New evaluation #%d\n", rec.ID)
	fmt.Fprintf(&b, "Scenario: %s\n", rec.ScenarioID)
	if !rec.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", rec.CreatedAt.UTC().Format("02.01.2006 15:04"))
	}
	b.WriteString("\n")
	for _, sc := range rec.Scores {
		fmt.Fprintf(&b, "- %s: %d/5\n", sc.Skill, sc.Score)
	}
	if avg, ok := Average(rec); ok {
		fmt.Fprintf(&b, "\nAverage: %.1f/5", avg)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Average is the mean score, false when there are no scores.
func Average(rec evaluation.Record) (float64, bool) {
	if len(rec.Scores) == 0 {
		return 0, false
	}
	total := 0
	for _, sc := range rec.Scores {
		total += sc.Score
	}
	return float64(total) / float64(len(rec.Scores)), true
}
