// Package report renders evaluations as PDF documents and delivers them to
// the instructor's Telegram chat.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/signintech/gopdf"

	"medcomm-trainer/internal/evaluation"
	"medcomm-trainer/internal/log"
)

const (
	fontFamily = "DejaVu"
	pageMargin = 40.0
	textWidth  = 515.0
	pageBottom = 800.0
)

// DefaultFontPaths are tried in order when no explicit font is configured.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

var ErrNoFont = errors.New("report: no usable TTF font found")

// Renderer draws evaluation reports with gopdf.
type Renderer struct {
	fontPaths []string
	logger    *slog.Logger
}

// NewRenderer builds a Renderer. fontPath, when set, is tried before the
// default locations.
func NewRenderer(fontPath string, logger *slog.Logger) *Renderer {
	paths := DefaultFontPaths
	if fontPath != "" {
		paths = append([]string{fontPath}, DefaultFontPaths...)
	}
	return &Renderer{fontPaths: paths, logger: log.Or(logger)}
}

func (r *Renderer) RenderEvaluation(_ context.Context, rec evaluation.Record) ([]byte, error) {
	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.SetMargins(pageMargin, pageMargin, pageMargin, pageMargin)
	pdf.AddPage()

	if err := r.loadFont(pdf); err != nil {
		return nil, err
	}

	w := &writer{pdf: pdf}
	w.line(20, "Communication Skills Evaluation")
	w.gap(10)
	w.line(12, fmt.Sprintf("Evaluation #%d", rec.ID))
	w.line(12, "Scenario: "+rec.ScenarioID)
	if !rec.CreatedAt.IsZero() {
		w.line(12, "Date: "+rec.CreatedAt.UTC().Format("02.01.2006 15:04 MST"))
	}
	if avg, ok := Average(rec); ok {
		w.line(12, fmt.Sprintf("Average score: %.1f / 5", avg))
	}
	w.gap(15)

	w.line(14, "Scores")
	w.gap(5)
	if len(rec.Scores) == 0 {
		w.line(11, "- No scores recorded.")
	}
	for _, s := range rec.Scores {
		w.line(12, fmt.Sprintf("%s: %d / 5", s.Skill, s.Score))
		w.paragraph(11, s.Justification)
		w.gap(8)
	}

	if strings.TrimSpace(rec.Transcript) != "" {
		w.gap(10)
		w.line(14, "Transcript")
		w.gap(5)
		for _, l := range strings.Split(rec.Transcript, "\n") {
			w.paragraph(10, l)
		}
	}
	if w.err != nil {
		return nil, fmt.Errorf("report: draw: %w", w.err)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("report: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) loadFont(pdf *gopdf.GoPdf) error {
	var lastErr error
	for _, path := range r.fontPaths {
		if err := pdf.AddTTFFont(fontFamily, path); err != nil {
			lastErr = err
			continue
		}
		r.logger.Debug("report font loaded", "path", path)
		return nil
	}
	return fmt.Errorf("%w: %v", ErrNoFont, lastErr)
}

// writer keeps the first drawing error and starts new pages as needed.
type writer struct {
	pdf *gopdf.GoPdf
	err error
}

func (w *writer) line(size float64, text string) {
	if w.err != nil {
		return
	}
	if w.err = w.pdf.SetFont(fontFamily, "", size); w.err != nil {
		return
	}
	w.breakPage()
	w.err = w.pdf.Cell(nil, text)
	w.pdf.Br(size + 4)
}

func (w *writer) paragraph(size float64, text string) {
	if w.err != nil || strings.TrimSpace(text) == "" {
		return
	}
	if w.err = w.pdf.SetFont(fontFamily, "", size); w.err != nil {
		return
	}
	lines, err := w.pdf.SplitText(text, textWidth)
	if err != nil {
		w.err = err
		return
	}
	for _, l := range lines {
		w.line(size, l)
	}
}

func (w *writer) gap(h float64) {
	w.pdf.Br(h)
}

func (w *writer) breakPage() {
	if w.pdf.GetY() > pageBottom {
		w.pdf.AddPage()
	}
}
