package evaluation

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medcomm-trainer/internal/apperr"
	"medcomm-trainer/internal/auth"
	"medcomm-trainer/internal/httpx"
)

// ReportRenderer renders an evaluation as a PDF document.
type ReportRenderer interface {
	RenderEvaluation(ctx context.Context, rec Record) ([]byte, error)
}

type Handler struct {
	svc    *Service
	report ReportRenderer
}

// NewHandler builds the evaluation handler. report may be nil, in which
// case the report endpoint is not served.
func NewHandler(svc *Service, report ReportRenderer) *Handler {
	return &Handler{svc: svc, report: report}
}

type EvaluateRequest struct {
	ScenarioID string `json:"scenario_id"`
	Transcript string `json:"transcript"`
}

func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		apperr.Write(w, r, apperr.Unauthorized("authentication required"))
		return
	}

	var req EvaluateRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		apperr.Write(w, r, err)
		return
	}

	res, err := h.svc.Evaluate(r.Context(), EvaluateInput{
		ScenarioID: req.ScenarioID,
		Transcript: req.Transcript,
		UserID:     userID,
	})
	if err != nil {
		apperr.Write(w, r, err)
		return
	}

	resp := make(map[string]any, len(res.Verdict)+1)
	for skill, score := range res.Verdict {
		resp[skill] = score
	}
	resp["evaluation_id"] = res.EvaluationID
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		apperr.Write(w, r, apperr.Unauthorized("authentication required"))
		return
	}

	recs, err := h.svc.History(r.Context(), userID)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, recs)
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		apperr.Write(w, r, apperr.Unauthorized("authentication required"))
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apperr.Write(w, r, apperr.BadRequest("invalid evaluation id"))
		return
	}

	rec, err := h.svc.Get(r.Context(), id, userID)
	if err != nil {
		apperr.Write(w, r, err)
		return
	}
	pdf, err := h.report.RenderEvaluation(r.Context(), *rec)
	if err != nil {
		apperr.Write(w, r, apperr.New(apperr.KindUpstream, "render report", err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="evaluation-%d.pdf"`, id))
	_, _ = w.Write(pdf)
}

// RegisterRoutes mounts the evaluation endpoints behind requireUser.
func RegisterRoutes(r chi.Router, h *Handler, requireUser func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Post("/evaluate", h.Evaluate)
		r.Get("/me/history", h.History)
		if h.report != nil {
			r.Get("/me/evaluations/{id}/report", h.Report)
		}
	})
}
