package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tgrayson/oddsmith/internal/service"
)

// GradingService defines what the grading handler needs from the service
// layer.
type GradingService interface {
	GradeYesterday(ctx context.Context) (service.GradeRunSummary, error)
}

// GradingHandler serves the manual grading trigger.
type GradingHandler struct {
	grading GradingService
	logger  *slog.Logger
}

// NewGradingHandler creates a GradingHandler.
func NewGradingHandler(grading GradingService, logger *slog.Logger) *GradingHandler {
	return &GradingHandler{grading: grading, logger: logger}
}

// GradeYesterday runs a grading pass over yesterday's games and returns the
// run summary. Grading is write-once per pick, so repeated triggers are
// harmless.
// POST /api/grade/yesterday
func (h *GradingHandler) GradeYesterday(w http.ResponseWriter, r *http.Request) {
	summary, err := h.grading.GradeYesterday(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: grading failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "grading failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
