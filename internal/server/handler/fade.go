package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tgrayson/oddsmith/internal/domain"
	"github.com/tgrayson/oddsmith/internal/service"
)

// Default fade-scan parameters when the query string omits them.
const (
	defaultFadeDays      = 1
	defaultFadeThreshold = 65.0
	defaultFadeMinConf   = 55
)

// FadeService defines what the fade handler needs from the service layer.
type FadeService interface {
	Fades(ctx context.Context, q service.FadeQuery) ([]domain.FadeItem, error)
}

// FadeHandler serves the fade-candidate endpoint.
type FadeHandler struct {
	fades  FadeService
	logger *slog.Logger
}

// NewFadeHandler creates a FadeHandler.
func NewFadeHandler(fades FadeService, logger *slog.Logger) *FadeHandler {
	return &FadeHandler{fades: fades, logger: logger}
}

// listFadesResponse wraps the fade endpoint output.
type listFadesResponse struct {
	Count int               `json:"count"`
	Items []domain.FadeItem `json:"items"`
}

// GetFades returns games where the public consensus and the model disagree,
// sorted by public percentage descending. League is optional; omitting it
// scans every league. Internal failures degrade to an empty list.
// GET /api/fades?league=nfl&days=1&threshold=65&min_confidence=55
func (h *FadeHandler) GetFades(w http.ResponseWriter, r *http.Request) {
	q := service.FadeQuery{
		Days:            queryInt(r, "days", defaultFadeDays),
		PublicThreshold: queryFloat(r, "threshold", defaultFadeThreshold),
		MinConfidence:   queryInt(r, "min_confidence", defaultFadeMinConf),
	}
	if raw := r.URL.Query().Get("league"); raw != "" {
		league, err := domain.ParseLeague(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unsupported league")
			return
		}
		q.League = league
	}

	items, err := h.fades.Fades(r.Context(), q)
	if err != nil {
		if isBadInput(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: fades failed",
			slog.String("league", string(q.League)),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusOK, listFadesResponse{Items: []domain.FadeItem{}})
		return
	}
	if items == nil {
		items = []domain.FadeItem{}
	}

	writeJSON(w, http.StatusOK, listFadesResponse{Count: len(items), Items: items})
}
