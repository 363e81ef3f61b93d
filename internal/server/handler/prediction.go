package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// PredictionService defines what the prediction handler needs from the service
// layer. It is declared locally so the handler package does not depend on the
// concrete service implementation.
type PredictionService interface {
	Predictions(ctx context.Context, league domain.League, dayOffset int) (domain.PredictionBoard, error)
	Games(ctx context.Context, league domain.League, dayOffset int) ([]domain.Game, error)
}

// PredictionHandler serves the prediction board and schedule endpoints.
type PredictionHandler struct {
	predictions PredictionService
	logger      *slog.Logger
}

// NewPredictionHandler creates a PredictionHandler.
func NewPredictionHandler(predictions PredictionService, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{
		predictions: predictions,
		logger:      logger,
	}
}

// GetPredictions returns the pick board for one league on a relative day.
// Internal failures degrade to an empty board rather than an error body so
// dashboard clients always get a well-formed response.
// GET /api/predictions?league=nfl&day_offset=0
func (h *PredictionHandler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	league, ok := queryLeague(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or unsupported league")
		return
	}
	dayOffset := queryInt(r, "day_offset", 0)

	board, err := h.predictions.Predictions(r.Context(), league, dayOffset)
	if err != nil {
		if isBadInput(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: predictions failed",
			slog.String("league", string(league)),
			slog.Int("day_offset", dayOffset),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusOK, domain.PredictionBoard{Items: []domain.PredictionItem{}})
		return
	}

	writeJSON(w, http.StatusOK, board)
}

// listGamesResponse wraps the schedule endpoint output.
type listGamesResponse struct {
	Count int           `json:"count"`
	Games []domain.Game `json:"games"`
}

// GetGames returns the schedule for one league on a relative day.
// GET /api/games?league=nfl&day_offset=0
func (h *PredictionHandler) GetGames(w http.ResponseWriter, r *http.Request) {
	league, ok := queryLeague(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing or unsupported league")
		return
	}
	dayOffset := queryInt(r, "day_offset", 0)

	games, err := h.predictions.Games(r.Context(), league, dayOffset)
	if err != nil {
		if isBadInput(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: games failed",
			slog.String("league", string(league)),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusOK, listGamesResponse{Games: []domain.Game{}})
		return
	}
	if games == nil {
		games = []domain.Game{}
	}

	writeJSON(w, http.StatusOK, listGamesResponse{Count: len(games), Games: games})
}
