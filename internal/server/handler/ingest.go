package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tgrayson/oddsmith/internal/domain"
	"github.com/tgrayson/oddsmith/internal/service"
)

// IngestService defines what the ingest handler needs from the service layer.
type IngestService interface {
	IngestGames(ctx context.Context, league domain.League, records []service.ProviderGame) (service.IngestSummary, error)
	RecordBetSplits(ctx context.Context, splits []domain.PublicBetSplit) []service.ItemError
}

// IngestHandler serves the write endpoints for game batches and public
// betting splits.
type IngestHandler struct {
	ingest IngestService
	logger *slog.Logger
}

// NewIngestHandler creates an IngestHandler.
func NewIngestHandler(ingest IngestService, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{ingest: ingest, logger: logger}
}

// ingestGameRecord is the wire shape of one provider game in the ingest body.
type ingestGameRecord struct {
	ProviderID string            `json:"provider_id"`
	HomeTeam   string            `json:"home_team"`
	AwayTeam   string            `json:"away_team"`
	StartTime  time.Time         `json:"start_time"`
	Quote      *domain.OddsQuote `json:"quote,omitempty"`
}

// ingestGamesRequest is the body of POST /api/ingest/games.
type ingestGamesRequest struct {
	League string             `json:"league"`
	Games  []ingestGameRecord `json:"games"`
}

// IngestGames accepts a batch of provider game records and reconciles them
// into storage. Item failures are reported in the summary, not as an HTTP
// error; resending the same batch is safe.
// POST /api/ingest/games
func (h *IngestHandler) IngestGames(w http.ResponseWriter, r *http.Request) {
	var req ingestGamesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	league, err := domain.ParseLeague(req.League)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing or unsupported league")
		return
	}

	records := make([]service.ProviderGame, 0, len(req.Games))
	for _, g := range req.Games {
		records = append(records, service.ProviderGame{
			ProviderID: g.ProviderID,
			HomeTeam:   g.HomeTeam,
			AwayTeam:   g.AwayTeam,
			StartTime:  g.StartTime,
			Quote:      g.Quote,
		})
	}

	summary, err := h.ingest.IngestGames(r.Context(), league, records)
	if err != nil {
		if isBadInput(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: ingest games failed",
			slog.String("league", string(league)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "ingestion failed")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// ingestSplitsRequest is the body of POST /api/ingest/splits.
type ingestSplitsRequest struct {
	Splits []domain.PublicBetSplit `json:"splits"`
}

// ingestSplitsResponse reports how many splits landed and which failed.
type ingestSplitsResponse struct {
	Total    int                 `json:"total"`
	Stored   int                 `json:"stored"`
	Failures []service.ItemError `json:"failures,omitempty"`
}

// IngestSplits stores a batch of public betting split captures.
// POST /api/ingest/splits
func (h *IngestHandler) IngestSplits(w http.ResponseWriter, r *http.Request) {
	var req ingestSplitsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	failures := h.ingest.RecordBetSplits(r.Context(), req.Splits)
	writeJSON(w, http.StatusOK, ingestSplitsResponse{
		Total:    len(req.Splits),
		Stored:   len(req.Splits) - len(failures),
		Failures: failures,
	})
}
