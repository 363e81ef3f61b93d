package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tgrayson/oddsmith/internal/domain"
)

// Bridge subscribes to the signal bus and turns fade and grading events into
// operator notifications. It runs until its context is cancelled.
type Bridge struct {
	bus      domain.SignalBus
	notifier *Notifier
	logger   *slog.Logger
}

// NewBridge creates a Bridge over the given bus and notifier.
func NewBridge(bus domain.SignalBus, notifier *Notifier, logger *slog.Logger) *Bridge {
	return &Bridge{
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "notify_bridge")),
	}
}

// Run subscribes to the fade and grading channels and dispatches every
// received event. It blocks until ctx is cancelled or a subscription fails.
func (b *Bridge) Run(ctx context.Context) error {
	fades, err := b.bus.Subscribe(ctx, domain.ChannelFades)
	if err != nil {
		return fmt.Errorf("notify: subscribe %s: %w", domain.ChannelFades, err)
	}
	grades, err := b.bus.Subscribe(ctx, domain.ChannelGrades)
	if err != nil {
		return fmt.Errorf("notify: subscribe %s: %w", domain.ChannelGrades, err)
	}

	b.logger.InfoContext(ctx, "bridge started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-fades:
			if !ok {
				return nil
			}
			b.handleFades(ctx, payload)
		case payload, ok := <-grades:
			if !ok {
				return nil
			}
			b.handleGrades(ctx, payload)
		}
	}
}

func (b *Bridge) handleFades(ctx context.Context, payload []byte) {
	var items []domain.FadeItem
	if err := json.Unmarshal(payload, &items); err != nil {
		b.logger.WarnContext(ctx, "bad fades payload",
			slog.String("error", err.Error()),
		)
		return
	}
	if len(items) == 0 {
		return
	}

	var sb strings.Builder
	for _, it := range items {
		fmt.Fprintf(&sb, "%s @ %s (%s %s): public %.0f%% on %s, model %s %d%%\n",
			it.Game.AwayTeam, it.Game.HomeTeam,
			strings.ToUpper(string(it.Game.League)), it.Market,
			it.PublicPct, it.PublicOn,
			it.ModelPick.Side, it.ModelPick.Confidence,
		)
	}

	title := fmt.Sprintf("Fade alert: %d game(s)", len(items))
	if err := b.notifier.Notify(ctx, domain.ChannelFades, title, sb.String()); err != nil {
		b.logger.WarnContext(ctx, "fade notification failed",
			slog.String("error", err.Error()),
		)
	}
}

func (b *Bridge) handleGrades(ctx context.Context, payload []byte) {
	var summary struct {
		Day          string `json:"day"`
		TotalUpdated int    `json:"total_updated"`
	}
	if err := json.Unmarshal(payload, &summary); err != nil {
		b.logger.WarnContext(ctx, "bad grades payload",
			slog.String("error", err.Error()),
		)
		return
	}

	title := fmt.Sprintf("Grading run complete: %s", summary.Day)
	message := fmt.Sprintf("%d pick(s) settled", summary.TotalUpdated)
	if err := b.notifier.Notify(ctx, domain.ChannelGrades, title, message); err != nil {
		b.logger.WarnContext(ctx, "grading notification failed",
			slog.String("error", err.Error()),
		)
	}
}
