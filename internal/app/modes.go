package app

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tgrayson/oddsmith/internal/notify"
	"github.com/tgrayson/oddsmith/internal/pipeline"
	"github.com/tgrayson/oddsmith/internal/server"
	"github.com/tgrayson/oddsmith/internal/server/handler"
	"github.com/tgrayson/oddsmith/internal/server/ws"
	"github.com/tgrayson/oddsmith/internal/service"
)

// services bundles the domain services shared across the operating modes.
type services struct {
	predictions *service.PredictionService
	ingest      *service.IngestService
	grading     *service.GradingService
	fades       *service.FadeService
}

func (a *App) buildServices(deps *Dependencies) *services {
	return &services{
		predictions: service.NewPredictionService(
			deps.GameStore, deps.OddsStore, deps.PickStore,
			deps.PredictionCache, deps.SignalBus,
			a.logger, a.cfg.Cache.PredictionTTL.Duration,
		),
		ingest: service.NewIngestService(
			deps.GameStore, deps.OddsStore, deps.BetSplitStore,
			deps.PredictionCache, a.logger,
		),
		grading: service.NewGradingService(
			deps.GameStore, deps.PickStore, deps.OddsStore,
			deps.GradeStore, deps.SignalBus, a.logger,
		),
		fades: service.NewFadeService(
			deps.GameStore, deps.PickStore, deps.BetSplitStore, a.logger,
		),
	}
}

// pingerFunc adapts a bare function to the handler.Pinger interface.
type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// healthDeps lists the backing services the health endpoint probes.
func (a *App) healthDeps(deps *Dependencies) map[string]handler.Pinger {
	m := map[string]handler.Pinger{
		"postgres": deps.Postgres,
		"redis":    deps.Redis,
	}
	if deps.S3 != nil {
		m["s3"] = pingerFunc(deps.S3.Health)
	}
	return m
}

// startServer wires the HTTP handlers and WebSocket hub and runs them under
// the errgroup. The server goroutine shuts down gracefully on ctx cancel.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	hub := ws.NewHub(deps.SignalBus, strings.ToLower(a.cfg.Mode), a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(a.healthDeps(deps), a.logger),
		Predictions: handler.NewPredictionHandler(svcs.predictions, a.logger),
		Fades:       handler.NewFadeHandler(svcs.fades, a.logger),
		Ingest:      handler.NewIngestHandler(svcs.ingest, a.logger),
		Grading:     handler.NewGradingHandler(svcs.grading, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
		RateLimiter: deps.RateLimiter,
	}, handlers, hub, a.logger)

	g.Go(func() error {
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	})
}

// startBridge forwards bus events to the configured notification channels.
func (a *App) startBridge(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	bridge := notify.NewBridge(deps.SignalBus, deps.Notifier, a.logger)
	g.Go(func() error {
		err := bridge.Run(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return err
	})
}

// newOrchestrator assembles the background jobs for a mode. withSync enables
// the odds syncer; withGrading enables the grading cron and odds archival.
// The score poller runs whenever any pipeline work is enabled, since both
// ingestion and grading depend on fresh finals.
func (a *App) newOrchestrator(deps *Dependencies, svcs *services, withSync, withGrading bool) *pipeline.Orchestrator {
	pcfg := a.cfg.Pipeline
	leagues := a.cfg.LeagueList()

	var syncer *pipeline.OddsSyncer
	if withSync {
		var snaps pipeline.Snapshotter
		if pcfg.SnapshotRaw && deps.Archiver != nil {
			snaps = deps.Archiver
		}
		syncer = pipeline.NewOddsSyncer(
			deps.OddsClient, svcs.ingest, svcs.fades, deps.Quota, snaps, deps.SignalBus,
			pipeline.OddsSyncerConfig{
				Leagues:     leagues,
				QuotaKey:    "quota:oddsapi",
				QuotaLimit:  a.cfg.OddsAPI.QuotaLimit,
				QuotaWindow: a.cfg.OddsAPI.QuotaWindow.Duration,
				SnapshotRaw: pcfg.SnapshotRaw,
				FadeQuery: service.FadeQuery{
					Days:            pcfg.FadeDays,
					PublicThreshold: pcfg.FadeThreshold,
					MinConfidence:   pcfg.FadeMinConfidence,
				},
				PublishFades: pcfg.PublishFades,
			},
			a.logger,
		)
	}

	scores := pipeline.NewScoresJob(deps.OddsClient, svcs.grading, leagues, pcfg.ScoresDaysFrom, a.logger)

	var grading *pipeline.GradingJob
	var archive *pipeline.ArchiveJob
	if withGrading {
		grading = pipeline.NewGradingJob(svcs.grading, a.logger)
		if deps.Archiver != nil {
			archive = pipeline.NewArchiveJob(deps.Archiver, pcfg.ArchiveRetentionDays, a.logger)
		}
	}

	return pipeline.NewOrchestrator(
		syncer, scores, grading, archive,
		pcfg.SyncInterval.Duration, pcfg.ScoresInterval.Duration,
		pcfg.GradingCron, pcfg.ArchiveCron,
		a.logger,
	)
}

// ServeMode runs the HTTP + WebSocket API with no background ingestion. Reads
// come from whatever the pipeline processes have persisted.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)

	a.startServer(ctx, g, deps, svcs)
	a.startBridge(ctx, g, deps)

	return g.Wait()
}

// IngestMode runs the odds syncer and score poller without the API surface.
func (a *App) IngestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting ingest mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)

	orch := a.newOrchestrator(deps, svcs, true, false)
	g.Go(func() error {
		return orch.Run(ctx)
	})
	a.startBridge(ctx, g, deps)

	return g.Wait()
}

// GradeMode runs the score poller, the daily grading cron, and odds archival.
func (a *App) GradeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting grade mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)

	orch := a.newOrchestrator(deps, svcs, false, true)
	g.Go(func() error {
		return orch.Run(ctx)
	})
	a.startBridge(ctx, g, deps)

	return g.Wait()
}

// FullMode runs everything: API server, WebSocket hub, odds syncer, score
// poller, grading cron, archival, and notifications in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	svcs := a.buildServices(deps)

	a.startServer(ctx, g, deps, svcs)
	a.startBridge(ctx, g, deps)

	if a.cfg.Pipeline.Enabled {
		orch := a.newOrchestrator(deps, svcs, true, true)
		g.Go(func() error {
			return orch.Run(ctx)
		})
	}

	return g.Wait()
}
