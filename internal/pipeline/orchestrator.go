package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Orchestrator manages the background goroutines: odds syncing, score polling,
// daily grading, and cold-storage archival. Any of the jobs may be nil, in
// which case it is not started; a serve-only process runs with none of them.
type Orchestrator struct {
	oddsSyncer     *OddsSyncer
	scoresJob      *ScoresJob
	gradingJob     *GradingJob
	archiveJob     *ArchiveJob
	syncInterval   time.Duration
	scoresInterval time.Duration
	gradingCron    string
	archiveCron    string
	logger         *slog.Logger
}

// NewOrchestrator creates an Orchestrator over the given jobs.
func NewOrchestrator(
	oddsSyncer *OddsSyncer,
	scoresJob *ScoresJob,
	gradingJob *GradingJob,
	archiveJob *ArchiveJob,
	syncInterval time.Duration,
	scoresInterval time.Duration,
	gradingCron string,
	archiveCron string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		oddsSyncer:     oddsSyncer,
		scoresJob:      scoresJob,
		gradingJob:     gradingJob,
		archiveJob:     archiveJob,
		syncInterval:   syncInterval,
		scoresInterval: scoresInterval,
		gradingCron:    gradingCron,
		archiveCron:    archiveCron,
		logger:         logger,
	}
}

// Run starts all configured jobs as concurrent goroutines using an errgroup.
// Each goroutine respects ctx cancellation. If any goroutine returns a
// non-context error, the errgroup cancels the shared context and Run returns
// that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("pipeline orchestrator starting",
		slog.Duration("sync_interval", o.syncInterval),
		slog.Duration("scores_interval", o.scoresInterval),
		slog.String("grading_cron", o.gradingCron),
		slog.String("archive_cron", o.archiveCron),
	)

	g, ctx := errgroup.WithContext(ctx)

	if o.oddsSyncer != nil {
		g.Go(func() error {
			o.logger.Info("starting odds syncer loop")
			err := o.oddsSyncer.RunLoop(ctx, o.syncInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("odds syncer: %w", err)
		})
	}

	if o.scoresJob != nil {
		g.Go(func() error {
			o.logger.Info("starting scores job loop")
			err := o.scoresJob.RunLoop(ctx, o.scoresInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("scores job: %w", err)
		})
	}

	if o.gradingJob != nil {
		g.Go(func() error {
			o.logger.Info("starting grading cron")
			err := o.gradingJob.RunCron(ctx, o.gradingCron)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("grading job: %w", err)
		})
	}

	if o.archiveJob != nil {
		g.Go(func() error {
			o.logger.Info("starting archive cron")
			err := o.archiveJob.RunCron(ctx, o.archiveCron)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("archive job: %w", err)
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("pipeline orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("pipeline orchestrator stopped cleanly")
	return nil
}
