package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// OddsArchiver moves aged odds rows to object storage and trims them from the
// database.
type OddsArchiver interface {
	ArchiveOdds(ctx context.Context, before time.Time) (int64, error)
}

// ArchiveJob moves odds history past the retention window to cold storage.
type ArchiveJob struct {
	archiver      OddsArchiver
	retentionDays int
	logger        *slog.Logger
}

// NewArchiveJob creates an ArchiveJob.
func NewArchiveJob(archiver OddsArchiver, retentionDays int, logger *slog.Logger) *ArchiveJob {
	return &ArchiveJob{
		archiver:      archiver,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// Run executes one archive pass: everything captured before the retention
// cutoff is uploaded and deleted.
func (j *ArchiveJob) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(j.retentionDays) * 24 * time.Hour)

	archived, err := j.archiver.ArchiveOdds(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving odds before %v: %w", cutoff, err)
	}

	j.logger.Info("archive pass complete",
		slog.Time("cutoff", cutoff),
		slog.Int64("odds_archived", archived),
	)
	return nil
}

// RunCron runs the archive job on the given cron schedule until the context is
// cancelled.
func (j *ArchiveJob) RunCron(ctx context.Context, cronExpr string) error {
	j.logger.Info("archive cron started", slog.String("cron", cronExpr))
	return runCron(ctx, cronExpr, j.Run, func(err error) {
		j.logger.Error("archive pass failed", slog.String("error", err.Error()))
	})
}
