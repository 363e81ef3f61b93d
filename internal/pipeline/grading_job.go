package pipeline

import (
	"context"
	"log/slog"

	"github.com/tgrayson/oddsmith/internal/service"
)

// YesterdayGrader settles the prior day's picks.
type YesterdayGrader interface {
	GradeYesterday(ctx context.Context) (service.GradeRunSummary, error)
}

// GradingJob runs the daily grading pass on a cron schedule, typically a few
// hours after midnight UTC so late games have gone final.
type GradingJob struct {
	grader YesterdayGrader
	logger *slog.Logger
}

// NewGradingJob creates a GradingJob.
func NewGradingJob(grader YesterdayGrader, logger *slog.Logger) *GradingJob {
	return &GradingJob{grader: grader, logger: logger}
}

// Run executes a single grading pass over yesterday's games.
func (j *GradingJob) Run(ctx context.Context) error {
	summary, err := j.grader.GradeYesterday(ctx)
	if err != nil {
		return err
	}
	j.logger.Info("daily grading complete",
		slog.String("day", summary.Day),
		slog.Int("picks_settled", summary.TotalUpdated),
	)
	return nil
}

// RunCron runs the grading job on the given cron schedule until the context is
// cancelled.
func (j *GradingJob) RunCron(ctx context.Context, cronExpr string) error {
	j.logger.Info("grading cron started", slog.String("cron", cronExpr))
	return runCron(ctx, cronExpr, j.Run, func(err error) {
		j.logger.Error("daily grading failed", slog.String("error", err.Error()))
	})
}
