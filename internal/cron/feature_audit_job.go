package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/gigbook-backend/internal/backfill"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
)

type backfillRunner interface {
	Run(ctx context.Context) (backfill.Report, error)
}

type featureAuditJob struct {
	logg   *logger.Logger
	runner backfillRunner
}

// NewFeatureAuditJob builds a job that runs the tier backfill and logs every
// step that still had rows to converge. Pass a dry-run runner to only report.
func NewFeatureAuditJob(logg *logger.Logger, runner backfillRunner) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if runner == nil {
		return nil, fmt.Errorf("backfill runner required")
	}
	return &featureAuditJob{logg: logg, runner: runner}, nil
}

func (j *featureAuditJob) Name() string { return "feature-audit" }

func (j *featureAuditJob) Run(ctx context.Context) error {
	report, err := j.runner.Run(ctx)
	for _, step := range report.Steps {
		if step.Matched == 0 && step.Failed == 0 {
			continue
		}
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"step":     step.Name,
			"matched":  step.Matched,
			"modified": step.Modified,
			"failed":   step.Failed,
			"dry_run":  report.DryRun,
		}), "subscription data drift detected")
	}
	return err
}
