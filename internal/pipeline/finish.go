package pipeline

import (
	"context"
	"strings"
	"time"

	"ffglitch/internal/history"
	"ffglitch/internal/logging"
)

// finish journals the run and writes metrics. Failures here are logged and
// never change the run's outcome.
func (r *Runner) finish(ctx context.Context, req Request, result Result, started time.Time, runErr error) {
	logger := logging.WithContext(ctx, r.logger)

	if runErr != nil {
		logger.Error("glitch run failed",
			logging.String("input", req.Input),
			logging.Duration("elapsed", result.Elapsed),
			logging.Error(runErr),
		)
	} else {
		logger.Info("glitch run completed",
			logging.String("input", req.Input),
			logging.String("output", req.Output),
			logging.Bool("cache_hit", result.CacheHit),
			logging.Int("transformed", result.Stats.Transformed),
			logging.Duration("elapsed", result.Elapsed),
		)
	}

	if r.history != nil {
		run := &history.Run{
			ID:          result.RunID,
			StartedAt:   started,
			FinishedAt:  started.Add(result.Elapsed),
			InputPath:   req.Input,
			Feature:     req.Feature,
			Transform:   firstNonEmpty(result.Transform, req.Source),
			OutputPath:  req.Output,
			SidecarPath: result.SidecarPath,
			CacheHit:    result.CacheHit,
			CacheMiss:   string(result.CacheMiss),
			Frames:      result.Stats.Frames,
			Transformed: result.Stats.Transformed,
			Status:      history.StatusSucceeded,
		}
		if runErr != nil {
			run.Status = history.StatusFailed
			run.Error = runErr.Error()
		}
		if result.TempKept {
			run.TempPath = result.TempPath
		}
		if err := r.history.Record(context.WithoutCancel(ctx), run); err != nil {
			logger.Warn("failed to record run history",
				logging.String("path", r.history.Path()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check history.path or disable history"),
			)
		}
	}

	if path := strings.TrimSpace(r.cfg.Metrics.Textfile); path != "" {
		if err := writeMetrics(path, result, runErr, r.now()); err != nil {
			logger.Warn("failed to write metrics textfile",
				logging.String("path", path),
				logging.Error(err),
			)
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
