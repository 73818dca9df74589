package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// writeMetrics renders the run into a Prometheus textfile for node_exporter.
// A fresh registry per run keeps the file limited to the latest run.
func writeMetrics(path string, result Result, runErr error, now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure metrics directory: %w", err)
	}

	registry := prometheus.NewRegistry()

	stageDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ffglitch_stage_duration_seconds",
		Help: "Duration of each pipeline stage in the last run.",
	}, []string{"stage"})
	frames := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ffglitch_frames",
		Help: "Frames seen by the transform stage in the last run.",
	}, []string{"state"})
	cacheHit := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ffglitch_cache_hit",
		Help: "1 when the last run reused its sidecar.",
	})
	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ffglitch_last_run_success",
		Help: "1 when the last run succeeded.",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ffglitch_last_run_duration_seconds",
		Help: "Wall time of the last run.",
	})
	timestamp := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ffglitch_last_run_timestamp_seconds",
		Help: "Unix time the last run finished.",
	})
	registry.MustRegister(stageDuration, frames, cacheHit, success, duration, timestamp)

	for _, timing := range result.Timings {
		stageDuration.WithLabelValues(timing.Stage).Set(timing.Duration.Seconds())
	}
	frames.WithLabelValues("transformed").Set(float64(result.Stats.Transformed))
	frames.WithLabelValues("skipped").Set(float64(result.Stats.Skipped))
	if result.CacheHit {
		cacheHit.Set(1)
	}
	if runErr == nil {
		success.Set(1)
	}
	duration.Set(result.Elapsed.Seconds())
	timestamp.Set(float64(now.Unix()))

	return prometheus.WriteToTextfile(path, registry)
}
