package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"ffglitch/internal/artifact"
	"ffglitch/internal/config"
	"ffglitch/internal/deps"
	"ffglitch/internal/document"
	"ffglitch/internal/ffedit"
	"ffglitch/internal/fileutil"
	"ffglitch/internal/history"
	"ffglitch/internal/logging"
	"ffglitch/internal/preflight"
	"ffglitch/internal/services"
	"ffglitch/internal/sidecar"
	"ffglitch/internal/transform"
)

// Stage names used in logs, errors, and metrics.
const (
	StageLookup    = "lookup"
	StageExport    = "export"
	StageTransform = "transform"
	StagePersist   = "persist"
	StageApply     = "apply"
)

const verboseHint = "re-run with -v to see the ffedit command line and its diagnostics"

// Request describes one pipeline run.
type Request struct {
	Input   string
	Feature string
	Source  string
	Output  string
	Verbose bool
	Keep    bool
	Force   bool
}

// StageTiming records how long a stage ran.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// Result summarises a run. It is populated as far as the run got.
type Result struct {
	RunID       string
	SidecarPath string
	CacheHit    bool
	CacheMiss   sidecar.MissReason
	Transform   string
	Stats       transform.Stats
	TempPath    string
	TempKept    bool
	Timings     []StageTiming
	Elapsed     time.Duration
}

// Runner executes pipeline runs against one configuration.
type Runner struct {
	cfg        *config.Config
	logger     *slog.Logger
	binary     string
	executor   ffedit.Executor
	toolOutput io.Writer
	history    *history.Store
	progress   io.Writer
	preflight  bool
	now        func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithExecutor overrides how ffedit is launched.
func WithExecutor(exec ffedit.Executor) Option {
	return func(r *Runner) { r.executor = exec }
}

// WithToolOutput sets where ffedit diagnostics go in verbose runs.
func WithToolOutput(w io.Writer) Option {
	return func(r *Runner) { r.toolOutput = w }
}

// WithHistory records every run in store.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) { r.history = store }
}

// WithProgress draws a frame progress bar on w when it is a terminal.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) { r.progress = w }
}

// WithPreflight checks the tool and output paths before each run.
func WithPreflight(enabled bool) Option {
	return func(r *Runner) { r.preflight = enabled }
}

// NewRunner constructs a Runner. The ffedit binary is resolved once here.
func NewRunner(cfg *config.Config, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config is required", nil)
	}
	r := &Runner{
		cfg:        cfg,
		logger:     logging.NewNop(),
		toolOutput: os.Stderr,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "pipeline")
	r.binary = deps.ResolveFFedit(cfg.Tool.Binary).Command
	return r, nil
}

// Run executes one extract-transform-apply pass.
func (r *Runner) Run(ctx context.Context, req Request) (Result, error) {
	result := Result{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, result.RunID)
	ctx = services.WithFeature(ctx, req.Feature)
	started := r.now()

	err := r.run(ctx, req, &result)

	result.Elapsed = r.now().Sub(started)
	r.finish(ctx, req, result, started, err)
	return result, err
}

func (r *Runner) run(ctx context.Context, req Request, result *Result) (err error) {
	logger := logging.WithContext(ctx, r.logger)

	if err := validateRequest(req); err != nil {
		return err
	}
	sidecarPath, err := sidecar.Path(req.Input)
	if err != nil {
		return err
	}
	result.SidecarPath = sidecarPath

	if _, statErr := os.Stat(req.Input); statErr != nil {
		marker := services.ErrValidation
		if errors.Is(statErr, fs.ErrNotExist) {
			marker = services.ErrNotFound
		}
		return services.Wrap(marker, "pipeline", "open input", req.Input, statErr)
	}

	if r.preflight {
		if failed := preflight.Failed(preflight.RunAll(ctx, r.cfg, req.Output)); len(failed) > 0 {
			details := make([]string, 0, len(failed))
			for _, f := range failed {
				details = append(details, f.Name+": "+f.Detail)
			}
			return services.Wrap(services.ErrConfiguration, "pipeline", "preflight", strings.Join(details, "; "), nil)
		}
	}

	loaded, err := transform.Load(ctx, req.Source, r.logger)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, loaded.Close())
	}()
	result.Transform = loaded.Name
	if !loaded.Supports(req.Feature) {
		return services.Wrap(services.ErrConfiguration, "pipeline", "load transform",
			fmt.Sprintf("transform %q does not support feature %q (supports %s)",
				loaded.Name, req.Feature, strings.Join(loaded.Features, ", ")), nil)
	}

	client, err := r.newClient(req.Verbose)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "init ffedit", "", err)
	}

	lock, err := sidecar.Acquire(ctx, r.cfg.TempDir(), sidecarPath, time.Duration(r.cfg.Cache.LockTimeoutSeconds)*time.Second)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, lock.Release())
	}()

	doc, err := r.resolveDocument(ctx, client, req, sidecarPath, result)
	if err != nil {
		return err
	}

	stage := transform.NewStage(
		transform.WithLogger(r.logger),
		transform.WithStrictShape(r.cfg.Document.StrictShape),
		transform.WithProgress(newProgress(r.progress)),
	)
	if err := r.stage(ctx, StageTransform, result, func(ctx context.Context) error {
		stats, err := stage.Apply(ctx, doc, loaded.Transform, req.Feature)
		result.Stats = stats
		return err
	}); err != nil {
		return err
	}

	manager := artifact.NewManager(
		artifact.WithDir(r.cfg.TempDir()),
		artifact.WithPrefix(r.cfg.Document.TempPrefix),
		artifact.WithPretty(r.cfg.Document.Pretty),
		artifact.WithLogger(r.logger),
	)
	if err := r.stage(ctx, StagePersist, result, func(ctx context.Context) error {
		path, err := manager.Persist(ctx, doc)
		result.TempPath = path
		return err
	}); err != nil {
		return err
	}

	applyErr := r.stage(ctx, StageApply, result, func(ctx context.Context) error {
		return client.Apply(ctx, req.Input, req.Feature, result.TempPath, req.Output)
	})
	if applyErr != nil {
		logging.ErrorWithHint(logger, "failed to apply modified data", verboseHint,
			logging.String("output", req.Output),
			logging.String("temp_path", result.TempPath),
			logging.Error(applyErr),
		)
	}

	removed, cleanupErr := manager.Cleanup(ctx, result.TempPath, req.Keep, applyErr == nil)
	result.TempKept = !removed
	return multierr.Append(applyErr, cleanupErr)
}

// resolveDocument returns a reusable sidecar or exports and verifies a new one.
func (r *Runner) resolveDocument(ctx context.Context, client *ffedit.Client, req Request, sidecarPath string, result *Result) (*document.Document, error) {
	logger := logging.WithContext(ctx, r.logger)

	var lookup sidecar.Result
	if req.Force || !r.cfg.Cache.Enabled {
		lookup = sidecar.Result{Miss: sidecar.MissBypassed, Detail: "cache bypassed"}
	} else {
		validator := sidecar.NewValidator(
			sidecar.WithLogger(r.logger),
			sidecar.WithCorruptAsMiss(r.cfg.Cache.CorruptAsMiss),
			sidecar.WithSchemaCheck(r.cfg.Document.SchemaCheck),
		)
		if err := r.stage(ctx, StageLookup, result, func(ctx context.Context) error {
			var err error
			lookup, err = validator.Lookup(ctx, sidecarPath, req.Input, req.Feature)
			return err
		}); err != nil {
			return nil, err
		}
	}

	if lookup.Hit() {
		result.CacheHit = true
		return lookup.Document, nil
	}
	result.CacheMiss = lookup.Miss
	logger.Info("exporting sidecar",
		logging.String("reason", string(lookup.Miss)),
		logging.String("detail", lookup.Detail),
		logging.String("sidecar", sidecarPath),
	)

	var doc *document.Document
	err := r.stage(ctx, StageExport, result, func(ctx context.Context) error {
		if err := client.Export(ctx, req.Input, req.Feature, sidecarPath); err != nil {
			return err
		}
		loaded, err := document.Load(sidecarPath)
		if err != nil {
			if errors.Is(err, services.ErrMalformedDocument) {
				return err
			}
			return services.Wrap(services.ErrMalformedDocument, StageExport, "read sidecar", sidecarPath, err)
		}
		digest, err := fileutil.SHA1Sum(req.Input)
		if err != nil {
			return services.Wrap(services.ErrValidation, StageExport, "hash input", req.Input, err)
		}
		if reason, detail := sidecar.Check(loaded, req.Feature, digest); reason != sidecar.MissNone {
			return services.Wrap(services.ErrMalformedDocument, StageExport, "verify sidecar",
				fmt.Sprintf("%s: %s", sidecarPath, detail), nil)
		}
		doc = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *Runner) newClient(verbose bool) (*ffedit.Client, error) {
	opts := []ffedit.Option{
		ffedit.WithLogger(r.logger),
		ffedit.WithVerbose(verbose, r.toolOutput),
	}
	if r.executor != nil {
		opts = append(opts, ffedit.WithExecutor(r.executor))
	}
	return ffedit.NewFromConfig(r.cfg, r.binary, opts...)
}

// stage runs fn with the stage name in ctx and records its duration.
func (r *Runner) stage(ctx context.Context, name string, result *Result, fn func(context.Context) error) error {
	ctx = services.WithStage(ctx, name)
	logger := logging.WithContext(ctx, r.logger)
	logger.Debug("stage started")

	start := r.now()
	err := fn(ctx)
	elapsed := r.now().Sub(start)
	result.Timings = append(result.Timings, StageTiming{Stage: name, Duration: elapsed})

	if err != nil {
		logger.Debug("stage failed", logging.Duration("elapsed", elapsed), logging.Error(err))
		return err
	}
	logger.Debug("stage completed", logging.Duration("elapsed", elapsed))
	return nil
}

func validateRequest(req Request) error {
	missing := []string{}
	if strings.TrimSpace(req.Input) == "" {
		missing = append(missing, "input")
	}
	if strings.TrimSpace(req.Feature) == "" {
		missing = append(missing, "feature")
	}
	if strings.TrimSpace(req.Source) == "" {
		missing = append(missing, "transform source")
	}
	if strings.TrimSpace(req.Output) == "" {
		missing = append(missing, "output")
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrConfiguration, "pipeline", "validate request",
			"missing "+strings.Join(missing, ", "), nil)
	}
	if !document.IsKnownFeature(req.Feature) {
		return services.Wrap(services.ErrConfiguration, "pipeline", "validate request",
			fmt.Sprintf("unknown feature %q (known: %s)", req.Feature, strings.Join(document.FeatureNames(), ", ")), nil)
	}
	if req.Input == req.Output {
		return services.Wrap(services.ErrConfiguration, "pipeline", "validate request",
			"output must differ from input", nil)
	}
	return nil
}
