package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"ffglitch/internal/logging"
	"ffglitch/internal/pipeline"
)

type glitchOptions struct {
	input   string
	feature string
	source  string
	output  string
	verbose bool
	keep    bool
	force   bool
	watch   bool
}

func (o glitchOptions) empty() bool {
	return strings.TrimSpace(o.input+o.feature+o.source+o.output) == ""
}

func (o glitchOptions) request() pipeline.Request {
	return pipeline.Request{
		Input:   strings.TrimSpace(o.input),
		Feature: strings.TrimSpace(o.feature),
		Source:  strings.TrimSpace(o.source),
		Output:  strings.TrimSpace(o.output),
		Verbose: o.verbose,
		Keep:    o.keep,
		Force:   o.force,
	}
}

func runGlitch(cmd *cobra.Command, ctx *commandContext, opts glitchOptions) (err error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := ctx.logger(opts.verbose)
	if err != nil {
		return err
	}
	store, err := ctx.openHistory()
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			err = multierr.Append(err, store.Close())
		}()
	}

	stderr := cmd.ErrOrStderr()
	runnerOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithToolOutput(stderr),
		pipeline.WithProgress(stderr),
		pipeline.WithPreflight(true),
		pipeline.WithHistory(store),
	}
	runner, err := pipeline.NewRunner(cfg, append(runnerOpts, ctx.runnerOptions...)...)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := opts.request()
	out := cmd.OutOrStdout()
	if opts.watch {
		return runner.Watch(runCtx, req, pipeline.DefaultDebounce, func(result pipeline.Result, err error) {
			printResult(out, stderr, req, result, err)
			if err != nil {
				logger.Warn("watched run failed; waiting for the next change", logging.Error(err))
			}
		})
	}

	result, err := runner.Run(runCtx, req)
	printResult(out, stderr, req, result, err)
	return err
}

func printResult(out, errOut io.Writer, req pipeline.Request, result pipeline.Result, err error) {
	if err != nil {
		if result.TempKept && result.TempPath != "" {
			fmt.Fprintf(errOut, "Temporary document kept at %s\n", result.TempPath)
		}
		return
	}

	cache := "exported"
	if result.CacheHit {
		cache = "reused"
	}
	size := ""
	if info, statErr := os.Stat(req.Output); statErr == nil {
		size = " (" + humanize.Bytes(uint64(info.Size())) + ")"
	}
	fmt.Fprintf(out, "Wrote %s%s\n", req.Output, size)
	fmt.Fprintf(out, "  feature %s, transform %s, %d/%d frames changed, sidecar %s, took %s\n",
		req.Feature,
		result.Transform,
		result.Stats.Transformed,
		result.Stats.Frames,
		cache,
		result.Elapsed.Round(time.Millisecond),
	)
	if result.TempKept && result.TempPath != "" {
		fmt.Fprintf(out, "  kept %s\n", result.TempPath)
	}
}

