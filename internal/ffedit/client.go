package ffedit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"ffglitch/internal/config"
	"ffglitch/internal/logging"
)

// Mode identifies which ffedit pass ran.
type Mode string

const (
	ModeExport  Mode = "export"
	ModeApply   Mode = "apply"
	ModeVersion Mode = "version"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithVerbose streams tool output to w and logs each command line at info.
func WithVerbose(verbose bool, w io.Writer) Option {
	return func(c *Client) {
		c.verbose = verbose
		if w != nil {
			c.output = w
		}
	}
}

// WithOverwrite passes -y so ffedit may replace an existing output file.
func WithOverwrite(overwrite bool) Option {
	return func(c *Client) { c.overwrite = overwrite }
}

// WithThreads passes -threads n when n > 0.
func WithThreads(n int) Option {
	return func(c *Client) { c.threads = n }
}

// WithTimeout bounds each subprocess. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Client wraps ffedit CLI interactions.
type Client struct {
	binary    string
	overwrite bool
	threads   int
	timeout   time.Duration
	verbose   bool
	output    io.Writer
	exec      Executor
	logger    *slog.Logger
}

// New constructs an ffedit client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffedit binary required")
	}
	client := &Client{
		binary: binary,
		output: os.Stderr,
		exec:   commandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "ffedit")
	return client, nil
}

// NewFromConfig builds a client using the [tool] section. binary is the
// resolved executable path.
func NewFromConfig(cfg *config.Config, binary string, opts ...Option) (*Client, error) {
	base := []Option{
		WithOverwrite(cfg.Tool.Overwrite),
		WithThreads(cfg.Tool.Threads),
		WithTimeout(time.Duration(cfg.Tool.TimeoutSeconds) * time.Second),
	}
	return New(binary, append(base, opts...)...)
}

// Binary returns the executable the client runs.
func (c *Client) Binary() string {
	return c.binary
}

// Export runs `ffedit <input> -f <feature> -e <sidecar>`.
func (c *Client) Export(ctx context.Context, inputPath, feature, sidecarPath string) error {
	args := append(c.globalArgs(), inputPath, "-f", feature, "-e", sidecarPath)
	return c.run(ctx, ModeExport, args)
}

// Apply runs `ffedit <input> -f <feature> -a <document> <output>`. The
// document file is only read.
func (c *Client) Apply(ctx context.Context, inputPath, feature, documentPath, outputPath string) error {
	args := append(c.globalArgs(), inputPath, "-f", feature, "-a", documentPath, outputPath)
	return c.run(ctx, ModeApply, args)
}

// Version returns the first line ffedit prints for -version.
func (c *Client) Version(ctx context.Context) (string, error) {
	tail := newTailBuffer(maxCapturedLines)
	if err := c.exec.Run(ctx, c.binary, []string{"-version"}, tail.Add); err != nil {
		return "", newToolError(ModeVersion, c.binary, []string{"-version"}, tail.String(), err)
	}
	lines := tail.Lines()
	if len(lines) == 0 {
		return "", nil
	}
	return strings.TrimSpace(lines[0]), nil
}

func (c *Client) globalArgs() []string {
	var args []string
	if c.overwrite {
		args = append(args, "-y")
	}
	if c.threads > 0 {
		args = append(args, "-threads", strconv.Itoa(c.threads))
	}
	return args
}

func (c *Client) run(ctx context.Context, mode Mode, args []string) error {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	logger := logging.WithContext(ctx, c.logger)
	command := commandLine(c.binary, args)
	if c.verbose {
		logger.Info("running ffedit", logging.String("mode", string(mode)), logging.String("command", command))
	} else {
		logger.Debug("running ffedit", logging.String("mode", string(mode)), logging.String("command", command))
	}

	tail := newTailBuffer(maxCapturedLines)
	onOutput := tail.Add
	if c.verbose {
		onOutput = func(line string) {
			tail.Add(line)
			fmt.Fprintln(c.output, line)
		}
	}

	start := time.Now()
	err := c.exec.Run(runCtx, c.binary, args, onOutput)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("timed out after %s: %w", c.timeout, err)
		}
		toolErr := newToolError(mode, c.binary, args, tail.String(), err)
		if !c.verbose && toolErr.Output != "" {
			logger.Debug("ffedit output before failure",
				logging.String("mode", string(mode)),
				logging.String("command", command),
				logging.String("tool_output", toolErr.Output),
			)
		}
		return toolErr
	}
	logger.Debug("ffedit finished",
		logging.String("mode", string(mode)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func commandLine(binary string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, quoteArg(binary))
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\"'\\$") {
		return strconv.Quote(arg)
	}
	return arg
}
