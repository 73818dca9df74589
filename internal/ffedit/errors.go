package ffedit

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"ffglitch/internal/services"
)

// ToolError reports a failed ffedit invocation.
type ToolError struct {
	Mode     Mode
	Argv     []string
	ExitCode int
	Output   string
	Err      error
}

func newToolError(mode Mode, binary string, args []string, output string, err error) *ToolError {
	argv := make([]string, 0, len(args)+1)
	argv = append(argv, binary)
	argv = append(argv, args...)
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &ToolError{
		Mode:     mode,
		Argv:     argv,
		ExitCode: code,
		Output:   output,
		Err:      err,
	}
}

func (e *ToolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: ffedit %s failed", services.ErrExternalTool, e.Mode)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " (exit status %d)", e.ExitCode)
	}
	if e.Err != nil && e.ExitCode < 0 {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Command returns the failed command line.
func (e *ToolError) Command() string {
	if len(e.Argv) == 0 {
		return ""
	}
	return commandLine(e.Argv[0], e.Argv[1:])
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Is matches services.ErrExternalTool.
func (e *ToolError) Is(target error) bool {
	return target == services.ErrExternalTool
}
