package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"ffglitch/internal/config"
	"ffglitch/internal/deps"
	"ffglitch/internal/ffedit"
)

const versionTimeout = 10 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFFedit resolves the configured ffedit binary and asks it for its version.
func CheckFFedit(ctx context.Context, cfg *config.Config, opts ...ffedit.Option) Result {
	const name = "ffedit"

	status := deps.ResolveFFedit(cfg.Tool.Binary)
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}

	client, err := ffedit.New(status.Command, opts...)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	checkCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	version, err := client.Version(checkCtx)
	if err != nil {
		if checkCtx.Err() != nil {
			err = checkCtx.Err()
		}
		return Result{Name: name, Detail: summarizeVersionError(status.Command, err)}
	}
	if version == "" {
		version = "version unknown"
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", status.Command, version)}
}

// CheckSystemDeps reports the binaries ffglitch can execute.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.ResolveAll(cfg.Tool.Binary)
}

func summarizeVersionError(binary string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("%s (error: -version timed out)", binary)
	}
	var toolErr *ffedit.ToolError
	if errors.As(err, &toolErr) && toolErr.ExitCode >= 0 {
		return fmt.Sprintf("%s (error: -version exited with status %d)", binary, toolErr.ExitCode)
	}
	return fmt.Sprintf("%s (error: %v)", binary, err)
}
