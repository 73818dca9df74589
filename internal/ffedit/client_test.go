package ffedit_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ffglitch/internal/config"
	"ffglitch/internal/ffedit"
	"ffglitch/internal/services"
)

type stubExecutor struct {
	lines    []string
	err      error
	calls    int
	binaries []string
	args     [][]string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	s.calls++
	s.binaries = append(s.binaries, binary)
	s.args = append(s.args, append([]string(nil), args...))
	for _, line := range s.lines {
		onOutput(line)
	}
	return s.err
}

func TestExportArguments(t *testing.T) {
	exec := &stubExecutor{}
	client, err := ffedit.New("/opt/ffglitch/ffedit", ffedit.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := client.Export(context.Background(), "clip.avi", "mv", "clip.json"); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	want := [][]string{{"clip.avi", "-f", "mv", "-e", "clip.json"}}
	if diff := cmp.Diff(want, exec.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if exec.binaries[0] != "/opt/ffglitch/ffedit" {
		t.Fatalf("unexpected binary %q", exec.binaries[0])
	}
}

func TestApplyArgumentsWithToolOptions(t *testing.T) {
	exec := &stubExecutor{}
	cfg := config.Default()
	cfg.Tool.Overwrite = true
	cfg.Tool.Threads = 4
	client, err := ffedit.NewFromConfig(&cfg, "ffedit", ffedit.WithExecutor(exec))
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}

	if err := client.Apply(context.Background(), "clip.avi", "q_dct", "/tmp/ffglitch_1.json", "out.avi"); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	want := [][]string{{"-y", "-threads", "4", "clip.avi", "-f", "q_dct", "-a", "/tmp/ffglitch_1.json", "out.avi"}}
	if diff := cmp.Diff(want, exec.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestFailureReturnsToolError(t *testing.T) {
	exec := &stubExecutor{
		lines: []string{"[mpeg2video] invalid json", "Error applying data"},
		err:   errors.New("wait command: exit status 1"),
	}
	client, err := ffedit.New("ffedit", ffedit.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	err = client.Apply(context.Background(), "in.mpg", "mv", "tmp.json", "out.mpg")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	var toolErr *ffedit.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *ToolError, got %T", err)
	}
	if toolErr.Mode != ffedit.ModeApply {
		t.Fatalf("unexpected mode %q", toolErr.Mode)
	}
	if !strings.Contains(toolErr.Output, "Error applying data") {
		t.Fatalf("expected captured output, got %q", toolErr.Output)
	}
	if toolErr.Command() != "ffedit in.mpg -f mv -a tmp.json out.mpg" {
		t.Fatalf("unexpected command %q", toolErr.Command())
	}
	if services.ExitCode(err) != services.ExitExternalTool {
		t.Fatalf("unexpected exit code %d", services.ExitCode(err))
	}
}

func TestQuietFailureLogsCapturedOutput(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	exec := &stubExecutor{
		lines: []string{"[mpeg2video] invalid json"},
		err:   errors.New("wait command: exit status 1"),
	}
	client, err := ffedit.New("ffedit", ffedit.WithExecutor(exec), ffedit.WithLogger(logger))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := client.Export(context.Background(), "in.mpg", "mv", "in.json"); err == nil {
		t.Fatal("expected export to fail")
	}
	if !strings.Contains(logs.String(), `"tool_output":"[mpeg2video] invalid json"`) {
		t.Fatalf("captured output missing from logs:\n%s", logs.String())
	}
}

func TestVerboseStreamsOutput(t *testing.T) {
	var out bytes.Buffer
	exec := &stubExecutor{lines: []string{"frame=1", "frame=2"}}
	client, err := ffedit.New("ffedit", ffedit.WithExecutor(exec), ffedit.WithVerbose(true, &out))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := client.Export(context.Background(), "a.avi", "mv", "a.json"); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if out.String() != "frame=1\nframe=2\n" {
		t.Fatalf("unexpected passthrough %q", out.String())
	}
}

func TestQuietCapturesOnlyTail(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "line"
	}
	lines[99] = "last"
	exec := &stubExecutor{lines: lines, err: errors.New("boom")}
	client, err := ffedit.New("ffedit", ffedit.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	err = client.Export(context.Background(), "a.avi", "mv", "a.json")
	var toolErr *ffedit.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *ToolError, got %v", err)
	}
	captured := strings.Split(toolErr.Output, "\n")
	if len(captured) != 40 || captured[len(captured)-1] != "last" {
		t.Fatalf("expected 40-line tail ending in last, got %d lines", len(captured))
	}
	if toolErr.ExitCode != -1 {
		t.Fatalf("expected unknown exit code for non-exec error, got %d", toolErr.ExitCode)
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := ffedit.New("  "); err == nil {
		t.Fatal("expected error for empty binary")
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffedit")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestCommandExecutorReportsExitCode(t *testing.T) {
	script := writeScript(t, "echo \"cannot open $1\" >&2\nexit 3\n")
	client, err := ffedit.New(script)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	err = client.Export(context.Background(), "missing.avi", "mv", "missing.json")
	var toolErr *ffedit.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *ToolError, got %v", err)
	}
	if toolErr.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", toolErr.ExitCode)
	}
	if !strings.Contains(toolErr.Output, "cannot open missing.avi") {
		t.Fatalf("expected stderr capture, got %q", toolErr.Output)
	}
}

func TestCommandExecutorTimeout(t *testing.T) {
	script := writeScript(t, "exec sleep 5\n")
	client, err := ffedit.New(script, ffedit.WithTimeout(100*time.Millisecond))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	start := time.Now()
	err = client.Export(context.Background(), "a.avi", "mv", "a.json")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if !strings.Contains(err.Error(), "ffedit export failed") {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if time.Since(start) > 4*time.Second {
		t.Fatal("timeout did not stop the subprocess")
	}
}

func TestVersion(t *testing.T) {
	exec := &stubExecutor{lines: []string{"ffedit version 0.10.2", "built with gcc"}}
	client, err := ffedit.New("ffedit", ffedit.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	version, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version returned error: %v", err)
	}
	if version != "ffedit version 0.10.2" {
		t.Fatalf("unexpected version %q", version)
	}
	if diff := cmp.Diff([][]string{{"-version"}}, exec.args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}
