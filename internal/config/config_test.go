package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ffglitch/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("FFEDIT_PATH", "")
	t.Setenv("FFGLITCH_LOG_LEVEL", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Tool.Binary != "ffedit" {
		t.Fatalf("unexpected tool binary: %q", cfg.Tool.Binary)
	}
	if !cfg.Cache.Enabled {
		t.Fatal("expected cache enabled by default")
	}
	if cfg.Cache.CorruptAsMiss {
		t.Fatal("expected corrupt sidecars to be hard errors by default")
	}
	if !cfg.Document.StrictShape {
		t.Fatal("expected strict shape checks by default")
	}
	wantHistory := filepath.Join(tempHome, ".local", "share", "ffglitch", "history.db")
	if cfg.History.Path != wantHistory {
		t.Fatalf("unexpected history path: got %q want %q", cfg.History.Path, wantHistory)
	}
	if cfg.TempDir() != os.TempDir() {
		t.Fatalf("expected system temp dir fallback, got %q", cfg.TempDir())
	}
}

func TestLoadReadsFileAndEnvOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("FFEDIT_PATH", "/opt/ffglitch/ffedit")
	t.Setenv("FFGLITCH_LOG_LEVEL", "DEBUG")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[tool]
overwrite = true
threads = 4

[document]
pretty = true
temp_dir = "~/scratch"

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit path to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Tool.Binary != "/opt/ffglitch/ffedit" {
		t.Fatalf("expected env binary override, got %q", cfg.Tool.Binary)
	}
	if !cfg.Tool.Overwrite || cfg.Tool.Threads != 4 {
		t.Fatalf("unexpected tool section: %+v", cfg.Tool)
	}
	if !cfg.Document.Pretty {
		t.Fatal("expected pretty output")
	}
	if cfg.Document.TempDir != filepath.Join(tempHome, "scratch") {
		t.Fatalf("unexpected temp dir: %q", cfg.Document.TempDir)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging section: %+v", cfg.Logging)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[tool]\nbinry = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("expected logging level error, got %v", err)
	}

	cfg = config.Default()
	cfg.Document.TempPrefix = "../escape"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "temp_prefix") {
		t.Fatalf("expected temp prefix error, got %v", err)
	}
}

func TestSampleConfigParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Tool.Binary != "ffedit" {
		t.Fatalf("unexpected sample binary: %q", cfg.Tool.Binary)
	}
}
