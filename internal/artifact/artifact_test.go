package artifact_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ffglitch/internal/artifact"
	"ffglitch/internal/document"
	"ffglitch/internal/services"
)

func sampleDoc(t *testing.T) *document.Document {
	t.Helper()
	doc, err := document.Decode([]byte(`{"features":["mv"],"sha1sum":"a9993e364706816aba3e25717850c26c9cd0d89d","streams":[{"frames":[{"mv":{"forward":[[[1,2]]]}}]}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return doc
}

func TestPersistWritesUniqueFiles(t *testing.T) {
	dir := t.TempDir()
	m := artifact.NewManager(artifact.WithDir(dir))
	ctx := services.WithRunID(context.Background(), "3f2b8c1e-4d5a-4b6c-9d7e-0a1b2c3d4e5f")

	first, err := m.Persist(ctx, sampleDoc(t))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	second, err := m.Persist(ctx, sampleDoc(t))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if first == second {
		t.Fatalf("expected unique paths, got %s twice", first)
	}
	for _, path := range []string{first, second} {
		base := filepath.Base(path)
		if filepath.Dir(path) != dir || !strings.HasPrefix(base, "ffglitch_3f2b8c1e_") || !strings.HasSuffix(base, ".json") {
			t.Fatalf("unexpected artifact path %s", path)
		}
	}

	loaded, err := document.Load(first)
	if err != nil {
		t.Fatalf("persisted document does not load: %v", err)
	}
	if loaded.SHA1Sum != "a9993e364706816aba3e25717850c26c9cd0d89d" {
		t.Fatalf("unexpected sha1sum %q", loaded.SHA1Sum)
	}
}

func TestPersistPretty(t *testing.T) {
	m := artifact.NewManager(artifact.WithDir(t.TempDir()), artifact.WithPretty(true), artifact.WithPrefix("glitch-"))
	path, err := m.Persist(context.Background(), sampleDoc(t))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "glitch-") {
		t.Fatalf("expected custom prefix, got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n  \"features\"") {
		t.Fatalf("expected indented output, got %s", data)
	}
}

func TestCleanupMatrix(t *testing.T) {
	cases := []struct {
		keep, succeeded, removed bool
	}{
		{keep: false, succeeded: true, removed: true},
		{keep: true, succeeded: true, removed: false},
		{keep: false, succeeded: false, removed: false},
		{keep: true, succeeded: false, removed: false},
	}
	m := artifact.NewManager(artifact.WithDir(t.TempDir()))
	for _, tc := range cases {
		path, err := m.Persist(context.Background(), sampleDoc(t))
		if err != nil {
			t.Fatalf("Persist: %v", err)
		}
		removed, err := m.Cleanup(context.Background(), path, tc.keep, tc.succeeded)
		if err != nil {
			t.Fatalf("Cleanup: %v", err)
		}
		_, statErr := os.Stat(path)
		if removed != tc.removed || os.IsNotExist(statErr) != tc.removed {
			t.Fatalf("keep=%v succeeded=%v: removed=%v stat=%v", tc.keep, tc.succeeded, removed, statErr)
		}
	}
}

func TestCleanupMissingFileIsNotAnError(t *testing.T) {
	m := artifact.NewManager()
	if _, err := m.Cleanup(context.Background(), filepath.Join(t.TempDir(), "gone.json"), false, true); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
}

func TestPersistUnwritableDir(t *testing.T) {
	m := artifact.NewManager(artifact.WithDir(filepath.Join(t.TempDir(), "missing")))
	if _, err := m.Persist(context.Background(), sampleDoc(t)); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
