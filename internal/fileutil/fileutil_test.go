package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSHA1SumKnownDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := SHA1Sum(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "a9993e364706816aba3e25717850c26c9cd0d89d"; got != want {
		t.Fatalf("digest mismatch: got %s, want %s", got, want)
	}
}

func TestSHA1SumIgnoresMetadata(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte{0x42, 0x00, 0xff}, HashChunkSize)
	a := filepath.Join(dir, "a.mpg")
	b := filepath.Join(dir, "nested", "b.mpg")
	if err := os.MkdirAll(filepath.Dir(b), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(a, content, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, content, 0o644); err != nil {
		t.Fatal(err)
	}

	sumA, err := SHA1Sum(a)
	if err != nil {
		t.Fatal(err)
	}
	sumB, err := SHA1Sum(b)
	if err != nil {
		t.Fatal(err)
	}
	if sumA != sumB {
		t.Fatalf("identical content hashed differently: %s vs %s", sumA, sumB)
	}
	if !IsSHA1Hex(sumA) {
		t.Fatalf("expected 40 hex chars, got %q", sumA)
	}
}

func TestSHA1SumChangesWithOneByte(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi")
	content := bytes.Repeat([]byte("frame"), 1000)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	before, err := SHA1Sum(path)
	if err != nil {
		t.Fatal(err)
	}

	content[len(content)/2] ^= 0x01
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	after, err := SHA1Sum(path)
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Fatal("expected digest to change after byte flip")
	}
}

func TestSHA1SumMissingFile(t *testing.T) {
	if _, err := SHA1Sum(filepath.Join(t.TempDir(), "missing")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestIsSHA1Hex(t *testing.T) {
	cases := map[string]bool{
		"a9993e364706816aba3e25717850c26c9cd0d89d":  true,
		"A9993E364706816ABA3E25717850C26C9CD0D89D":  true,
		"a9993e36":                                  false,
		"z9993e364706816aba3e25717850c26c9cd0d89d":  false,
		"a9993e364706816aba3e25717850c26c9cd0d89d0": false,
	}
	for input, want := range cases {
		if got := IsSHA1Hex(input); got != want {
			t.Fatalf("IsSHA1Hex(%q) = %v, want %v", input, got, want)
		}
	}
}
