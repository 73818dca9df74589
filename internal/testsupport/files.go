package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ffglitch/internal/fileutil"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WriteMedia writes a fake media file and returns its path and SHA-1.
func WriteMedia(t testing.TB, dir, name string, size int64) (string, string) {
	t.Helper()

	path := filepath.Join(dir, name)
	WriteFile(t, path, size)
	sum, err := fileutil.SHA1Sum(path)
	if err != nil {
		t.Fatalf("hash %s: %v", path, err)
	}
	return path, sum
}

// SidecarJSON builds a single-stream sidecar document whose frames are the
// given JSON object literals.
func SidecarJSON(feature, sha1sum string, frames ...string) []byte {
	var b strings.Builder
	b.WriteString(`{"ffedit_version":"test","features":["`)
	b.WriteString(feature)
	b.WriteString(`"],"sha1sum":"`)
	b.WriteString(sha1sum)
	b.WriteString(`","streams":[{"frames":[`)
	b.WriteString(strings.Join(frames, ","))
	b.WriteString(`]}]}`)
	return []byte(b.String())
}

// WriteSidecar writes data to path, creating parent directories.
func WriteSidecar(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write sidecar %s: %v", path, err)
	}
}
