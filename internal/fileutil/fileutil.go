package fileutil

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// HashChunkSize is the read buffer used when digesting media files.
const HashChunkSize = 128 * 1024

// SHA1Sum streams the file at path through SHA-1 in HashChunkSize reads and
// returns the lowercase 40-character hex digest. File metadata never affects
// the result.
func SHA1Sum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sum, err := SHA1Reader(f)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return sum, nil
}

// SHA1Reader digests r until EOF.
func SHA1Reader(r io.Reader) (string, error) {
	hasher := sha1.New()
	buf := make([]byte, HashChunkSize)
	if _, err := io.CopyBuffer(onlyWriter{hasher}, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// IsSHA1Hex reports whether s looks like a hex SHA-1 digest.
func IsSHA1Hex(s string) bool {
	if len(s) != sha1.Size*2 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// onlyWriter hides ReaderFrom so io.CopyBuffer honours the fixed buffer.
type onlyWriter struct {
	io.Writer
}
