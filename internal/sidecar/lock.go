package sidecar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"

	"ffglitch/internal/services"
)

const lockRetryDelay = 100 * time.Millisecond

// Lock is an advisory lock on one sidecar.
type Lock struct {
	path string
	fl   *flock.Flock
}

// LockPath returns the lock file for sidecarPath inside lockDir. Lock files
// never live next to the media, which may sit on a read-only mount.
func LockPath(lockDir, sidecarPath string) string {
	key := sidecarPath
	if abs, err := filepath.Abs(sidecarPath); err == nil {
		key = abs
	}
	name := "ffglitch-" + strconv.FormatUint(xxhash.Sum64String(key), 16) + ".lock"
	return filepath.Join(lockDir, name)
}

// Acquire takes the lock for sidecarPath, waiting up to timeout. A zero
// timeout tries once.
func Acquire(ctx context.Context, lockDir, sidecarPath string, timeout time.Duration) (*Lock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrValidation, "sidecar", "lock", lockDir, err)
	}
	path := LockPath(lockDir, sidecarPath)
	fl := flock.New(path)

	var (
		ok  bool
		err error
	)
	if timeout <= 0 {
		ok, err = fl.TryLock()
	} else {
		lockCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		ok, err = fl.TryLockContext(lockCtx, lockRetryDelay)
		if errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
	}
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "sidecar", "lock", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "sidecar", "lock",
			fmt.Sprintf("%s is held by another run", path), nil)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
