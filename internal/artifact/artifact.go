// Package artifact owns the temporary document handed to ffedit's apply
// pass. The file is removed only after a successful run that did not ask to
// keep it; otherwise it stays on disk for debugging.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"ffglitch/internal/document"
	"ffglitch/internal/logging"
	"ffglitch/internal/services"
)

const suffix = ".json"

// Manager writes and cleans up temporary documents.
type Manager struct {
	dir    string
	prefix string
	pretty bool
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithDir places artifacts in dir instead of the system temp directory.
func WithDir(dir string) Option {
	return func(m *Manager) { m.dir = strings.TrimSpace(dir) }
}

// WithPrefix sets the file name prefix.
func WithPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			m.prefix = prefix
		}
	}
}

// WithPretty indents the persisted JSON.
func WithPretty(pretty bool) Option {
	return func(m *Manager) { m.pretty = pretty }
}

// WithLogger sets the manager's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager constructs a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{prefix: "ffglitch_", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	if m.dir == "" {
		m.dir = os.TempDir()
	}
	m.logger = logging.NewComponentLogger(m.logger, "artifact")
	return m
}

// Persist serializes doc to a new, uniquely named file and returns its path.
// The name is <prefix><run id>_<random>.json; the run id comes from ctx.
func (m *Manager) Persist(ctx context.Context, doc *document.Document) (string, error) {
	data, err := document.Encode(doc, m.pretty)
	if err != nil {
		return "", services.Wrap(services.ErrMalformedDocument, "artifact", "encode", "", err)
	}

	pattern := m.prefix + runToken(ctx) + "_*" + suffix
	f, err := os.CreateTemp(m.dir, pattern)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "artifact", "create", m.dir, err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	logging.WithContext(ctx, m.logger).Info("dumped modified data",
		logging.String("path", path),
		logging.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return path, nil
}

// Cleanup deletes path only when succeeded && !keep. It reports whether the
// file was removed; a retained file is logged with its location.
func (m *Manager) Cleanup(ctx context.Context, path string, keep, succeeded bool) (bool, error) {
	logger := logging.WithContext(ctx, m.logger)
	if path == "" {
		return false, nil
	}
	if !succeeded || keep {
		logger.Info("not deleting temporary file",
			logging.String("path", path),
			logging.Bool("keep", keep),
			logging.Bool("succeeded", succeeded),
		)
		return false, nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	logger.Debug("removed temporary file", logging.String("path", path))
	return true, nil
}

// Dir returns the directory artifacts are written to.
func (m *Manager) Dir() string {
	return m.dir
}

func runToken(ctx context.Context) string {
	if id, ok := services.RunIDFromContext(ctx); ok {
		if parsed, err := uuid.Parse(id); err == nil {
			return strings.SplitN(parsed.String(), "-", 2)[0]
		}
		return sanitize(id)
	}
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return -1
		}
	}, s)
}
