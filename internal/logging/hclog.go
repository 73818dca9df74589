package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// NewHCLogger returns an hclog.Logger whose output is re-emitted through the
// given slog logger. go-plugin requires hclog for host-side plugin logging.
func NewHCLogger(logger *slog.Logger, name string) hclog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	level := hclog.Info
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:        name,
		Level:       level,
		Output:      &slogWriter{logger: NewComponentLogger(logger, name)},
		DisableTime: true,
	})
}

// slogWriter turns newline-delimited hclog output into debug records.
type slogWriter struct {
	mu      sync.Mutex
	logger  *slog.Logger
	pending bytes.Buffer
}

func (w *slogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending.Write(p)
	for {
		line, err := w.pending.ReadString('\n')
		if err != nil {
			// Partial line; keep it for the next write.
			w.pending.Reset()
			w.pending.WriteString(line)
			break
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			w.logger.Debug(trimmed)
		}
	}
	return len(p), nil
}
