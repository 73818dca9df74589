package sidecar

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ffglitch/internal/document"
	"ffglitch/internal/fileutil"
	"ffglitch/internal/logging"
	"ffglitch/internal/services"
)

// Ext is the extension every sidecar carries.
const Ext = ".json"

// MissReason explains why a sidecar could not be reused.
type MissReason string

const (
	MissNone     MissReason = ""
	MissAbsent   MissReason = "absent"
	MissFeature  MissReason = "feature_mismatch"
	MissDigest   MissReason = "sha1sum_mismatch"
	MissCorrupt  MissReason = "corrupt"
	MissBypassed MissReason = "bypassed"
)

// Result is the outcome of a lookup. Document is set only on a hit.
type Result struct {
	Document *document.Document
	Miss     MissReason
	Detail   string
}

// Hit reports whether the sidecar can be reused.
func (r Result) Hit() bool {
	return r.Miss == MissNone && r.Document != nil
}

// Path derives the sidecar path by replacing the input's extension with
// .json. An input that already ends in .json would alias its own sidecar and
// is rejected with services.ErrConfiguration.
func Path(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", services.Wrap(services.ErrConfiguration, "sidecar", "derive path", "input path is empty", nil)
	}
	sidecar := strings.TrimSuffix(input, filepath.Ext(input)) + Ext
	if sidecar == input {
		return "", services.Wrap(services.ErrConfiguration, "sidecar", "derive path",
			fmt.Sprintf("input file name %q must not end in %s", input, Ext), nil)
	}
	return sidecar, nil
}

// Hasher digests a file for comparison against the sidecar's sha1sum.
type Hasher func(path string) (string, error)

// Validator implements the cache lookup.
type Validator struct {
	logger        *slog.Logger
	hasher        Hasher
	corruptAsMiss bool
	schemaCheck   bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the validator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithHasher replaces the content hasher (tests).
func WithHasher(h Hasher) Option {
	return func(v *Validator) {
		if h != nil {
			v.hasher = h
		}
	}
}

// WithCorruptAsMiss treats unreadable or unparsable sidecars as a miss
// instead of failing the run.
func WithCorruptAsMiss(enabled bool) Option {
	return func(v *Validator) { v.corruptAsMiss = enabled }
}

// WithSchemaCheck additionally validates the sidecar against the CUE schema.
func WithSchemaCheck(enabled bool) Option {
	return func(v *Validator) { v.schemaCheck = enabled }
}

// NewValidator constructs a Validator hashing with SHA-1.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		logger: logging.NewNop(),
		hasher: fileutil.SHA1Sum,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = logging.NewComponentLogger(v.logger, "sidecar")
	return v
}

// Lookup returns the parsed sidecar when it is reusable for inputPath and
// feature, or a Result describing the miss.
func (v *Validator) Lookup(ctx context.Context, sidecarPath, inputPath, feature string) (Result, error) {
	logger := logging.WithContext(ctx, v.logger)

	data, err := os.ReadFile(sidecarPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no existing sidecar", logging.String("path", sidecarPath))
		return Result{Miss: MissAbsent, Detail: "sidecar not found"}, nil
	}
	if err != nil {
		return v.corrupt(logger, sidecarPath, services.Wrap(services.ErrMalformedDocument, "sidecar", "read", sidecarPath, err))
	}

	logger.Info("checking existing sidecar", logging.String("path", sidecarPath))

	if v.schemaCheck {
		if err := document.Validate(sidecarPath, data); err != nil {
			return v.corrupt(logger, sidecarPath, err)
		}
	}
	doc, err := document.Decode(data)
	if err != nil {
		return v.corrupt(logger, sidecarPath, fmt.Errorf("%s: %w", sidecarPath, err))
	}

	if reason, detail := checkFeatures(doc, feature); reason != MissNone {
		logger.Info("sidecar feature mismatch",
			logging.String("path", sidecarPath),
			logging.String("requested", feature),
			logging.Any("features", doc.Features),
		)
		return Result{Miss: reason, Detail: detail}, nil
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	digest, err := v.hasher(inputPath)
	if err != nil {
		marker := services.ErrValidation
		if errors.Is(err, fs.ErrNotExist) {
			marker = services.ErrNotFound
		}
		return Result{}, services.Wrap(marker, "sidecar", "hash input", inputPath, err)
	}
	if len(doc.SHA1Sum) != 40 || doc.SHA1Sum != digest {
		logger.Info("sidecar sha1sum mismatch",
			logging.String("path", sidecarPath),
			logging.String("input", inputPath),
		)
		return Result{Miss: MissDigest, Detail: fmt.Sprintf("sha1sum mismatch for %s", inputPath)}, nil
	}

	logger.Info("sidecar is reusable", logging.String("path", sidecarPath), logging.Int("frames", doc.FrameCount()))
	return Result{Document: doc}, nil
}

func (v *Validator) corrupt(logger *slog.Logger, path string, err error) (Result, error) {
	if !v.corruptAsMiss {
		return Result{}, err
	}
	logger.Warn("ignoring unreadable sidecar",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "the sidecar will be re-exported"),
	)
	return Result{Miss: MissCorrupt, Detail: err.Error()}, nil
}

func checkFeatures(doc *document.Document, feature string) (MissReason, string) {
	if len(doc.Features) != 1 || doc.Features[0] != feature {
		return MissFeature, fmt.Sprintf("feature %q not found in sidecar", feature)
	}
	return MissNone, ""
}

// Check reports whether an already-decoded document matches feature and the
// given digest. It mirrors Lookup for callers that hashed the input themselves.
func Check(doc *document.Document, feature, digest string) (MissReason, string) {
	if doc == nil {
		return MissAbsent, "no document"
	}
	if reason, detail := checkFeatures(doc, feature); reason != MissNone {
		return reason, detail
	}
	if len(doc.SHA1Sum) != 40 || doc.SHA1Sum != digest {
		return MissDigest, "sha1sum mismatch"
	}
	return MissNone, ""
}
