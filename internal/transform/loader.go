package transform

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-plugin"
	"github.com/samber/lo"

	"ffglitch/internal/logging"
	"ffglitch/internal/services"
)

// BuiltinPrefix selects a built-in transform explicitly.
const BuiltinPrefix = "builtin:"

// Loaded is a ready-to-run transform plus its lifecycle.
type Loaded struct {
	Name      string
	Source    string
	Features  []string
	Plugin    bool
	Transform Transform

	closer func()
}

// Supports reports whether the transform declared support for feature.
func (l *Loaded) Supports(feature string) bool {
	return len(l.Features) == 0 || lo.Contains(l.Features, feature)
}

// Close stops a plugin process. It is safe to call on built-ins.
func (l *Loaded) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	l.closer()
	l.closer = nil
	return nil
}

// Load resolves source to a transform. Accepted forms are builtin:<name>, a
// bare built-in name that does not name an existing file, or the path of a
// plugin executable. Problems resolving the source are configuration errors.
func Load(ctx context.Context, source string, logger *slog.Logger) (*Loaded, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transform", "load", "transform source is required", nil)
	}
	if name, ok := strings.CutPrefix(source, BuiltinPrefix); ok {
		return loadBuiltin(source, name)
	}
	if _, err := os.Stat(source); errors.Is(err, fs.ErrNotExist) {
		if _, ok := LookupBuiltin(source); ok {
			return loadBuiltin(source, source)
		}
	}
	return loadPlugin(ctx, source, logger)
}

func loadBuiltin(source, name string) (*Loaded, error) {
	b, ok := LookupBuiltin(name)
	if !ok {
		names := lo.Map(builtins, func(b Builtin, _ int) string { return b.Name })
		return nil, services.Wrap(services.ErrConfiguration, "transform", "load",
			fmt.Sprintf("unknown built-in %q (available: %s)", name, strings.Join(names, ", ")), nil)
	}
	return &Loaded{
		Name:      b.Name,
		Source:    source,
		Features:  b.Features,
		Transform: b.New(),
	}, nil
}

func loadPlugin(ctx context.Context, path string, logger *slog.Logger) (*Loaded, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transform", "load", "transform source not found", err)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "transform", "load",
			fmt.Sprintf("%s is not an executable plugin", path), nil)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  Handshake,
		Plugins:          pluginSet(Info{}, nil),
		Cmd:              exec.CommandContext(ctx, abs), //nolint:gosec
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolNetRPC},
		Logger:           logging.NewHCLogger(logger, "transform-plugin"),
	})

	rpcConn, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, services.Wrap(services.ErrConfiguration, "transform", "start plugin", abs, err)
	}
	raw, err := rpcConn.Dispense(pluginName)
	if err != nil {
		client.Kill()
		return nil, services.Wrap(services.ErrConfiguration, "transform", "dispense plugin", abs, err)
	}
	remote, ok := raw.(*rpcClient)
	if !ok {
		client.Kill()
		return nil, services.Wrap(services.ErrConfiguration, "transform", "dispense plugin",
			fmt.Sprintf("unexpected plugin type %T", raw), nil)
	}
	described, err := remote.Describe()
	if err != nil {
		client.Kill()
		return nil, services.Wrap(services.ErrConfiguration, "transform", "describe plugin", abs, err)
	}
	name := described.Name
	if name == "" {
		name = filepath.Base(abs)
	}
	logging.NewComponentLogger(logger, "transform").Info("transform plugin started",
		logging.String("plugin", name),
		logging.String("path", abs),
	)
	return &Loaded{
		Name:      name,
		Source:    path,
		Features:  described.Features,
		Plugin:    true,
		Transform: remote,
		closer:    client.Kill,
	}, nil
}
