package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Tool is one of the FFglitch binaries ffglitch can drive.
type Tool struct {
	Name        string
	Description string
	Optional    bool
}

var (
	// FFedit exports and applies feature documents; every run needs it.
	FFedit = Tool{Name: "ffedit", Description: "Exports and applies bitstream feature documents"}
	// FFgac re-encodes clips into streams that glitch well.
	FFgac = Tool{Name: "ffgac", Description: "Re-encodes clips into glitch-friendly bitstreams", Optional: true}
	// FFplay previews glitched output.
	FFplay = Tool{Name: "ffplay", Description: "Previews glitched output", Optional: true}
)

// Tools lists every binary in the order doctor reports them.
func Tools() []Tool {
	return []Tool{FFedit, FFgac, FFplay}
}

// Status reports where a tool resolved to, if anywhere.
type Status struct {
	Tool
	Command   string
	Available bool
	Detail    string
}

// Resolve locates tool. configured overrides the tool's name; a value with a
// path separator is used as is. A bare name is looked up next to the running
// ffglitch executable first, since release archives ship the FFglitch
// binaries side by side, then on PATH.
func Resolve(tool Tool, configured string) Status {
	status := Status{Tool: tool}

	name := strings.TrimSpace(configured)
	if name == "" {
		name = tool.Name
	}

	if strings.ContainsRune(name, os.PathSeparator) {
		status.Command = name
		info, err := os.Stat(name)
		switch {
		case err != nil:
			status.Detail = fmt.Sprintf("binary %q not found", name)
		case !isExecutable(info):
			status.Detail = fmt.Sprintf("%q is not executable", name)
		default:
			status.Available = true
		}
		return status
	}

	if self, err := os.Executable(); err == nil {
		if candidate, ok := siblingCandidate(self, name); ok {
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				status.Command = candidate
				status.Available = true
				return status
			}
		}
	}

	if resolved, err := exec.LookPath(name); err == nil {
		status.Command = resolved
		status.Available = true
		return status
	}

	status.Command = name
	status.Detail = fmt.Sprintf("binary %q not found", name)
	return status
}

// ResolveFFedit resolves ffedit, honouring a configured binary.
func ResolveFFedit(configured string) Status {
	return Resolve(FFedit, configured)
}

// ResolveAll resolves every tool. ffeditBinary is the configured ffedit; the
// optional tools always resolve by name.
func ResolveAll(ffeditBinary string) []Status {
	tools := Tools()
	results := make([]Status, 0, len(tools))
	for _, tool := range tools {
		configured := ""
		if tool.Name == FFedit.Name {
			configured = ffeditBinary
		}
		results = append(results, Resolve(tool, configured))
	}
	return results
}

func siblingCandidate(executable, name string) (string, bool) {
	if executable == "" {
		return "", false
	}
	if runtime.GOOS == "windows" && !strings.HasSuffix(name, ".exe") {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(executable), name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
