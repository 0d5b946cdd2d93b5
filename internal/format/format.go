// Package format runs per-extension external formatters over files the
// applier has just written. Formatting is strictly best-effort: a missing
// binary or a failing run never fails the apply.
package format

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// RulesFile is the optional per-project override file, relative to the
// project root.
const RulesFile = ".term-coder/formatters.toml"

// rulesManifest is the on-disk shape of the override file:
//
//	[formatters]
//	go = ["gofmt", "-w"]
//	py = ["ruff", "format", "-q"]
//
// Keys are extensions without the leading dot; values are the command argv
// the file path gets appended to. An empty argv disables formatting for
// that extension.
type rulesManifest struct {
	Formatters map[string][]string `toml:"formatters"`
}

// Runner maps file extensions to formatter commands and invokes them.
type Runner struct {
	rules map[string][]string // ".go" -> {"gofmt", "-w"}
}

// defaultRules cover the languages the rename engine understands.
func defaultRules() map[string][]string {
	return map[string][]string{
		".go":  {"gofmt", "-w"},
		".py":  {"black", "-q"},
		".js":  {"prettier", "--write", "--log-level", "silent"},
		".jsx": {"prettier", "--write", "--log-level", "silent"},
		".ts":  {"prettier", "--write", "--log-level", "silent"},
		".tsx": {"prettier", "--write", "--log-level", "silent"},
	}
}

// NewRunner builds a Runner from the built-in rules merged with any
// overrides in <root>/.term-coder/formatters.toml. A missing override file
// is not an error; a malformed one is, so a typo does not silently disable
// formatting.
func NewRunner(root string) (*Runner, error) {
	rules := defaultRules()

	data, err := os.ReadFile(filepath.Join(root, RulesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return &Runner{rules: rules}, nil
		}
		return nil, fmt.Errorf("format: read %s: %w", RulesFile, err)
	}

	var manifest rulesManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("format: parse %s: %w", RulesFile, err)
	}
	for ext, argv := range manifest.Formatters {
		key := "." + strings.TrimPrefix(ext, ".")
		if len(argv) == 0 {
			delete(rules, key)
			continue
		}
		rules[key] = argv
	}
	return &Runner{rules: rules}, nil
}

// Format runs the formatter registered for the file's extension, if any.
// Failures are swallowed: formatting never invalidates an applied patch.
func (r *Runner) Format(ctx context.Context, path string) {
	if r == nil {
		return
	}
	argv, ok := r.rules[strings.ToLower(filepath.Ext(path))]
	if !ok || len(argv) == 0 {
		return
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return
	}
	args := append(append([]string{}, argv[1:]...), path)
	_ = exec.CommandContext(ctx, argv[0], args...).Run()
}

// Rule returns the argv registered for an extension, for display purposes.
func (r *Runner) Rule(ext string) ([]string, bool) {
	if r == nil {
		return nil, false
	}
	argv, ok := r.rules["."+strings.TrimPrefix(ext, ".")]
	return argv, ok
}
