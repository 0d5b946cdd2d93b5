package apply

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// TestResult carries the failed/passed counts from one test run.
type TestResult struct {
	Failed int `json:"failed"`
	Passed int `json:"passed"`
}

// TestRunner executes the project's test suite and reports counts. The
// validate loop only looks at Failed to decide whether to roll back.
type TestRunner interface {
	Run(ctx context.Context) (TestResult, error)
}

// TestRunnerFunc adapts a function to the TestRunner interface.
type TestRunnerFunc func(ctx context.Context) (TestResult, error)

// Run implements TestRunner.
func (f TestRunnerFunc) Run(ctx context.Context) (TestResult, error) {
	return f(ctx)
}

// CommandTestRunner runs a configured shell command (default
// "go test ./...") and extracts failed/passed counts from its output.
type CommandTestRunner struct {
	Command string // e.g. "go test ./..." or "pytest -q"
	Dir     string // working directory
}

var (
	pytestFailedRe = regexp.MustCompile(`(\d+) failed`)
	pytestPassedRe = regexp.MustCompile(`(\d+) passed`)
)

// Run executes the command and parses its combined output. It understands
// pytest-style summaries ("2 failed, 40 passed") and go test verbose
// markers ("--- FAIL:", "--- PASS:"). When neither format appears, the
// process exit status decides: non-zero counts as one failure, zero as one
// pass. Command start failures are reported as a test failure rather than
// an error so the validate loop still rolls back.
func (r *CommandTestRunner) Run(ctx context.Context) (TestResult, error) {
	parts := strings.Fields(r.Command)
	if len(parts) == 0 {
		parts = []string{"go", "test", "./..."}
	}

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = r.Dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	runErr := cmd.Run()

	result := parseTestOutput(out.String())
	if result.Failed == 0 && result.Passed == 0 {
		if runErr != nil {
			result.Failed = 1
		} else {
			result.Passed = 1
		}
	}
	return result, nil
}

// parseTestOutput extracts counts from pytest summaries or go test verbose
// output. Zero values mean the format was not recognized.
func parseTestOutput(out string) TestResult {
	var result TestResult

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "--- FAIL:") {
			result.Failed++
		}
		if strings.HasPrefix(line, "--- PASS:") {
			result.Passed++
		}
	}
	if result.Failed > 0 || result.Passed > 0 {
		return result
	}

	if m := pytestFailedRe.FindStringSubmatch(out); m != nil {
		result.Failed, _ = strconv.Atoi(m[1])
	}
	if m := pytestPassedRe.FindStringSubmatch(out); m != nil {
		result.Passed, _ = strconv.Atoi(m[1])
	}
	return result
}
