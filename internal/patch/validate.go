package patch

import (
	"errors"
	"fmt"

	"github.com/sourcegraph/go-diff/diff"
)

// ErrMalformedDiff reports diff text that no parser recognizes as a unified
// diff. It is advisory: Analyze stays deliberately tolerant, but staging a
// proposal whose diff cannot be parsed at all is almost always a producer
// bug worth surfacing before the user reviews it.
var ErrMalformedDiff = errors.New("diff text is not a recognizable unified diff")

// CheckDiff verifies that non-empty diff text parses as at least one
// structurally valid file diff. Empty text is valid (an empty proposal).
func CheckDiff(diffText string) error {
	if diffText == "" {
		return nil
	}
	fds, err := diff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return fmt.Errorf("patch: %w: %v", ErrMalformedDiff, err)
	}
	if len(fds) == 0 {
		return ErrMalformedDiff
	}
	return nil
}
