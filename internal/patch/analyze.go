package patch

import (
	"regexp"
	"strings"
)

// fileHeaderRe matches the "+++ b/<path>" header that opens each per-file
// section of a unified diff.
var fileHeaderRe = regexp.MustCompile(`^\+\+\+ b/(.+)$`)

// Analyze scans unified diff text and returns the affected file list in
// first-appearance order (deduplicated) together with add/remove line
// counts. It is deliberately tolerant: diffs frequently arrive from a model
// rather than from our own Builder, so stray prose before the first file
// header is ignored, and hunk (@@) and file (---/+++) header lines never
// count as additions or removals.
func Analyze(diffText string) ([]string, Impact) {
	var (
		files   []string
		seen    = map[string]bool{}
		impact  Impact
		current string
	)

	for _, line := range strings.Split(diffText, "\n") {
		if m := fileHeaderRe.FindStringSubmatch(line); m != nil {
			current = strings.TrimSpace(m[1])
			if current != "" && !seen[current] {
				seen[current] = true
				files = append(files, current)
			}
			continue
		}
		if current == "" {
			continue // content before any +++ header
		}
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			// File headers for the next section.
		case strings.HasPrefix(line, "+"):
			impact.LinesAdded++
		case strings.HasPrefix(line, "-"):
			impact.LinesRemoved++
		}
	}

	impact.FilesChanged = len(files)
	return files, impact
}
