package patch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// DefaultContextLines is the number of unchanged context lines emitted
// around each hunk when the caller does not override it.
const DefaultContextLines = 3

// Builder renders a changes map (relative path -> full new content) into
// unified diff text against the current working tree.
type Builder struct {
	Root    string // project root; paths resolving outside it are skipped
	Context int    // context lines per hunk; <= 0 means DefaultContextLines
}

// Build produces one unified diff covering every entry in changes. Per file:
// the on-disk content is the "a" side (absent, binary, or non-UTF-8 files
// read as empty), the proposed content is the "b" side, and headers use the
// a/<path> b/<path> convention. Files with no textual difference contribute
// nothing, and per-file sections are separated by a blank line, so an empty
// or no-op changes map yields "".
//
// Paths that escape the project root are silently dropped: they produce no
// diff output and the filesystem is never touched for them.
func (b *Builder) Build(changes map[string]string) (string, error) {
	ctx := b.Context
	if ctx <= 0 {
		ctx = DefaultContextLines
	}

	// Deterministic output regardless of map iteration order.
	paths := make([]string, 0, len(changes))
	for p := range changes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var sections []string
	for _, rel := range paths {
		abs, ok := resolveUnder(b.Root, rel)
		if !ok {
			continue
		}

		original := readTextOrEmpty(abs)
		proposed := changes[rel]
		if original == proposed {
			continue
		}

		ud := difflib.UnifiedDiff{
			A:        splitLines(original),
			B:        splitLines(proposed),
			FromFile: "a/" + filepath.ToSlash(rel),
			ToFile:   "b/" + filepath.ToSlash(rel),
			Context:  ctx,
		}
		text, err := difflib.GetUnifiedDiffString(ud)
		if err != nil {
			return "", fmt.Errorf("patch: diff %s: %w", rel, err)
		}
		if text == "" {
			continue
		}
		sections = append(sections, strings.TrimRight(text, "\n"))
	}

	if len(sections) == 0 {
		return "", nil
	}
	return strings.Join(sections, "\n\n") + "\n", nil
}

// resolveUnder joins rel onto root and reports whether the result stays
// inside root. The check is lexical; the returned path is absolute.
func resolveUnder(root, rel string) (string, bool) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(filepath.Join(rootAbs, rel))
	if err != nil {
		return "", false
	}
	inside, err := filepath.Rel(rootAbs, abs)
	if err != nil {
		return "", false
	}
	if inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}

// readTextOrEmpty returns the file's content, or "" when the file is
// missing, unreadable, or not decodable text (binary originals diff as if
// the file were new).
func readTextOrEmpty(abs string) string {
	data, err := os.ReadFile(abs)
	if err != nil {
		return ""
	}
	if !utf8.Valid(data) || bytes.ContainsRune(data, 0) {
		return ""
	}
	return string(data)
}

// splitLines splits content into lines keeping the trailing newline on each
// element, which difflib needs to produce well-formed hunks.
func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
