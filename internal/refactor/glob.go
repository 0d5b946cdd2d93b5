package refactor

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultIncludes matches the source languages the rename engine has
// tokenizers for, plus a few text formats worth regex-renaming.
var DefaultIncludes = []string{
	"**/*.go",
	"**/*.py",
	"**/*.js",
	"**/*.jsx",
	"**/*.ts",
	"**/*.tsx",
}

// DefaultExcludes keeps generated and third-party trees out of renames.
var DefaultExcludes = []string{
	".git/**",
	".term-coder/**",
	"vendor/**",
	"node_modules/**",
	"**/testdata/**",
}

// globMatcher matches slash-separated relative paths against include and
// exclude patterns. Patterns use glob syntax where * matches within a path
// segment, ? matches one non-separator character, and ** spans separators.
// Empty includes means "include everything".
type globMatcher struct {
	includes []*regexp.Regexp
	excludes []*regexp.Regexp
}

func newGlobMatcher(includes, excludes []string) (*globMatcher, error) {
	m := &globMatcher{}
	for _, p := range includes {
		re, err := compileGlob(p)
		if err != nil {
			return nil, fmt.Errorf("refactor: include pattern %q: %w", p, err)
		}
		m.includes = append(m.includes, re)
	}
	for _, p := range excludes {
		re, err := compileGlob(p)
		if err != nil {
			return nil, fmt.Errorf("refactor: exclude pattern %q: %w", p, err)
		}
		m.excludes = append(m.excludes, re)
	}
	return m, nil
}

// Match reports whether the slash-separated relative path is selected.
func (m *globMatcher) Match(rel string) bool {
	included := len(m.includes) == 0
	for _, re := range m.includes {
		if re.MatchString(rel) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, re := range m.excludes {
		if re.MatchString(rel) {
			return false
		}
	}
	return true
}

// compileGlob translates one glob pattern into an anchored regexp.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					b.WriteString(`(?:.*/)?`) // "**/" also matches zero directories
					i += 2
				} else {
					b.WriteString(`.*`)
					i++
				}
			} else {
				b.WriteString(`[^/]*`)
			}
		case '?':
			b.WriteString(`[^/]`)
		case '[':
			end := strings.IndexByte(pattern[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated character class")
			}
			b.WriteString(pattern[i : i+end+1])
			i += end
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
