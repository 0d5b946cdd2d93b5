package refactor

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// renamer rewrites occurrences of an identifier in one file's source text,
// returning the new text and the replacement count.
type renamer interface {
	rename(ctx context.Context, src, oldName, newName string) (string, int, error)
}

// tokenRenamer performs token-exact renaming: the source is parsed with the
// language's tree-sitter grammar and only leaf tokens whose node type marks
// them as bare identifiers are replaced. String literals and comments parse
// as their own node types and are never touched. Replacements are spliced
// by byte offset, so all other formatting survives exactly.
type tokenRenamer struct {
	lang       *sitter.Language
	identTypes map[string]bool
}

func (t *tokenRenamer) rename(ctx context.Context, src, oldName, newName string) (string, int, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(t.lang)
	tree, err := parser.ParseCtx(ctx, nil, []byte(src))
	if err != nil {
		return "", 0, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return "", 0, fmt.Errorf("source did not tokenize cleanly")
	}

	type span struct{ start, end int }
	var spans []span

	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.ChildCount() == 0 {
			if t.identTypes[n.Type()] && n.Content([]byte(src)) == oldName {
				spans = append(spans, span{int(n.StartByte()), int(n.EndByte())})
			}
			continue
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			stack = append(stack, n.Child(i))
		}
	}
	if len(spans) == 0 {
		return src, 0, nil
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder
	prev := 0
	for _, s := range spans {
		b.WriteString(src[prev:s.start])
		b.WriteString(newName)
		prev = s.end
	}
	b.WriteString(src[prev:])
	return b.String(), len(spans), nil
}

// regexRenamer is the fallback when no grammar is registered for a file or
// tokenization fails: a whole-word replace over the raw text. Unlike the
// token renamer it will touch matches inside strings and comments.
type regexRenamer struct{}

func (regexRenamer) rename(_ context.Context, src, oldName, newName string) (string, int, error) {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(oldName) + `\b`)
	if err != nil {
		return "", 0, err
	}
	count := 0
	out := re.ReplaceAllStringFunc(src, func(string) string {
		count++
		return newName
	})
	return out, count, nil
}

// tokenRenamers maps file extensions to their grammar-backed renamer.
var tokenRenamers = map[string]*tokenRenamer{
	".go": {
		lang: golang.GetLanguage(),
		identTypes: map[string]bool{
			"identifier":         true,
			"type_identifier":    true,
			"field_identifier":   true,
			"package_identifier": true,
		},
	},
	".py": {
		lang:       python.GetLanguage(),
		identTypes: map[string]bool{"identifier": true},
	},
	".js": {
		lang: javascript.GetLanguage(),
		identTypes: map[string]bool{
			"identifier":          true,
			"property_identifier": true,
		},
	},
	".jsx": {
		lang: javascript.GetLanguage(),
		identTypes: map[string]bool{
			"identifier":          true,
			"property_identifier": true,
		},
	},
	".ts": {
		lang: typescript.GetLanguage(),
		identTypes: map[string]bool{
			"identifier":          true,
			"property_identifier": true,
			"type_identifier":     true,
		},
	},
	".tsx": {
		lang: typescript.GetLanguage(),
		identTypes: map[string]bool{
			"identifier":          true,
			"property_identifier": true,
			"type_identifier":     true,
		},
	},
}
