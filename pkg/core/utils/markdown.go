package utils

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractCodeBlock returns the content of the first fenced code block of a
// Markdown document, parsed with Goldmark. Blocks tagged json, hjson or with
// no tag qualify; ok is false when there is none.
func ExtractCodeBlock(source []byte) (string, bool) {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var (
		found string
		ok    bool
	)
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fb, isFence := n.(*ast.FencedCodeBlock)
		if !isFence {
			return ast.WalkContinue, nil
		}
		switch strings.ToLower(string(fb.Language(source))) {
		case "", "json", "hjson", "json5":
		default:
			return ast.WalkContinue, nil
		}

		var b strings.Builder
		lines := fb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(source))
		}
		found, ok = b.String(), true
		return ast.WalkStop, nil
	})
	return found, ok
}
