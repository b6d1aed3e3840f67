package document

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown keeps markdown verbatim so the translator sees the markup,
// but rejects sources whose parsed tree holds no text.
func extractMarkdown(blob []byte) (string, error) {
	src := []byte(extractText(blob))
	if !hasMarkdownText(src) {
		return "", ErrEmpty
	}
	return string(src), nil
}

// hasMarkdownText reports whether the goldmark AST of src contains any
// non-blank text, code or raw HTML.
func hasMarkdownText(src []byte) bool {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			found = len(bytes.TrimSpace(node.Segment.Value(src))) > 0
		case *ast.String:
			found = len(bytes.TrimSpace(node.Value)) > 0
		case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock:
			found = linesHaveText(n, src)
		}
		if found {
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

func linesHaveText(n ast.Node, src []byte) bool {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if len(bytes.TrimSpace(seg.Value(src))) > 0 {
			return true
		}
	}
	return false
}
