package document

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// blockTags end the current line when opened or closed.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "tr": true, "td": true, "th": true,
	"table": true, "section": true, "article": true, "header": true,
	"footer": true, "nav": true, "dd": true, "dt": true, "figcaption": true,
	"title": true, "br": true, "hr": true,
}

// skipTags hold no readable text.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
}

// extractHTML returns visible text with one line per block element.
// Whitespace inside a block is collapsed to single spaces.
func extractHTML(blob []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(blob))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var (
		lines   []string
		current strings.Builder
	)
	flush := func() {
		if line := strings.Join(strings.Fields(current.String()), " "); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipTags[n.Data] {
				return
			}
			if blockTags[n.Data] {
				flush()
				defer flush()
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	flush()

	return strings.Join(lines, "\n"), nil
}
