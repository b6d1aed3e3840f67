package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
)

// extractDocx returns the body paragraphs joined by newlines. Empty
// paragraphs are kept so blank lines survive translation.
func extractDocx(blob []byte) (string, error) {
	doc, err := docx.Parse(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		lines = append(lines, paragraphText(para))
	}
	return strings.Join(lines, "\n"), nil
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return buf.String()
}
