package document

import (
	"bytes"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// extractPDF returns the plain text of every page joined by newlines.
// Pages without extractable text contribute an empty line.
func extractPDF(blob []byte) (string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}
