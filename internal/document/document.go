// Package document extracts plain text from uploaded files.
package document

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Sentinel errors wrapped by ExtractionError.
var (
	// ErrEmpty indicates the file has no textual content.
	ErrEmpty = errors.New("no text content")

	// ErrUnsupported indicates a file extension with no extractor.
	ErrUnsupported = errors.New("unsupported file type")
)

// Type is the kind of source document.
type Type string

const (
	Text     Type = "text"
	Markdown Type = "markdown"
	Docx     Type = "docx"
	PDF      Type = "pdf"
	HTML     Type = "html"
)

// extensions maps lowercase file extensions to types.
var extensions = map[string]Type{
	".txt":      Text,
	".text":     Text,
	".md":       Markdown,
	".markdown": Markdown,
	".docx":     Docx,
	".pdf":      PDF,
	".html":     HTML,
	".htm":      HTML,
}

// TypeFromName infers the document type from the file extension,
// ignoring case.
func TypeFromName(name string) (Type, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensions[ext]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%q: %w", ext, ErrUnsupported)
}

// SupportedExtensions returns the accepted extensions.
func SupportedExtensions() []string {
	return []string{".txt", ".md", ".docx", ".pdf", ".html"}
}

// Document is the extracted text of one uploaded file. It is not modified
// after extraction.
type Document struct {
	Name    string
	Type    Type
	RawText string
}

// ExtractionError reports a file whose text could not be read.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("could not read text from %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Load infers the type of name and extracts its text.
// Every failure is an *ExtractionError.
func Load(name string, blob []byte) (Document, error) {
	t, err := TypeFromName(name)
	if err != nil {
		return Document{}, &ExtractionError{Filename: name, Err: err}
	}
	text, err := Extract(blob, name, t)
	if err != nil {
		return Document{}, err
	}
	return Document{Name: name, Type: t, RawText: text}, nil
}

// Extract returns the plain text of blob interpreted as type t.
// Empty or whitespace-only results are reported as ErrEmpty.
func Extract(blob []byte, name string, t Type) (text string, err error) {
	defer func() {
		// The PDF reader panics on some malformed inputs.
		if r := recover(); r != nil {
			text, err = "", &ExtractionError{Filename: name, Err: fmt.Errorf("malformed %s: %v", t, r)}
		}
	}()

	switch t {
	case Text:
		text = extractText(blob)
	case Markdown:
		text, err = extractMarkdown(blob)
	case Docx:
		text, err = extractDocx(blob)
	case PDF:
		text, err = extractPDF(blob)
	case HTML:
		text, err = extractHTML(blob)
	default:
		err = fmt.Errorf("%q: %w", t, ErrUnsupported)
	}
	if err != nil {
		return "", &ExtractionError{Filename: name, Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &ExtractionError{Filename: name, Err: ErrEmpty}
	}
	return text, nil
}
