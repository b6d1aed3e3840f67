// Package output builds the files handed back to the user: one translated
// file per document, and a zip bundle when there are several.
package output

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fumiama/go-docx"
)

// BundleName is the file name of the zip archive.
const BundleName = "translations.zip"

// suffix is appended to the base name of every translated file.
const suffix = "_translated"

// File is a named output blob.
type File struct {
	Name string
	Data []byte
}

// Name returns the output file name for original: base + "_translated" +
// ext for .txt, .md and .docx (extension kept as given), ".txt" otherwise.
func Name(original string) string {
	base := filepath.Base(original)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	switch strings.ToLower(ext) {
	case ".txt", ".md", ".docx":
		return stem + suffix + ext
	}
	return stem + suffix + ".txt"
}

// Render encodes translated text for original's output type and returns
// the bytes and file name. DOCX output has one paragraph per line.
func Render(translated, original string) ([]byte, string, error) {
	name := Name(original)
	if strings.ToLower(filepath.Ext(name)) != ".docx" {
		return []byte(translated), name, nil
	}

	data, err := renderDocx(translated)
	if err != nil {
		return nil, "", fmt.Errorf("render %s: %w", name, err)
	}
	return data, name, nil
}

func renderDocx(translated string) ([]byte, error) {
	w := docx.New().WithDefaultTheme()
	for _, line := range strings.Split(translated, "\n") {
		w.AddParagraph().AddText(line)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Bundle packs files into a zip archive. Duplicate names get a numeric
// suffix ("a_translated (2).txt") so no entry is shadowed.
func Bundle(files []File) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	seen := make(map[string]int, len(files))
	for _, f := range files {
		name := uniqueName(f.Name, seen)
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("add %s to bundle: %w", name, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write %s to bundle: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close bundle: %w", err)
	}
	return buf.Bytes(), nil
}

func uniqueName(name string, seen map[string]int) string {
	seen[name]++
	n := seen[name]
	if n == 1 {
		return name
	}
	ext := filepath.Ext(name)
	candidate := strings.TrimSuffix(name, ext) + " (" + strconv.Itoa(n) + ")" + ext
	// The candidate itself may collide with a later literal name.
	return uniqueName(candidate, seen)
}
