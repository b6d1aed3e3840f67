package document

import (
	"strings"
)

const bom = "\ufeff"

// extractText decodes UTF-8, dropping invalid byte sequences and a leading
// byte order mark.
func extractText(blob []byte) string {
	s := strings.ToValidUTF8(string(blob), "")
	return strings.TrimPrefix(s, bom)
}
