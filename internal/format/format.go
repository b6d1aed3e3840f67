// Package format renders numbers for terminal and HTTP output.
package format

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Duration formats a duration as HH:MM:SS or MM:SS.
func Duration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Size formats a size in bytes for human display.
// Uses MB for sizes >= 1MB, KB otherwise.
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%d MB", bytes/mb)
	case bytes >= kb:
		return fmt.Sprintf("%d KB", bytes/kb)
	case bytes == 1:
		return "1 byte"
	}
	return fmt.Sprintf("%d bytes", bytes)
}

// Cost formats a USD amount with 4 decimal places: "$0.0070".
func Cost(d decimal.Decimal) string {
	return "$" + d.StringFixed(4)
}

// Tokens formats a token count with thousands separators: "12,345".
func Tokens(n int) string {
	s := strconv.Itoa(n)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
