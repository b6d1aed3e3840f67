package format_test

// Notes:
// - Negative values are intentionally not tested: durations, sizes and
//   token counts shown to users are never negative, except where Tokens
//   documents it.
// - Cost rounding follows decimal.StringFixed (half away from zero).

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alnah/go-translate/internal/format"
)

// ---------------------------------------------------------------------------
// TestDuration - Formats duration as HH:MM:SS or MM:SS
// ---------------------------------------------------------------------------

func TestDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input time.Duration
		want  string
	}{
		// Zero value
		{name: "zero", input: 0, want: "00:00"},

		// Under a minute (MM:SS format)
		{name: "one second", input: time.Second, want: "00:01"},
		{name: "boundary: 59 seconds", input: 59 * time.Second, want: "00:59"},

		// Under an hour (MM:SS format)
		{name: "boundary: exactly 1 minute", input: time.Minute, want: "01:00"},
		{name: "typical: 5 minutes", input: 5 * time.Minute, want: "05:00"},
		{name: "mixed minutes and seconds", input: 5*time.Minute + 30*time.Second, want: "05:30"},
		{name: "boundary: 59 minutes 59 seconds", input: 59*time.Minute + 59*time.Second, want: "59:59"},

		// One hour or more (HH:MM:SS format)
		{name: "boundary: exactly 1 hour", input: time.Hour, want: "01:00:00"},
		{name: "1 hour 1 second", input: time.Hour + time.Second, want: "01:00:01"},
		{name: "typical: 1 hour 30 minutes", input: time.Hour + 30*time.Minute, want: "01:30:00"},
		{name: "full: 2 hours 15 minutes 45 seconds", input: 2*time.Hour + 15*time.Minute + 45*time.Second, want: "02:15:45"},

		// Realistic large value (long batch run)
		{name: "large realistic: 24 hours", input: 24 * time.Hour, want: "24:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := format.Duration(tt.input)
			if got != tt.want {
				t.Errorf("Duration(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestSize - Formats byte size for human display (MB, KB, bytes)
// ---------------------------------------------------------------------------

const (
	kb = 1024
	mb = 1024 * kb
	gb = 1024 * mb
)

func TestSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input int64
		want  string
	}{
		// Bytes (< 1 KB)
		{name: "zero", input: 0, want: "0 bytes"},
		{name: "one byte", input: 1, want: "1 byte"},
		{name: "typical: 512 bytes", input: 512, want: "512 bytes"},
		{name: "boundary: 1023 bytes", input: kb - 1, want: "1023 bytes"},

		// Kilobytes (>= 1 KB, < 1 MB)
		{name: "boundary: exactly 1 KB", input: kb, want: "1 KB"},
		{name: "typical: 512 KB", input: 512 * kb, want: "512 KB"},
		{name: "boundary: 1023 KB", input: mb - 1, want: "1023 KB"},

		// Megabytes (>= 1 MB)
		{name: "boundary: exactly 1 MB", input: mb, want: "1 MB"},
		{name: "typical: 50 MB", input: 50 * mb, want: "50 MB"},
		{name: "typical: 500 MB", input: 500 * mb, want: "500 MB"},

		// Realistic large value (large upload batch)
		{name: "large realistic: 10 GB", input: 10 * gb, want: "10240 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := format.Size(tt.input)
			if got != tt.want {
				t.Errorf("Size(%d) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestCost - 4 decimal places with a dollar sign
// ---------------------------------------------------------------------------

func TestCost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"0", "$0.0000"},
		{"0.007", "$0.0070"},
		{"0.000002", "$0.0000"},
		{"0.00005", "$0.0001"},
		{"2.469134", "$2.4691"},
		{"12", "$12.0000"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := format.Cost(decimal.RequireFromString(tt.input))
			if got != tt.want {
				t.Errorf("Cost(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestTokens - Thousands separators
// ---------------------------------------------------------------------------

func TestTokens(t *testing.T) {
	t.Parallel()

	tests := map[int]string{
		0:        "0",
		7:        "7",
		999:      "999",
		1000:     "1,000",
		3500:     "3,500",
		12345:    "12,345",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for in, want := range tests {
		if got := format.Tokens(in); got != want {
			t.Errorf("Tokens(%d) = %q, want %q", in, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// Fuzz Tests - Verify functions don't panic on arbitrary inputs
// ---------------------------------------------------------------------------

// FuzzDuration verifies Duration never panics and always returns non-empty.
func FuzzDuration(f *testing.F) {
	// Seed corpus with representative values
	f.Add(int64(0))
	f.Add(int64(time.Second))
	f.Add(int64(time.Minute))
	f.Add(int64(time.Hour))
	f.Add(int64(24 * time.Hour))

	f.Fuzz(func(t *testing.T, ns int64) {
		d := time.Duration(ns)
		if d < 0 {
			t.Skip("negative durations are undefined behavior")
		}
		got := format.Duration(d)
		if got == "" {
			t.Errorf("Duration(%v) returned empty string", d)
		}
	})
}

// FuzzSize verifies Size never panics and always returns non-empty.
func FuzzSize(f *testing.F) {
	f.Add(int64(0))
	f.Add(int64(1))
	f.Add(int64(kb))
	f.Add(int64(mb))
	f.Add(int64(gb))
	f.Add(int64(10 * gb))

	f.Fuzz(func(t *testing.T, bytes int64) {
		if bytes < 0 {
			t.Skip("negative sizes are undefined behavior")
		}
		got := format.Size(bytes)
		if got == "" {
			t.Errorf("Size(%d) returned empty string", bytes)
		}
	})
}
