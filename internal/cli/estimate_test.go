package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-translate/internal/document"
)

// Notes:
// - The mock tokenizer factory returns tokenizer.Heuristic (runes/3), so
//   token counts below are computed from character counts.

func TestRunEstimate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeTestFile(t, dir, "a.txt", strings.Repeat("x", 3000))
	b := writeTestFile(t, dir, "b.txt", strings.Repeat("y", 300))

	stdout := &syncBuffer{}
	env, mocks := testEnv(withTestStdout(stdout), withTestGetenv(staticEnv(nil)))

	if err := runEstimate(context.Background(), env, []string{a, b}, "", ""); err != nil {
		t.Fatalf("runEstimate() error = %v", err)
	}

	out := stdout.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}
	for i, want := range []string{"a.txt", "b.txt", "Total"} {
		if !strings.HasPrefix(lines[i], want) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], want)
		}
	}
	if !contains(lines[0], "1,000 tokens") {
		t.Errorf("line = %q, want 1,000 tokens", lines[0])
	}
	if !contains(lines[2], "1,100 tokens") {
		t.Errorf("total = %q, want 1,100 tokens", lines[2])
	}

	if len(mocks.clients.Settings()) != 0 {
		t.Error("estimate created a provider client")
	}
}

func TestRunEstimate_ModelFlag(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeTestFile(t, dir, "a.txt", "hello")

	env, mocks := testEnv()
	if err := runEstimate(context.Background(), env, []string{in}, "", "gpt-4o"); err != nil {
		t.Fatalf("runEstimate() error = %v", err)
	}
	if models := mocks.tokenizers.Models(); len(models) != 1 || models[0] != "gpt-4o" {
		t.Errorf("tokenizer models = %v, want [gpt-4o]", models)
	}
}

func TestRunEstimate_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		env, _ := testEnv()
		err := runEstimate(context.Background(), env, []string{filepath.Join(t.TempDir(), "nope.txt")}, "", "")
		if !errors.Is(err, ErrFileNotFound) {
			t.Errorf("error = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("unsupported file reported", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		good := writeTestFile(t, dir, "a.txt", "hello")
		bad := writeTestFile(t, dir, "image.png", "\x89PNG")

		stdout, stderr := &syncBuffer{}, &syncBuffer{}
		env, _ := testEnv(withTestStdout(stdout), withTestStderr(stderr))

		err := runEstimate(context.Background(), env, []string{good, bad}, "", "")
		if !errors.Is(err, document.ErrUnsupported) {
			t.Errorf("error = %v, want ErrUnsupported", err)
		}
		if !contains(stdout.String(), "a.txt") {
			t.Errorf("stdout = %q, want the readable document", stdout.String())
		}
		if !contains(stderr.String(), "Error: image.png:") {
			t.Errorf("stderr = %q", stderr.String())
		}
	})
}
