package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// writeFileAtomic publishes data at path without ever replacing an existing
// file. The bytes go to a temp file in the same directory first, which is
// then hard-linked into place, so readers never see a partial translation.
func writeFileAtomic(path string, data []byte) error {
	if _, err := os.Lstat(path); err == nil {
		return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	// #nosec G302 -- translated documents are shared like their sources
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	// Link fails if path appeared since the check above.
	if err := os.Link(tmpName, path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}
	return nil
}
