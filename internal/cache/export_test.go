package cache

// Test-only exports. This file is compiled only during `go test`.

// JournalMode reports the journal mode of the SQLite connection.
func JournalMode(s *SQLite) (string, error) {
	var mode string
	err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	return mode, err
}
