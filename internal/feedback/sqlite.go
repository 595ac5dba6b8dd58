package feedback

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS format_feedback (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	fingerprint TEXT NOT NULL,
	narrative_excerpt TEXT NOT NULL DEFAULT '',
	unit_type TEXT NOT NULL DEFAULT '',
	detected_format TEXT NOT NULL,
	corrected_format TEXT NOT NULL,
	agreed INTEGER NOT NULL DEFAULT 0,
	confidence REAL NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (fingerprint, unit_type)
);
CREATE INDEX IF NOT EXISTS idx_format_feedback_detected ON format_feedback (detected_format);
CREATE INDEX IF NOT EXISTS idx_format_feedback_created_at ON format_feedback (created_at);
`

// SQLiteStore keeps verdicts in a local SQLite file. The lite MCP server uses it.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens dbPath in WAL mode, creating the file, its directory and the schema
// as needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and keeps PRAGMAs in effect.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000", sqliteSchema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	return &SQLiteStore{&sqlStore{db: db, d: sqliteDialect}}, nil
}
