package feedback

import (
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore keeps verdicts in the shared Postgres database. The schema comes from
// migrations/.
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore wraps an open pool and verifies it is reachable.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{&sqlStore{db: db, d: postgresDialect}}, nil
}
