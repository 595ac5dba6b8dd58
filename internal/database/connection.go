package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"github.com/nursing-narrative-mcp-server/internal/domain"
	"github.com/nursing-narrative-mcp-server/internal/feedback"
)

// Supported feedback store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps the pgxpool.Pool with a database/sql handle over the same pool.
type DB struct {
	Pool *pgxpool.Pool
	SQL  *sql.DB
	log  *logrus.Logger
}

// NewConnection creates a new database connection pool
func NewConnection(ctx context.Context, config domain.DatabaseConfig, logger *logrus.Logger) (*DB, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}

	poolConfig, err := pgxpool.ParseConfig(config.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	if config.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"host":      poolConfig.ConnConfig.Host,
		"port":      poolConfig.ConnConfig.Port,
		"database":  poolConfig.ConnConfig.Database,
		"max_conns": poolConfig.MaxConns,
		"min_conns": poolConfig.MinConns,
	}).Info("Database connection pool established")

	return &DB{
		Pool: pool,
		SQL:  stdlib.OpenDBFromPool(pool),
		log:  logger,
	}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.SQL != nil {
		db.SQL.Close()
	}
	if db.Pool != nil {
		db.Pool.Close()
		db.log.Info("Database connection pool closed")
	}
}

// Health checks the database connection health
func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Stats returns connection pool statistics
func (db *DB) Stats() *pgxpool.Stat {
	return db.Pool.Stat()
}

// OpenFeedbackStore opens the feedback store selected by config.Driver. The returned
// cleanup releases the store and any pool behind it.
func OpenFeedbackStore(ctx context.Context, config domain.DatabaseConfig, logger *logrus.Logger) (feedback.Store, func(), error) {
	switch config.Driver {
	case "", DriverSQLite:
		if config.SQLitePath == "" {
			return nil, nil, fmt.Errorf("database sqlite_path is required for the sqlite driver")
		}
		store, err := feedback.NewSQLiteStore(config.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite feedback store: %w", err)
		}
		logger.WithField("path", config.SQLitePath).Info("Using SQLite feedback store")
		return store, func() { store.Close() }, nil

	case DriverPostgres:
		db, err := NewConnection(ctx, config, logger)
		if err != nil {
			return nil, nil, err
		}
		store, err := feedback.NewPostgresStore(db.SQL)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("opening postgres feedback store: %w", err)
		}
		logger.Info("Using PostgreSQL feedback store")
		return store, db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %q", config.Driver)
	}
}
