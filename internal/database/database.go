package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const driverName = "pgx"

type DB struct {
	SQL *sqlx.DB
}

func New(ctx context.Context, databaseURL string, maxConns int, minConns int) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(minConns)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("database connected", "max_conns", maxConns, "min_conns", minConns)
	return &DB{SQL: db}, nil
}

// Wrap adopts an existing handle, e.g. one backed by sqlmock in tests.
func Wrap(db *sqlx.DB) *DB {
	return &DB{SQL: db}
}

func (db *DB) Close() {
	if db != nil && db.SQL != nil {
		_ = db.SQL.Close()
	}
}

func (db *DB) Health(ctx context.Context) error {
	if db == nil || db.SQL == nil {
		return fmt.Errorf("database is not initialized")
	}
	return db.SQL.PingContext(ctx)
}
