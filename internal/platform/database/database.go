package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"guardx/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// Connect opens the operation log database for driver ("sqlite3" or "pgx").
func Connect(driver, dsn string) (*sql.DB, error) {
	if driver == config.DriverSQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for SQLite: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening %s database: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to %s database: %w", driver, err)
	}

	if err = InitializeSchema(db, driver); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Operation log database connected", "driver", driver)
	return db, nil
}

// InitializeSchema creates the operations table if it does not exist.
func InitializeSchema(db *sql.DB, driver string) error {
	timestampType := "TIMESTAMP"
	if driver == config.DriverPostgres {
		timestampType = "TIMESTAMPTZ"
	}
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS operations (
		id TEXT PRIMARY KEY,
		operation_id TEXT NOT NULL,
		operator TEXT NOT NULL,
		unit TEXT NOT NULL,
		targets_identified INTEGER NOT NULL,
		threat_level TEXT NOT NULL,
		model_used TEXT NOT NULL,
		processing_time DOUBLE PRECISION NOT NULL,
		filename TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at ` + timestampType + ` NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create operations table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_operations_created_at ON operations (created_at)`)
	if err != nil {
		return fmt.Errorf("failed to create operations index: %w", err)
	}
	return nil
}

func Close(db *sql.DB) {
	if db != nil {
		db.Close()
		slog.Info("Database connection closed")
	}
}
