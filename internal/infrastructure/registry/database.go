// Package registry stores fitted-model metadata for session-scoped
// comparison. The default backing store is an in-memory SQLite database, so
// nothing a user uploads ever reaches disk; pointing REGISTRY_DB_URL at a
// libsql instance is an explicit operator opt-in.
package registry

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Database wraps the registry connection.
type Database struct {
	Conn     *sql.DB
	UseTurso bool
}

// Config selects the registry backing store.
type Config struct {
	// URL is a libsql URL. Empty means in-memory SQLite.
	URL       string
	AuthToken string
}

// NewDatabase opens the registry store and creates the schema.
func NewDatabase(cfg *Config) (*Database, error) {
	var conn *sql.DB
	var err error
	var useTurso bool

	if cfg != nil && cfg.URL != "" {
		connStr := cfg.URL
		if cfg.AuthToken != "" {
			connStr = cfg.URL + "?authToken=" + cfg.AuthToken
		}
		conn, err = sql.Open("libsql", connStr)
		if err != nil {
			return nil, fmt.Errorf("libsql connection failed: %w", err)
		}
		if err := conn.Ping(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("libsql ping failed: %w", err)
		}
		useTurso = true
	} else {
		// shared cache keeps the in-memory database alive across the pool's
		// connections for the process lifetime
		conn, err = sql.Open("sqlite3", "file:foresight_registry?mode=memory&cache=shared")
		if err != nil {
			return nil, fmt.Errorf("sqlite connection failed: %w", err)
		}
		// A second physical connection to :memory: would see a different
		// database; pin the pool to one.
		conn.SetMaxOpenConns(1)
	}

	db := &Database{Conn: conn, UseTurso: useTurso}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func (db *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS models (
		model_id     TEXT PRIMARY KEY,
		session_id   TEXT NOT NULL,
		label        TEXT NOT NULL,
		config_json  TEXT NOT NULL,
		metrics_json TEXT NOT NULL,
		horizon      INTEGER NOT NULL,
		growth       TEXT NOT NULL,
		created_at   TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_models_session ON models(session_id);
	`
	_, err := db.Conn.Exec(schema)
	return err
}

// Close closes the registry connection.
func (db *Database) Close() error {
	if db.Conn != nil {
		return db.Conn.Close()
	}
	return nil
}

// ConnectionInfo describes the backing store for logs and health checks.
func (db *Database) ConnectionInfo() string {
	if db.UseTurso {
		return "libsql (remote)"
	}
	return "sqlite (in-memory)"
}
