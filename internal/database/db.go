package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/streed/smart-notes/internal/config"
	"github.com/streed/smart-notes/internal/constants"
	"github.com/streed/smart-notes/internal/logger"
	"github.com/streed/smart-notes/internal/migrations"
)

// DB owns the SQLite connection pool. It is created once at startup and
// handed to everything that needs storage.
type DB struct {
	conn       *sql.DB
	cfg        *config.Config
	vecVersion string
}

func New(cfg *config.Config) (*DB, error) {
	sqlite_vec.Auto()

	dbPath := cfg.GetDatabasePath()
	if err := os.MkdirAll(filepath.Dir(dbPath), constants.DirMode); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	logger.Debug("Database path: %s", dbPath)

	conn, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initialize(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

func (db *DB) initialize() error {
	if err := db.conn.QueryRow("SELECT vec_version()").Scan(&db.vecVersion); err != nil {
		logger.Debug("sqlite-vec not available: %v", err)
	} else {
		logger.Debug("sqlite-vec version %s loaded", db.vecVersion)
	}

	return migrations.NewMigrationRunner(db.conn).RunMigrations()
}

// VecVersion returns the loaded sqlite-vec version, or "" if the extension
// is unavailable.
func (db *DB) VecVersion() string {
	return db.vecVersion
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Conn() *sql.DB {
	return db.conn
}
