package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/alimgiray/repolens/pkg/config"
	"github.com/alimgiray/repolens/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect selects placeholder style and schema flavour.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

// DB wraps *sql.DB so repositories can write `?` placeholders for both backends.
type DB struct {
	*sql.DB
	dialect Dialect
}

// Open connects to the configured backend, applies connection settings and runs the schema.
func Open(cfg config.DatabaseConfig) (*DB, error) {
	var (
		sqlDB   *sql.DB
		dialect Dialect
		err     error
	)

	switch cfg.Driver {
	case "", "sqlite3":
		dialect = SQLite
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn := cfg.Path + "?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_foreign_keys=ON&_busy_timeout=30000"
		sqlDB, err = sql.Open("sqlite3", dsn)
	case "pgx":
		dialect = Postgres
		sqlDB, err = sql.Open("pgx", cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, dialect: dialect}

	if dialect == SQLite {
		if err := db.optimizeSQLite(); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	if err := db.Migrate(context.Background()); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.WithField("driver", cfg.Driver).Info("Database connected")
	return db, nil
}

// Dialect reports which backend the connection talks to.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// optimizeSQLite applies the pragmas that are not expressible in the DSN
func (db *DB) optimizeSQLite() error {
	pragmas := []string{
		"PRAGMA temp_store=MEMORY",
		"PRAGMA mmap_size=268435456", // 256MB
	}
	for _, pragma := range pragmas {
		if _, err := db.DB.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return nil
}

// Migrate creates every table and index if missing.
func (db *DB) Migrate(ctx context.Context) error {
	statements := sqliteSchema
	if db.dialect == Postgres {
		statements = postgresSchema
	}

	for i, stmt := range statements {
		if _, err := db.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run schema statement %d: %w", i+1, err)
		}
	}

	logger.Debugf("Applied %d schema statements", len(statements))
	return nil
}

// Rebind rewrites `?` placeholders to `$n` for PostgreSQL.
func (db *DB) Rebind(query string) string {
	if db.dialect != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 10)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Rebind(query), args...)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Rebind(query), args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Rebind(query), args...)
}
