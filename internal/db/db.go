package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// ErrUnavailable marks every failure to reach or use the store
var ErrUnavailable = errors.New("store unavailable")

// Dialect names the SQL driver in use
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
	dialect Dialect
}

// Options configures how the store is opened
type Options struct {
	// Driver is "sqlite3" (default) or "postgres"
	Driver string
	// DSN is a file path for sqlite3 and a connection URL for postgres
	DSN string

	ConnectAttempts int
	ConnectDelay    time.Duration
	ConnectTimeout  time.Duration
}

// DefaultDataDir returns the default data directory path
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".planner"
	}
	return filepath.Join(home, ".local", "share", "planner")
}

// DefaultDBPath returns the default database file path
func DefaultDBPath() string {
	return filepath.Join(DefaultDataDir(), "planner.db")
}

// Open opens a database connection, retrying the first contact, and runs migrations
func Open(ctx context.Context, opts Options) (*DB, error) {
	dialect := Dialect(opts.Driver)
	if dialect == "" {
		dialect = DialectSQLite
	}
	if opts.ConnectAttempts < 1 {
		opts.ConnectAttempts = 3
	}
	if opts.ConnectDelay <= 0 {
		opts.ConnectDelay = time.Second
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	var dsn string
	switch dialect {
	case DialectSQLite:
		path := opts.DSN
		if path == "" {
			path = DefaultDBPath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", path)
	case DialectPostgres:
		dsn = opts.DSN
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	sqlDB, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w: %w", ErrUnavailable, err)
	}

	if dialect == DialectSQLite {
		// SQLite only supports one writer
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	backoff := retry.WithMaxRetries(uint64(opts.ConnectAttempts-1), retry.NewConstant(opts.ConnectDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w: %w",
			opts.ConnectAttempts, ErrUnavailable, err)
	}

	db := &DB{DB: sqlDB, dialect: dialect}

	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// migrate runs database migrations using embedded SQL files
func (db *DB) migrate() error {
	goose.SetLogger(log.New(io.Discard, "", 0))
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(string(db.dialect)); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	dir := "migrations/sqlite"
	if db.dialect == DialectPostgres {
		dir = "migrations/postgres"
	}
	if err := goose.Up(db.DB, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Dialect returns the SQL dialect of the connection
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Transaction executes fn within a transaction. The transaction is rolled back
// when fn returns an error or panics and committed otherwise.
func (db *DB) Transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

// Query runs a read with ?-placeholders against the store
func (db *DB) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	rows, err := db.DB.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, unavailable("query", err)
	}
	return rows, nil
}

// QueryRow runs a single-row read with ?-placeholders
func (db *DB) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.rebind(query), args...)
}

// Exec runs a write with ?-placeholders in its own transaction and returns the affected row count
func (db *DB) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var affected int64
	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, db.rebind(query), args...)
		if err != nil {
			return unavailable("exec", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return unavailable("rows affected", err)
		}
		return nil
	})
	return affected, err
}

// execTx runs a write inside an existing transaction
func (db *DB) execTx(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (int64, error) {
	res, err := tx.ExecContext(ctx, db.rebind(query), args...)
	if err != nil {
		return 0, unavailable("exec", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("rows affected", err)
	}
	return n, nil
}

// insertReturningID runs an INSERT ... RETURNING id inside tx
func (db *DB) insertReturningID(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := tx.QueryRowContext(ctx, db.rebind(query), args...).Scan(&id); err != nil {
		return 0, unavailable("insert", err)
	}
	return id, nil
}

// timeArg converts t into a parameter that compares correctly with the
// store-assigned timestamps of the dialect.
func (db *DB) timeArg(t time.Time) interface{} {
	if db.dialect == DialectSQLite {
		// CURRENT_TIMESTAMP is stored as "YYYY-MM-DD HH:MM:SS" in UTC
		return t.UTC().Format("2006-01-02 15:04:05")
	}
	return t
}

// rebind rewrites ? placeholders to $n for postgres
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
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

func unavailable(op string, err error) error {
	if errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
