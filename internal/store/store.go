package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

//go:embed schema_postgres.sql
var postgresSchema string

// Schema version tracking (SQLite only):
// 0 - empty database
// 1 - initial revision store schema
const currentSchemaVersion = 1

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// Dialect selects the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config selects and locates the database.
type Config struct {
	Dialect Dialect
	// DSN is a file path (or ":memory:") for SQLite and a connection
	// string for PostgreSQL.
	DSN string
}

// Store provides durable storage for the revision model.
type Store struct {
	db      *sqlx.DB
	dialect Dialect
	flavor  sqlbuilder.Flavor
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//   - BEGIN IMMEDIATE for every transaction
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	return OpenConfig(context.Background(), Config{Dialect: DialectSQLite, DSN: path})
}

// OpenConfig opens the database described by cfg and applies the schema.
func OpenConfig(ctx context.Context, cfg Config) (*Store, error) {
	switch cfg.Dialect {
	case DialectSQLite, "":
		return openSQLite(ctx, cfg.DSN)
	case DialectPostgres:
		return openPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("open store: unknown dialect %q", cfg.Dialect)
	}
}

func openSQLite(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("open store: empty sqlite path")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_txlock=immediate&_loc=UTC"

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time. A single connection also
	// keeps ":memory:" databases alive for the life of the store.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, dialect: DialectSQLite, flavor: sqlbuilder.SQLite}, nil
}

func openPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db, dialect: DialectPostgres, flavor: sqlbuilder.PostgreSQL}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying handle for diagnostics and tests.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Dialect reports which backend the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// BeginTx starts a transaction. Read-only transactions are used for
// history reconstruction so that every query sees one snapshot.
func (s *Store) BeginTx(ctx context.Context, readOnly bool) (*Tx, error) {
	opts := &sql.TxOptions{ReadOnly: readOnly}
	if s.dialect == DialectPostgres && !readOnly {
		opts.Isolation = sql.LevelSerializable
	}
	tx, err := s.db.BeginTxx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &Tx{tx: tx, dialect: s.dialect, flavor: s.flavor}, nil
}

// InTx runs fn in a write transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(*Tx) error) error {
	return s.run(ctx, false, fn)
}

// InReadTx runs fn in a read-only transaction.
func (s *Store) InReadTx(ctx context.Context, fn func(*Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *Store) run(ctx context.Context, readOnly bool, fn func(*Tx) error) (err error) {
	tx, err := s.BeginTx(ctx, readOnly)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySQLiteSchema creates tables if they don't exist and records the
// schema version. This function is idempotent.
func applySQLiteSchema(ctx context.Context, db *sqlx.DB) error {
	var version int
	if err := db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.Get(&value, fmt.Sprintf("PRAGMA %s", name)); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
