// ABOUTME: Relational connection lifecycle for the sqlite and postgres backends
// ABOUTME: Wraps sqlx with a dialect, a monotonic clock, and short per-operation transactions
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// DB wraps a relational connection pool and the dialect it speaks
type DB struct {
	conn    *sqlx.DB
	dialect Dialect
	path    string
	clock   *clock
}

const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// OpenSQLite opens or creates a sqlite database at the given path
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	conn, err := sqlx.Open(SQLite.DriverName, path+"?"+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps
	// transactions from deadlocking against each other
	conn.SetMaxOpenConns(1)

	return finishOpen(ctx, conn, SQLite, path)
}

// OpenSQLiteInMemory creates an in-memory sqlite database (for testing)
func OpenSQLiteInMemory(ctx context.Context) (*DB, error) {
	conn, err := sqlx.Open(SQLite.DriverName, ":memory:?_pragma=foreign_keys(ON)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every connection to :memory: is a separate database
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	return finishOpen(ctx, conn, SQLite, ":memory:")
}

// OpenPostgres connects to a postgres server
func OpenPostgres(ctx context.Context, url string, maxOpenConns int) (*DB, error) {
	conn, err := sqlx.Open(Postgres.DriverName, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpenConns > 0 {
		conn.SetMaxOpenConns(maxOpenConns)
		conn.SetMaxIdleConns(maxOpenConns)
	}

	return finishOpen(ctx, conn, Postgres, "")
}

// New wraps an existing connection without touching the schema. Used with
// sql mocks and by callers that manage migrations themselves.
func New(conn *sql.DB, d Dialect) *DB {
	return &DB{
		conn:    sqlx.NewDb(conn, d.DriverName),
		dialect: d,
		clock:   newClock(),
	}
}

func finishOpen(ctx context.Context, conn *sqlx.DB, d Dialect, path string) (*DB, error) {
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, classify("ping database", err)
	}

	db := &DB{
		conn:    conn,
		dialect: d,
		path:    path,
		clock:   newClock(),
	}

	if err := db.Migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Migrate applies the dialect's schema; every statement is idempotent
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range db.dialect.Statements() {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return classify("migrate", err)
		}
	}
	return nil
}

// Ping checks the connection is alive
func (db *DB) Ping(ctx context.Context) error {
	return classify("ping", db.conn.PingContext(ctx))
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Dialect returns the backend dialect
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Path returns the sqlite file path, or "" for postgres
func (db *DB) Path() string {
	return db.path
}

// Conn returns the underlying sqlx handle for advanced usage
func (db *DB) Conn() *sqlx.DB {
	return db.conn
}

// withTx runs fn in one short transaction. fn must only use tx: with a
// single-connection pool any call through db.conn would block forever.
func (db *DB) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return classify(op, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(op, err)
	}
	return nil
}

// insertSpec describes one row insert for insertRow
type insertSpec struct {
	table   string
	columns string
	values  string
	args    []any
	key     string
	keyArg  any
}

// insertRow writes a row and loads it back into dest. Engines with
// RETURNING produce the row from the insert itself; the rest re-read it by
// primary key inside the same transaction.
func (db *DB) insertRow(ctx context.Context, tx *sqlx.Tx, dest any, spec insertSpec) error {
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", spec.table, spec.columns, spec.values)

	if db.dialect.Returning {
		return tx.GetContext(ctx, dest, db.dialect.Rebind(insert+" RETURNING "+spec.columns), spec.args...)
	}

	if _, err := tx.ExecContext(ctx, db.dialect.Rebind(insert), spec.args...); err != nil {
		return err
	}
	reselect := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", spec.columns, spec.table, spec.key)
	return tx.GetContext(ctx, dest, db.dialect.Rebind(reselect), spec.keyArg)
}
