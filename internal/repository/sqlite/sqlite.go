// Package sqlite implements the repository interfaces on an embedded SQLite file.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no C compiler, no CGo, so the
// server cross-compiles like any other Go binary and tests can use ":memory:".
//
// One *DB implements SavedRepository, CollegeRepository and UserRepository.
// The (owner_id, name) uniqueness of saved records is a UNIQUE constraint in
// the schema; the service-level existence check only gives a friendlier
// error in the common case, the constraint closes the race.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/college-tracker/internal/catalog"
	"github.com/sakif/college-tracker/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

var registerFuncs sync.Once

// registerCaseFold installs casefold(text) so that catalog search folds case
// in SQL exactly the way catalog.Fold does in Go. SQLite's own LIKE only
// folds ASCII. Registration is process-wide, hence the sync.Once.
func registerCaseFold() error {
	var err error
	registerFuncs.Do(func() {
		err = sqlite.RegisterDeterministicScalarFunction("casefold", 1,
			func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
				switch v := args[0].(type) {
				case nil:
					return nil, nil
				case string:
					return catalog.Fold(v), nil
				case []byte:
					return catalog.Fold(string(v)), nil
				default:
					return v, nil
				}
			})
	})
	return err
}

// connParams is appended to every DSN. modernc applies each _pragma when
// it opens a connection, so every connection in the pool gets them, not
// just the one that happened to run an Exec.
//
//   - busy_timeout: wait up to 5s for a competing writer instead of
//     failing with SQLITE_BUSY.
//   - journal_mode(WAL): readers proceed while a write is in flight.
//   - _txlock=immediate: BeginTx takes the write lock up front, so a
//     read-then-write transaction never has to upgrade its lock mid-way.
const connParams = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

// dsn turns dbPath into a modernc connection string.
func dsn(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + connParams
	}
	return dbPath + "?" + connParams
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/tracker.db" → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests; lost on close)
func New(dbPath string) (*DB, error) {
	if err := registerCaseFold(); err != nil {
		return nil, fmt.Errorf("sqlite: registering casefold: %w", err)
	}

	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pooled connection to ":memory:" would get its own empty database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping is used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS colleges (
			id          TEXT PRIMARY KEY,
			instnm      TEXT NOT NULL,
			city        TEXT NOT NULL DEFAULT '',
			stabbr      TEXT NOT NULL DEFAULT '',
			zip         TEXT NOT NULL DEFAULT '',
			insturl     TEXT NOT NULL DEFAULT '',
			control     INTEGER,
			adm_rate    REAL,
			grad_rate   REAL,
			sat_avg     REAL,
			tuition     REAL,
			tuition_in  REAL,
			tuition_out REAL
		);
		CREATE INDEX IF NOT EXISTS idx_colleges_instnm ON colleges(instnm);
	`)
	if err != nil {
		return fmt.Errorf("creating colleges table: %w", err)
	}

	// UNIQUE(owner_id, name): a user cannot save the same college twice.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS saved_records (
			id                    TEXT PRIMARY KEY,
			owner_id              TEXT NOT NULL,
			name                  TEXT NOT NULL,
			deadline              TEXT NOT NULL DEFAULT '',
			location              TEXT NOT NULL DEFAULT '',
			website               TEXT NOT NULL DEFAULT '',
			notes                 TEXT NOT NULL DEFAULT '',
			application_status    TEXT NOT NULL DEFAULT 'Not Started',
			essay_status          TEXT NOT NULL DEFAULT 'Not Started',
			recommendation_status TEXT NOT NULL DEFAULT 'Not Started',
			extras                TEXT NOT NULL DEFAULT '[]',
			created_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at            DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (owner_id, name)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating saved_records table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			uid        TEXT PRIMARY KEY,
			email      TEXT,
			name       TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// checkAffected turns "no row matched" into notFound.
func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
