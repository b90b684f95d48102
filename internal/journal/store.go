package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SchemaVersion is the user_version stamped on journals this package writes.
const SchemaVersion = 1

// ErrSchemaVersion is returned when a journal carries a schema version this
// build does not understand.
var ErrSchemaVersion = errors.New("unsupported journal schema version")

// Store is the durable side of the journal.
type Store struct {
	db       *sql.DB
	readOnly bool
}

type storeConfig struct {
	readOnly    bool
	busyTimeout time.Duration
}

// StoreOption configures Open.
type StoreOption func(*storeConfig)

// ReadOnly opens an existing journal without creating or altering it.
func ReadOnly() StoreOption {
	return func(c *storeConfig) { c.readOnly = true }
}

// WithBusyTimeout sets how long a connection waits on a locked database.
// Default: 5s.
func WithBusyTimeout(d time.Duration) StoreOption {
	return func(c *storeConfig) {
		if d > 0 {
			c.busyTimeout = d
		}
	}
}

// dsn builds the go-sqlite3 connection string. The driver applies the
// underscore parameters as pragmas on every new connection.
func (c storeConfig) dsn(path string) string {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.FormatInt(c.busyTimeout.Milliseconds(), 10))
	q.Set("_foreign_keys", "on")
	if c.readOnly {
		q.Set("mode", "ro")
	} else {
		q.Set("_journal_mode", "WAL")
		q.Set("_synchronous", "NORMAL")
	}
	return "file:" + path + "?" + q.Encode()
}

// Open opens the journal at path. A writable journal is created if missing
// and brought to SchemaVersion; a read-only one must already exist at a
// version no newer than SchemaVersion.
func Open(path string, opts ...StoreOption) (*Store, error) {
	cfg := storeConfig{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sql.Open("sqlite3", cfg.dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	// One connection serializes writers and keeps the pragmas in force.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, readOnly: cfg.readOnly}
	if err := s.prepare(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	return s, nil
}

func (s *Store) prepare(ctx context.Context) error {
	version, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: %d (newest known %d)", ErrSchemaVersion, version, SchemaVersion)
	}
	if s.readOnly {
		if version == 0 {
			return fmt.Errorf("%w: journal has no schema", ErrSchemaVersion)
		}
		return nil
	}
	if version == SchemaVersion {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return tx.Commit()
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// ReadOnly reports whether the store was opened with ReadOnly.
func (s *Store) ReadOnly() bool { return s.readOnly }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
