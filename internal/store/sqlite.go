package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sismoscrape/internal/model"
)

// SQLiteFileName is the database file created in the data directory.
const SQLiteFileName = "sismoscrape.db"

// tableNamePattern restricts table names to identifiers that are safe to
// interpolate into SQL. Placeholders cannot be used for identifiers.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,127}$`)

// ValidTableName reports whether name can be used as a SQLite table name.
func ValidTableName(name string) bool {
	return tableNamePattern.MatchString(name)
}

// SQLiteStore stores rows in a SQLite table.
// Each record keeps the row as ordered JSON, so column order survives a
// round trip.
type SQLiteStore struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// table is the validated table name.
	table string
}

// SQLiteOptions configures SQLiteStore behavior.
type SQLiteOptions struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultSQLiteOptions returns the default database options.
func DefaultSQLiteOptions() SQLiteOptions {
	return SQLiteOptions{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// OpenSQLite opens or creates the database in dbDir and ensures table exists.
func OpenSQLite(dbDir, table string, opts SQLiteOptions) (*SQLiteStore, error) {
	if !ValidTableName(table) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	dbPath := filepath.Join(dbDir, SQLiteFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		table:  table,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTable(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Table returns the table name.
func (s *SQLiteStore) Table() string {
	return s.table
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createTable() error {
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]q (
		id TEXT PRIMARY KEY,
		rank INTEGER NOT NULL DEFAULT 0,
		item TEXT NOT NULL,
		written_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS %[2]q ON %[1]q(rank);
	`, s.table, "idx_"+s.table+"_rank")

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Scan returns all records ordered by rank, then id.
func (s *SQLiteStore) Scan(ctx context.Context) ([]*model.Row, error) {
	query := fmt.Sprintf(`SELECT item FROM %q ORDER BY rank, id`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scan table: %w", err)
	}
	defer rows.Close()

	results := make([]*model.Row, 0)
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		row := model.NewRow()
		if err := row.UnmarshalJSON([]byte(item)); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

// Delete removes the records with the given ids in one transaction.
func (s *SQLiteStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf(`DELETE FROM %q WHERE id = ?`, s.table)
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("failed to delete record %s: %w", id, err)
			}
		}
		return nil
	})
}

// Put inserts or updates rows in one transaction.
func (s *SQLiteStore) Put(ctx context.Context, rows ...*model.Row) error {
	if len(rows) == 0 {
		return nil
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.insert(ctx, tx, rows)
	})
}

// Replace deletes every record and inserts rows in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, rows []*model.Row) (int, error) {
	var deleted int

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %q`, s.table))
		if err != nil {
			return fmt.Errorf("failed to clear table: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to count deleted records: %w", err)
		}
		deleted = int(n)

		return s.insert(ctx, tx, rows)
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

func (s *SQLiteStore) insert(ctx context.Context, tx *sql.Tx, rows []*model.Row) error {
	query := fmt.Sprintf(`
	INSERT INTO %q (id, rank, item)
	VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		rank = excluded.rank,
		item = excluded.item,
		written_at = CURRENT_TIMESTAMP
	`, s.table)

	for i, row := range rows {
		id := row.ID()
		if id == "" {
			return fmt.Errorf("row %d: %w", i, ErrMissingID)
		}

		item, err := row.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to serialize row %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, query, id, row.Rank(), string(item)); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", id, err)
		}
	}
	return nil
}

// withTx runs fn in a transaction, committing on success and rolling back
// on error.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
