// Package store implements the local persistent series cache on SQLite.
//
// Each category owns one table keyed by date, mirroring the one
// collection-per-category layout of the upstream data. The schema is
// versioned through PRAGMA user_version and created on first open.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"github.com/jmverlaan/climogram/pkg/model"
)

var (
	// ErrStoreUnavailable means the store could not be opened, or a
	// method was called on a closed store.
	ErrStoreUnavailable = errors.New("series store unavailable")
	// ErrStoreWriteFailed means a batch persist did not commit. Partial
	// writes are not guaranteed rolled back by the caller's contract,
	// though SQLite rolls back the transaction.
	ErrStoreWriteFailed = errors.New("series store write failed")
)

const schemaVersion = 1

// Store provides typed access to the per-category series tables.
// The zero value is unusable; call Open.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating on first use) the series database at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &Store{db: db, path: path}, nil
}

// migrate creates the per-category tables and stamps the schema version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version > schemaVersion {
		return fmt.Errorf("schema version %d is newer than supported %d", version, schemaVersion)
	}
	if version == schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, cat := range model.Categories() {
		ddl := fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (date TEXT PRIMARY KEY, value REAL NOT NULL)",
			tableName(cat))
		if _, err := tx.Exec(ddl); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// tableName maps a category to its table. Categories are a closed enum
// of lowercase identifiers, so interpolation is safe.
func tableName(c model.Category) string { return string(c) }

// Path returns the database file path this store was opened with.
func (s *Store) Path() string { return s.path }

// IsEmpty reports whether the category's table holds zero records.
func (s *Store) IsEmpty(cat model.Category) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("%w: store is closed", ErrStoreUnavailable)
	}
	if !cat.Valid() {
		return false, fmt.Errorf("unknown category %q", cat)
	}
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName(cat))
	if err := s.db.QueryRow(query).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count == 0, nil
}

// GetAll returns the category's records, optionally restricted to dates
// within [rng.Start-01-01, rng.End-12-31] (lexicographic on the date
// string). Non-finite values that somehow reached the store are
// filtered out again on the way back.
func (s *Store) GetAll(cat model.Category, rng *model.YearRange) ([]model.StoredRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("%w: store is closed", ErrStoreUnavailable)
	}
	if !cat.Valid() {
		return nil, fmt.Errorf("unknown category %q", cat)
	}

	query := fmt.Sprintf("SELECT date, value FROM %s", tableName(cat))
	var args []any
	if rng != nil {
		query += " WHERE date >= ? AND date <= ?"
		args = append(args,
			fmt.Sprintf("%04d-01-01", rng.Start),
			fmt.Sprintf("%04d-12-31", rng.End))
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var records []model.StoredRecord
	for rows.Next() {
		var rec model.StoredRecord
		if err := rows.Scan(&rec.Date, &rec.Value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if math.IsNaN(rec.Value) || math.IsInf(rec.Value, 0) {
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return records, nil
}

// Put upserts the batch into the category's table in one transaction.
// Records with a non-finite value are silently skipped; that is not an
// error. A failed transaction surfaces as ErrStoreWriteFailed.
func (s *Store) Put(cat model.Category, records []model.RawRecord) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("%w: store is closed", ErrStoreUnavailable)
	}
	if !cat.Valid() {
		return fmt.Errorf("unknown category %q", cat)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWriteFailed, err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(fmt.Sprintf(
		"INSERT INTO %s (date, value) VALUES (?, ?) ON CONFLICT(date) DO UPDATE SET value = excluded.value",
		tableName(cat)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWriteFailed, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if math.IsNaN(rec.V) || math.IsInf(rec.V, 0) {
			continue
		}
		if _, err := stmt.Exec(rec.T, rec.V); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreWriteFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreWriteFailed, err)
	}
	return nil
}

// Close releases the database handle. Idempotent; safe on an already
// closed store.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
