// Package storage persists imported datasets in SQLite. The record table
// always holds exactly one import; the repository doubles as a dataset
// loader for the sqlite backend.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"wastedash/internal/core"
)

// ErrNoImports is returned by LatestImport on an empty database.
var ErrNoImports = errors.New("no dataset imported yet")

// Import describes one dataset import.
type Import struct {
	ID         int64     `json:"id"`
	Source     string    `json:"source"`
	Rows       int       `json:"rows"`
	ImportedAt time.Time `json:"imported_at"`
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReplaceRecords swaps the stored dataset for records in a single
// transaction, so readers see either the old or the new import.
func (r *SQLiteRepository) ReplaceRecords(ctx context.Context, source string, records []core.RawRecord) (Import, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Import{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return Import{}, fmt.Errorf("clear records: %w", err)
	}

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO imports (source, rows, imported_at) VALUES (?, ?, ?)`,
		source, len(records), now)
	if err != nil {
		return Import{}, fmt.Errorf("insert import: %w", err)
	}
	importID, err := res.LastInsertId()
	if err != nil {
		return Import{}, fmt.Errorf("import id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (import_id, year, month, category, material, weight) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Import{}, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, importID, rec.Year, rec.Month, rec.Category, rec.Material, rec.Weight); err != nil {
			return Import{}, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Import{}, fmt.Errorf("commit import: %w", err)
	}
	return Import{ID: importID, Source: source, Rows: len(records), ImportedAt: now}, nil
}

// Load returns the stored records in import order.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.RawRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT year, month, category, material, weight FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := make([]core.RawRecord, 0)
	for rows.Next() {
		var rec core.RawRecord
		if err := rows.Scan(&rec.Year, &rec.Month, &rec.Category, &rec.Material, &rec.Weight); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// LatestImport returns the most recent import.
func (r *SQLiteRepository) LatestImport(ctx context.Context) (Import, error) {
	var imp Import
	err := r.db.QueryRowContext(ctx,
		`SELECT id, source, rows, imported_at FROM imports ORDER BY id DESC LIMIT 1`).
		Scan(&imp.ID, &imp.Source, &imp.Rows, &imp.ImportedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, ErrNoImports
	}
	if err != nil {
		return Import{}, fmt.Errorf("latest import: %w", err)
	}
	return imp, nil
}
