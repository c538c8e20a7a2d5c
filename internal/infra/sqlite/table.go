// Package sqlite implements table.Table in an embedded SQLite database, for
// deployments that do not want a spreadsheet as the system of record.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"leadflow/internal/table"
)

var _ table.Table = (*Table)(nil)

// Table stores each row as a JSON array of cells keyed by its 1-based position.
type Table struct {
	db *sql.DB
}

// New opens (creating if needed) the database at dsn.
func New(dsn string) (*Table, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers the same way the sheet does.
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Table{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sheet_rows (
    pos INTEGER PRIMARY KEY,
    cells TEXT NOT NULL
);
`)
	return err
}

// Close releases the database handle.
func (t *Table) Close() error {
	return t.db.Close()
}

// Rows returns all rows ordered by position.
func (t *Table) Rows(ctx context.Context) ([][]string, error) {
	rs, err := t.db.QueryContext(ctx, `SELECT cells FROM sheet_rows ORDER BY pos`)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var rows [][]string
	for rs.Next() {
		var raw string
		if err := rs.Scan(&raw); err != nil {
			return nil, err
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		rows = append(rows, cells)
	}
	return rows, rs.Err()
}

// WriteHeader upserts row 1.
func (t *Table) WriteHeader(ctx context.Context, header []string) error {
	raw, err := json.Marshal(header)
	if err != nil {
		return err
	}
	_, err = t.db.ExecContext(ctx,
		`INSERT INTO sheet_rows(pos, cells) VALUES(1, ?)
		 ON CONFLICT(pos) DO UPDATE SET cells = excluded.cells`, string(raw))
	return err
}

// InsertRow shifts rows at or below rowNumber down and inserts cells there,
// inside one transaction. A rowNumber past the end appends.
func (t *Table) InsertRow(ctx context.Context, rowNumber int, cells []string) error {
	if rowNumber < 1 {
		return fmt.Errorf("invalid row number %d", rowNumber)
	}
	raw, err := json.Marshal(cells)
	if err != nil {
		return err
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM sheet_rows`).Scan(&count); err != nil {
		return err
	}
	if rowNumber > count+1 {
		rowNumber = count + 1
	}

	// Two passes keep the primary key unique while shifting.
	if _, err := tx.ExecContext(ctx, `UPDATE sheet_rows SET pos = -(pos + 1) WHERE pos >= ?`, rowNumber); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sheet_rows SET pos = -pos WHERE pos < 0`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO sheet_rows(pos, cells) VALUES(?, ?)`, rowNumber, string(raw)); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateCell overwrites one cell, padding the row when it is short.
func (t *Table) UpdateCell(ctx context.Context, rowNumber, column int, value string) error {
	if column < 1 {
		return fmt.Errorf("invalid column %d", column)
	}
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT cells FROM sheet_rows WHERE pos = ?`, rowNumber).Scan(&raw)
	if err == sql.ErrNoRows {
		return fmt.Errorf("row %d out of range", rowNumber)
	}
	if err != nil {
		return err
	}

	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return fmt.Errorf("decode row %d: %w", rowNumber, err)
	}
	for len(cells) < column {
		cells = append(cells, "")
	}
	cells[column-1] = value

	out, err := json.Marshal(cells)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sheet_rows SET cells = ? WHERE pos = ?`, string(out), rowNumber); err != nil {
		return err
	}
	return tx.Commit()
}
