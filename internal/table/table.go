// Package table defines the tabular storage abstraction the record store is
// written against, plus an in-memory implementation.
//
// Row and column numbers are 1-based, mirroring spreadsheet addressing:
// row 1 is the header, data starts at row 2.
//
// Backends:
//   - internal/infra/gsheets: Google Sheets worksheet
//   - internal/infra/sqlite: embedded SQLite database
//   - Memory: in-process slice (tests, debug runs)
package table

import (
	"context"
	"fmt"
	"sync"
)

// Table is an ordered grid of string cells.
//
// Implementations serialize individual operations but give no isolation
// across calls: a Rows call concurrent with InsertRow may or may not see
// the new row.
type Table interface {
	// Rows returns every row including the header. Trailing empty cells may
	// be omitted by the backend, so rows can be shorter than the header.
	Rows(ctx context.Context) ([][]string, error)

	// WriteHeader overwrites row 1, or creates it when the table is empty.
	WriteHeader(ctx context.Context, header []string) error

	// InsertRow inserts cells so that they become row number rowNumber,
	// shifting that row and everything below it down by one. A rowNumber past
	// the end appends.
	InsertRow(ctx context.Context, rowNumber int, cells []string) error

	// UpdateCell overwrites a single cell in place.
	UpdateCell(ctx context.Context, rowNumber, column int, value string) error
}

// Memory is a mutex-guarded in-memory Table.
type Memory struct {
	mu   sync.Mutex
	rows [][]string
}

// NewMemory creates a Memory table seeded with a copy of rows.
func NewMemory(rows ...[]string) *Memory {
	m := &Memory{}
	for _, r := range rows {
		m.rows = append(m.rows, append([]string(nil), r...))
	}
	return m
}

// Rows returns a deep copy of the table contents.
func (m *Memory) Rows(ctx context.Context) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append(make([]string, 0, len(r)), r...)
	}
	return out, nil
}

// WriteHeader overwrites row 1 or creates it.
func (m *Memory) WriteHeader(ctx context.Context, header []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	h := append([]string(nil), header...)
	if len(m.rows) == 0 {
		m.rows = append(m.rows, h)
		return nil
	}
	m.rows[0] = h
	return nil
}

// InsertRow inserts a copy of cells at rowNumber.
func (m *Memory) InsertRow(ctx context.Context, rowNumber int, cells []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rowNumber < 1 {
		return fmt.Errorf("invalid row number %d", rowNumber)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := rowNumber - 1
	if idx > len(m.rows) {
		idx = len(m.rows)
	}
	row := append([]string(nil), cells...)
	m.rows = append(m.rows, nil)
	copy(m.rows[idx+1:], m.rows[idx:])
	m.rows[idx] = row
	return nil
}

// UpdateCell overwrites one cell, padding the row when it is short.
func (m *Memory) UpdateCell(ctx context.Context, rowNumber, column int, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if rowNumber < 1 || rowNumber > len(m.rows) {
		return fmt.Errorf("row %d out of range", rowNumber)
	}
	if column < 1 {
		return fmt.Errorf("invalid column %d", column)
	}
	row := m.rows[rowNumber-1]
	for len(row) < column {
		row = append(row, "")
	}
	row[column-1] = value
	m.rows[rowNumber-1] = row
	return nil
}

// Truncate drops trailing empty cells from every row, imitating how the
// Sheets API returns values. Used by tests.
func (m *Memory) Truncate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		n := len(r)
		for n > 0 && r[n-1] == "" {
			n--
		}
		m.rows[i] = r[:n]
	}
}
