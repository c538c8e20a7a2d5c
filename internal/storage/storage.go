// Package storage provides the lead record store on top of a tabular backend.
//
// This package implements:
//  1. Append with monotonic id assignment and clients-before-partners ordering
//  2. Lookup by alternate keys (phone, requester chat id, record id)
//  3. In-place status updates
//  4. Full-table snapshots for the status poller
//
// Thread-safety:
//   - Writes issued through one Store are serialized by a mutex, so two
//     concurrent appends from this process never compute the same id
//   - Reads take no lock; the backing table serializes single operations
//     but a snapshot is not isolated from a concurrent append
//
// Error handling:
//   - Every backend failure is returned as *errors.StoreUnavailableError
//   - Missing records are reported with errors.ErrNotFound
//   - Short rows are padded with empty cells and never fail an operation
package storage

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "leadflow/internal/errors"
	"leadflow/internal/lead"
	"leadflow/internal/table"
)

// Store is the lead record store.
type Store struct {
	mu     sync.Mutex // Serializes writes issued by this process
	table  table.Table
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for repair and lookup diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the clock used to stamp created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation stamps created_at in the given time zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc == nil {
			return
		}
		base := s.now
		s.now = func() time.Time { return base().In(loc) }
	}
}

// New creates a Store backed by t.
func New(t table.Table, opts ...Option) *Store {
	s := &Store{
		table:  t,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureHeader rewrites row 1 when it does not match the canonical columns.
//
// Returns:
//   - bool: true if the header was (re)written
//   - error: StoreUnavailableError when the table cannot be read or written
func (s *Store) EnsureHeader(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.table.Rows(ctx)
	if err != nil {
		return false, apperrors.NewStoreUnavailableError("read header", err)
	}
	return s.repairHeader(ctx, rows)
}

// repairHeader writes the canonical header if rows[0] differs from it.
// Caller must hold the mutex.
func (s *Store) repairHeader(ctx context.Context, rows [][]string) (bool, error) {
	if len(rows) > 0 && lead.HeaderMatches(rows[0]) {
		return false, nil
	}
	if err := s.table.WriteHeader(ctx, lead.Columns); err != nil {
		return false, apperrors.NewStoreUnavailableError("write header", err)
	}
	s.logger.Info("🛠️  Header row repaired to match schema", zap.Int("columns", len(lead.Columns)))
	return true, nil
}

// Append stores a new submission and returns its assigned id.
//
// Flow:
//  1. Read the whole table once
//  2. Repair the header row if needed
//  3. id = max(existing numeric ids) + 1, or 1 for an empty table
//  4. Build the row (derived fields, status New, amount "-")
//  5. Insert before the first partner row (clients) or at the end (partners)
//
// The submission is not retried on failure; the caller reports it to the user.
func (s *Store) Append(ctx context.Context, sub lead.Submission, kind lead.Kind, chatID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.table.Rows(ctx)
	if err != nil {
		return 0, apperrors.NewStoreUnavailableError("read table", err)
	}
	if _, err := s.repairHeader(ctx, rows); err != nil {
		return 0, err
	}

	var data [][]string
	if len(rows) > 1 {
		data = rows[1:]
	}

	id := nextID(data)
	rec := lead.NewRecord(sub, kind, strconv.FormatInt(chatID, 10))
	rec.ID = strconv.Itoa(id)
	rec.CreatedAt = s.now().Format(lead.TimeLayout)

	pos := insertPosition(data, kind)
	if err := s.table.InsertRow(ctx, pos, rec.Cells()); err != nil {
		return 0, apperrors.NewStoreUnavailableError("insert row", err)
	}

	s.logger.Info("📝 Lead stored",
		zap.Int("id", id),
		zap.String("kind", string(kind)),
		zap.Int("row", pos),
	)
	return id, nil
}

// nextID returns max(ids)+1 over the data rows; non-numeric ids are ignored.
func nextID(data [][]string) int {
	maxID := 0
	for _, row := range data {
		if len(row) == 0 {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSpace(row[lead.ColID])); err == nil && n > maxID {
			maxID = n
		}
	}
	return maxID + 1
}

// insertPosition returns the 1-based row number for a new record.
//
// Clients go immediately before the first partner row so all clients stay
// contiguous at the top; partners, and clients when no partner exists yet,
// are appended after the last row.
func insertPosition(data [][]string, kind lead.Kind) int {
	end := len(data) + 2
	if kind != lead.KindClient {
		return end
	}
	for i, row := range data {
		if len(row) <= lead.ColKind {
			continue
		}
		if k, ok := lead.ParseKind(row[lead.ColKind]); ok && k == lead.KindPartner {
			return i + 2
		}
	}
	return end
}

// records parses every data row, logging short rows at debug level.
func (s *Store) records(rows [][]string) []lead.Record {
	if len(rows) < 2 {
		return nil
	}
	out := make([]lead.Record, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		rec, err := lead.ParseRow(i+2, cells)
		if err != nil {
			s.logger.Debug("short row padded", zap.Error(err))
		}
		out = append(out, rec)
	}
	return out
}

// FindByIdentifier returns every record matching identifier, in storage order.
//
// Match rules (identifier with spaces and leading "+" removed):
//   - substring of the normalized phone number
//   - equal to the requester chat id
//   - equal to the record id
//
// An empty identifier matches nothing.
func (s *Store) FindByIdentifier(ctx context.Context, identifier string) ([]lead.Record, error) {
	ident := lead.NormalizeIdentifier(identifier)
	if ident == "" {
		return []lead.Record{}, nil
	}

	rows, err := s.table.Rows(ctx)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("find by identifier", err)
	}

	phoneIdent := lead.NormalizePhone(ident)
	matches := []lead.Record{}
	for _, rec := range s.records(rows) {
		switch {
		case phoneIdent != "" && strings.Contains(lead.NormalizePhone(rec.Phone), phoneIdent):
		case ident == rec.RequesterChatID:
		case ident == rec.ID:
		default:
			continue
		}
		matches = append(matches, rec)
	}

	s.logger.Debug("lookup by identifier", zap.Int("matches", len(matches)))
	return matches, nil
}

// FindByID returns the first record whose id equals id exactly.
func (s *Store) FindByID(ctx context.Context, id string) (lead.Record, error) {
	rows, err := s.table.Rows(ctx)
	if err != nil {
		return lead.Record{}, apperrors.NewStoreUnavailableError("find by id", err)
	}
	return s.findID(s.records(rows), id)
}

// findID returns the row whose id equals id. When the id is duplicated the
// later row wins, matching ReadAll, so edits land on the row the poller diffs.
func (s *Store) findID(recs []lead.Record, id string) (lead.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return lead.Record{}, apperrors.ErrNotFound
	}
	var (
		found lead.Record
		hits  []int
	)
	for _, rec := range recs {
		if rec.ID == id {
			found = rec
			hits = append(hits, rec.Row)
		}
	}
	switch {
	case len(hits) == 0:
		return lead.Record{}, apperrors.ErrNotFound
	case len(hits) > 1:
		s.logger.Warn("⚠️  Duplicate record id, later row wins",
			zap.String("id", id),
			zap.Ints("rows", hits),
		)
	}
	return found, nil
}

// UpdateStatus overwrites the status cell, and the comment cell when comment
// is non-nil, of the row whose id equals id. No other cell is touched.
//
// A canonical status name is written in its display form so the table stays
// in the operator's vocabulary; anything else is written verbatim.
//
// The comment is written before the status: a poll between the two writes
// then sees a comment-only change, and the transition carries the new comment.
func (s *Store) UpdateStatus(ctx context.Context, id, status string, comment *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.table.Rows(ctx)
	if err != nil {
		return apperrors.NewStoreUnavailableError("read table", err)
	}
	rec, err := s.findID(s.records(rows), id)
	if err != nil {
		return err
	}

	value := strings.TrimSpace(status)
	if st, ok := lead.ParseStatus(value); ok {
		value = st.Display()
	}
	if comment != nil {
		if err := s.table.UpdateCell(ctx, rec.Row, lead.ColComment+1, *comment); err != nil {
			return apperrors.NewStoreUnavailableError("update comment", err)
		}
	}
	if err := s.table.UpdateCell(ctx, rec.Row, lead.ColStatus+1, value); err != nil {
		return apperrors.NewStoreUnavailableError("update status", err)
	}

	s.logger.Info("✏️  Status updated", zap.String("id", rec.ID), zap.String("status", value))
	return nil
}

// ReadAll reads the whole table into a snapshot keyed by record id.
//
// Rows with an empty id are skipped. If an id appears twice the later row
// wins. On failure an empty snapshot is returned together with a
// StoreUnavailableError so callers can treat the cycle as "no data".
func (s *Store) ReadAll(ctx context.Context) (lead.Snapshot, error) {
	rows, err := s.table.Rows(ctx)
	if err != nil {
		return lead.Snapshot{}, apperrors.NewStoreUnavailableError("read all", err)
	}

	snap := make(lead.Snapshot, len(rows))
	for _, rec := range s.records(rows) {
		if rec.ID == "" {
			continue
		}
		if prev, dup := snap[rec.ID]; dup {
			s.logger.Warn("⚠️  Duplicate record id, later row wins",
				zap.String("id", rec.ID),
				zap.Int("first_row", prev.Row),
				zap.Int("row", rec.Row),
			)
		}
		snap[rec.ID] = rec
	}
	return snap, nil
}
