// Package gsheets implements table.Table on a single Google Sheets worksheet.
//
// Every API call first waits on a client-side rate limiter so a busy bot
// stays inside the per-minute Sheets quota. Quota and server errors are
// logged and returned unchanged; callers decide whether to retry.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"leadflow/internal/table"
)

var _ table.Table = (*Table)(nil)

// Config describes the worksheet backing the store.
type Config struct {
	SpreadsheetID     string
	SheetName         string
	RequestsPerMinute int // Client-side quota; <= 0 disables limiting
}

// Table is a worksheet addressed by title.
type Table struct {
	srv     *sheets.Service
	cfg     Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a Table. clientOpts carry credentials, typically
// option.WithCredentialsJSON or option.WithCredentialsFile.
func New(ctx context.Context, cfg Config, logger *zap.Logger, clientOpts ...option.ClientOption) (*Table, error) {
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("gsheets: spreadsheet id is required")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Sheet1"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, clientOpts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gsheets: create service: %w", err)
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &Table{
		srv:     srv,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// a1 returns the quoted sheet title, optionally followed by a cell reference.
func (t *Table) a1(cell string) string {
	quoted := "'" + strings.ReplaceAll(t.cfg.SheetName, "'", "''") + "'"
	if cell == "" {
		return quoted
	}
	return quoted + "!" + cell
}

// columnLetter converts a 1-based column number to A1 letters.
func columnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func (t *Table) wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// check logs quota and server failures and wraps err with the operation name.
func (t *Table) check(op string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch {
		case gerr.Code == http.StatusTooManyRequests:
			t.logger.Warn("⏳ Sheets quota exceeded", zap.String("op", op))
		case gerr.Code >= http.StatusInternalServerError:
			t.logger.Warn("⚠️  Sheets server error", zap.String("op", op), zap.Int("code", gerr.Code))
		}
	}
	return fmt.Errorf("sheets %s: %w", op, err)
}

// Rows reads every populated row of the worksheet.
func (t *Table) Rows(ctx context.Context) ([][]string, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := t.srv.Spreadsheets.Values.Get(t.cfg.SpreadsheetID, t.a1("")).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, t.check("values.get", err)
	}

	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		row := make([]string, len(r))
		for j, v := range r {
			row[j] = fmt.Sprint(v)
		}
		rows[i] = row
	}
	return rows, nil
}

// WriteHeader overwrites row 1 and freezes it.
func (t *Table) WriteHeader(ctx context.Context, header []string) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	vals := make([]interface{}, len(header))
	for i, h := range header {
		vals[i] = h
	}
	_, err := t.srv.Spreadsheets.Values.Update(t.cfg.SpreadsheetID, t.a1("A1"), &sheets.ValueRange{
		Values: [][]interface{}{vals},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return t.check("values.update", err)
	}
	return t.FreezeHeader(ctx)
}

// FreezeHeader pins row 1 so the header stays visible while scrolling.
func (t *Table) FreezeHeader(ctx context.Context) error {
	props, err := t.properties(ctx)
	if err != nil {
		return err
	}
	req := &sheets.Request{
		UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
			Properties: &sheets.SheetProperties{
				SheetId:         props.SheetId,
				GridProperties:  &sheets.GridProperties{FrozenRowCount: 1},
				ForceSendFields: []string{"SheetId"},
			},
			Fields: "gridProperties.frozenRowCount",
		},
	}
	return t.batch(ctx, "freeze header", req)
}

// InsertRow inserts cells as row rowNumber in one atomic batchUpdate so the
// row is never visible half-written. If the grid is too small it is extended
// within the same batch.
func (t *Table) InsertRow(ctx context.Context, rowNumber int, cells []string) error {
	if rowNumber < 1 {
		return fmt.Errorf("invalid row number %d", rowNumber)
	}
	props, err := t.properties(ctx)
	if err != nil {
		return err
	}
	index := int64(rowNumber - 1)

	values := make([]*sheets.CellData, len(cells))
	for i := range cells {
		v := cells[i]
		values[i] = &sheets.CellData{UserEnteredValue: &sheets.ExtendedValue{StringValue: &v}}
	}

	var reqs []*sheets.Request
	if grid := props.GridProperties; grid != nil && index >= grid.RowCount {
		// Nothing below the target row: grow the grid instead of shifting.
		reqs = append(reqs, &sheets.Request{
			AppendDimension: &sheets.AppendDimensionRequest{
				SheetId:         props.SheetId,
				Dimension:       "ROWS",
				Length:          index - grid.RowCount + 1,
				ForceSendFields: []string{"SheetId"},
			},
		})
	} else {
		reqs = append(reqs, &sheets.Request{
			InsertDimension: &sheets.InsertDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         props.SheetId,
					Dimension:       "ROWS",
					StartIndex:      index,
					EndIndex:        index + 1,
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
				InheritFromBefore: index > 1,
			},
		})
	}

	reqs = append(reqs, &sheets.Request{
		UpdateCells: &sheets.UpdateCellsRequest{
			Start: &sheets.GridCoordinate{
				SheetId:         props.SheetId,
				RowIndex:        index,
				ColumnIndex:     0,
				ForceSendFields: []string{"SheetId", "RowIndex", "ColumnIndex"},
			},
			Rows:   []*sheets.RowData{{Values: values}},
			Fields: "userEnteredValue",
		},
	})
	return t.batch(ctx, "insert row", reqs...)
}

// UpdateCell overwrites a single cell.
func (t *Table) UpdateCell(ctx context.Context, rowNumber, column int, value string) error {
	if rowNumber < 1 || column < 1 {
		return fmt.Errorf("invalid cell %d:%d", rowNumber, column)
	}
	if err := t.wait(ctx); err != nil {
		return err
	}
	ref := fmt.Sprintf("%s%d", columnLetter(column), rowNumber)
	_, err := t.srv.Spreadsheets.Values.Update(t.cfg.SpreadsheetID, t.a1(ref), &sheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return t.check("values.update", err)
}

func (t *Table) batch(ctx context.Context, op string, reqs ...*sheets.Request) error {
	if err := t.wait(ctx); err != nil {
		return err
	}
	_, err := t.srv.Spreadsheets.BatchUpdate(t.cfg.SpreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	return t.check(op, err)
}

// properties fetches the worksheet's id and current grid size.
func (t *Table) properties(ctx context.Context) (*sheets.SheetProperties, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := t.srv.Spreadsheets.Get(t.cfg.SpreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, t.check("spreadsheets.get", err)
	}

	for _, sh := range resp.Sheets {
		if sh.Properties != nil && sh.Properties.Title == t.cfg.SheetName {
			return sh.Properties, nil
		}
	}
	return nil, fmt.Errorf("sheets: worksheet %q not found", t.cfg.SheetName)
}
