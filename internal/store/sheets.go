package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/spa-ledger/internal/records"
	"github.com/wolfman30/spa-ledger/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const defaultSheetName = "Sheet1"

// SheetsConfig configures the Google Sheets adapter.
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON []byte
	// ClientOptions are appended after the credentials; tests use them to
	// point the client at a fake endpoint.
	ClientOptions []option.ClientOption
}

// SheetsStore persists the table in one worksheet of a spreadsheet. Row 1 is
// the header, so store position p lives on sheet row p+1.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        *logging.Logger
	tracer        trace.Tracer
}

// DecodeCredentials decodes base64 service-account JSON.
func DecodeCredentials(b64 string) ([]byte, error) {
	b64 = strings.TrimSpace(b64)
	if b64 == "" {
		return nil, fmt.Errorf("%w: google credentials not configured", ErrStoreUnavailable)
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode google credentials: %v", ErrStoreUnavailable, err)
	}
	return data, nil
}

// NewSheetsStore authenticates and builds the adapter.
func NewSheetsStore(ctx context.Context, cfg SheetsConfig, logger *logging.Logger) (*SheetsStore, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("%w: spreadsheet id is required", ErrStoreUnavailable)
	}
	if logger == nil {
		logger = logging.Default()
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	var opts []option.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts,
			option.WithCredentialsJSON(cfg.CredentialsJSON),
			option.WithScopes(sheets.SpreadsheetsScope),
		)
	}
	opts = append(opts, cfg.ClientOptions...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets: create service: %w: %w", ErrStoreUnavailable, err)
	}
	return &SheetsStore{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
		tracer:        otel.Tracer("spaledger.internal.store.sheets"),
	}, nil
}

// ReadAll implements TabularStore.
func (s *SheetsStore) ReadAll(ctx context.Context) ([]records.Row, error) {
	ctx, span := s.tracer.Start(ctx, "sheets.read_all")
	defer span.End()

	values, err := s.values(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(values) < 2 {
		return []records.Row{}, nil
	}
	rows := rowsFromValues(values[0], values[1:])
	span.SetAttributes(attribute.Int("sheets.rows", len(rows)))
	return rows, nil
}

// Append implements TabularStore.
func (s *SheetsStore) Append(ctx context.Context, values []any) error {
	ctx, span := s.tracer.Start(ctx, "sheets.append")
	defer span.End()

	// RAW keeps cells literal: no formula evaluation, no locale date parsing.
	vr := &sheets.ValueRange{Values: [][]interface{}{values}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.sheetName+"!A1", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("sheets: append row: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteRow implements TabularStore.
func (s *SheetsStore) DeleteRow(ctx context.Context, position int) error {
	ctx, span := s.tracer.Start(ctx, "sheets.delete_row")
	defer span.End()
	span.SetAttributes(attribute.Int("sheets.position", position))

	values, err := s.values(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if position < 1 || position > len(values)-1 {
		return fmt.Errorf("%w: position %d", ErrNotFound, position)
	}

	gid, err := s.sheetID(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:         gid,
					Dimension:       "ROWS",
					StartIndex:      int64(position),
					EndIndex:        int64(position + 1),
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("sheets: delete row %d: %w: %w", position, ErrStoreUnavailable, err)
	}
	s.logger.Info("sheets: row deleted", "position", position)
	return nil
}

func (s *SheetsStore) values(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.sheetName).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: read values: %w: %w", ErrStoreUnavailable, err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		out = append(out, row)
	}
	return out, nil
}

var errSheetMissing = errors.New("worksheet not found")

func (s *SheetsStore) sheetID(ctx context.Context) (int64, error) {
	doc, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: get spreadsheet: %w: %w", ErrStoreUnavailable, err)
	}
	for _, sh := range doc.Sheets {
		if sh.Properties != nil && sh.Properties.Title == s.sheetName {
			return sh.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheets: %q: %w: %w", s.sheetName, ErrStoreUnavailable, errSheetMissing)
}
