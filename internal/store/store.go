// Package store defines the tabular store contract the ledger persists to and
// its adapters.
package store

import (
	"context"
	"errors"

	"github.com/wolfman30/spa-ledger/internal/records"
)

var (
	// ErrNotFound is returned when a position does not address a data row.
	ErrNotFound = errors.New("store: row not found")

	// ErrStoreUnavailable wraps connection, credential and API failures.
	ErrStoreUnavailable = errors.New("store: unavailable")
)

// TabularStore is a header-plus-rows table. Positions are 1-based and count
// data rows only.
type TabularStore interface {
	// ReadAll returns every data row in insertion order.
	ReadAll(ctx context.Context) ([]records.Row, error)
	// Append adds a row with values in records.Columns order.
	Append(ctx context.Context, values []any) error
	// DeleteRow removes the row at position; later rows shift down by one.
	DeleteRow(ctx context.Context, position int) error
}

// rowsFromValues zips a header row with data rows. Cells missing from a short
// row are left out of its map rather than set to "".
func rowsFromValues(header []string, values [][]string) []records.Row {
	out := make([]records.Row, 0, len(values))
	for _, v := range values {
		row := make(records.Row, len(header))
		for i, col := range header {
			if i >= len(v) {
				break
			}
			row[col] = v[i]
		}
		out = append(out, row)
	}
	return out
}
