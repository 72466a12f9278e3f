package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/spa-ledger/internal/records"
)

func TestMemoryStoreAppendReadDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Append(ctx, []any{"01/01/2024", "ANA", "detox", 10}))
	require.NoError(t, s.Append(ctx, []any{"02/01/2024", "BIA", "spa", 15.5}))
	require.NoError(t, s.Append(ctx, []any{"03/01/2024", "CAROL", "spa", 20}))

	rows, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "BIA", rows[1][records.ColumnPatient])
	assert.Equal(t, "15.5", rows[1][records.ColumnPrice])

	require.NoError(t, s.DeleteRow(ctx, 2))
	rows, err = s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CAROL", rows[1][records.ColumnPatient])
}

func TestMemoryStoreDeleteOutOfRange(t *testing.T) {
	s := NewMemoryStore()
	s.Seed([]string{"01/01/2024", "ANA", "detox", "10"})

	assert.ErrorIs(t, s.DeleteRow(context.Background(), 0), ErrNotFound)
	assert.ErrorIs(t, s.DeleteRow(context.Background(), 2), ErrNotFound)
	assert.Equal(t, 1, s.Len())
}

func TestRowsFromValuesShortRows(t *testing.T) {
	rows := rowsFromValues(records.Columns, [][]string{{"01/01/2024", "ANA"}})
	require.Len(t, rows, 1)
	_, ok := rows[0][records.ColumnPrice]
	assert.False(t, ok)
	assert.Equal(t, "ANA", rows[0][records.ColumnPatient])
}
