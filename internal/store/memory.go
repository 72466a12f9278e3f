package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/wolfman30/spa-ledger/internal/records"
)

// MemoryStore keeps the table in memory. Used for local runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	header []string
	rows   [][]string
}

// NewMemoryStore creates an empty table with the standard columns.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{header: append([]string(nil), records.Columns...)}
}

// Seed appends raw string rows, bypassing value formatting.
func (s *MemoryStore) Seed(rows ...[]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rows {
		s.rows = append(s.rows, append([]string(nil), r...))
	}
}

// Len returns the number of data rows.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// ReadAll implements TabularStore.
func (s *MemoryStore) ReadAll(ctx context.Context) ([]records.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rowsFromValues(s.header, s.rows), nil
}

// Append implements TabularStore.
func (s *MemoryStore) Append(ctx context.Context, values []any) error {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = fmt.Sprint(v)
	}
	s.mu.Lock()
	s.rows = append(s.rows, row)
	s.mu.Unlock()
	return nil
}

// DeleteRow implements TabularStore.
func (s *MemoryStore) DeleteRow(ctx context.Context, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 1 || position > len(s.rows) {
		return fmt.Errorf("%w: position %d", ErrNotFound, position)
	}
	s.rows = append(s.rows[:position-1], s.rows[position:]...)
	return nil
}
