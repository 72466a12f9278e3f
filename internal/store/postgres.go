package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfman30/spa-ledger/internal/records"
)

// DB is the subset of pgxpool.Pool the Postgres adapter needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore keeps the table in the appointments relation. Insertion order
// is the id order, so position p is the p-th row by id.
type PostgresStore struct {
	db DB
}

// NewPostgresStore wraps a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("store: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithDB allows injecting mocks for tests.
func NewPostgresStoreWithDB(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ReadAll implements TabularStore.
func (s *PostgresStore) ReadAll(ctx context.Context) ([]records.Row, error) {
	rows, err := s.db.Query(ctx, `SELECT date, patient, procedures, price FROM appointments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: read appointments: %w: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	out := []records.Row{}
	for rows.Next() {
		var date, patient, procedures, price string
		if err := rows.Scan(&date, &patient, &procedures, &price); err != nil {
			return nil, fmt.Errorf("postgres: scan appointment: %w: %w", ErrStoreUnavailable, err)
		}
		out = append(out, records.Row{
			records.ColumnDate:       date,
			records.ColumnPatient:    patient,
			records.ColumnProcedures: procedures,
			records.ColumnPrice:      price,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate appointments: %w: %w", ErrStoreUnavailable, err)
	}
	return out, nil
}

// Append implements TabularStore.
func (s *PostgresStore) Append(ctx context.Context, values []any) error {
	if len(values) != len(records.Columns) {
		return fmt.Errorf("postgres: append: expected %d values, got %d", len(records.Columns), len(values))
	}
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = fmt.Sprint(v)
	}
	query := `
		INSERT INTO appointments (date, patient, procedures, price)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: insert appointment: %w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteRow implements TabularStore.
func (s *PostgresStore) DeleteRow(ctx context.Context, position int) error {
	if position < 1 {
		return fmt.Errorf("%w: position %d", ErrNotFound, position)
	}
	query := `
		DELETE FROM appointments
		WHERE id = (SELECT id FROM appointments ORDER BY id OFFSET $1 LIMIT 1)
	`
	tag, err := s.db.Exec(ctx, query, position-1)
	if err != nil {
		return fmt.Errorf("postgres: delete appointment: %w: %w", ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: position %d", ErrNotFound, position)
	}
	return nil
}
