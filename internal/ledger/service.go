// Package ledger runs the appointment pipelines: load rows from the tabular
// store, resolve the requested period and aggregate.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wolfman30/spa-ledger/internal/catalog"
	"github.com/wolfman30/spa-ledger/internal/observability/metrics"
	"github.com/wolfman30/spa-ledger/internal/period"
	"github.com/wolfman30/spa-ledger/internal/records"
	"github.com/wolfman30/spa-ledger/internal/report"
	"github.com/wolfman30/spa-ledger/internal/store"
	"github.com/wolfman30/spa-ledger/pkg/logging"
)

var (
	// ErrInvalidRegistration is the parent of every registration validation error.
	ErrInvalidRegistration = errors.New("ledger: invalid registration")

	ErrEmptyPatient     = fmt.Errorf("%w: patient name is required", ErrInvalidRegistration)
	ErrNoProcedures     = fmt.Errorf("%w: at least one procedure is required", ErrInvalidRegistration)
	ErrUnknownProcedure = fmt.Errorf("%w: unknown procedure", ErrInvalidRegistration)
	ErrPriceNotAllowed  = fmt.Errorf("%w: price not allowed", ErrInvalidRegistration)
)

// Service is safe for concurrent use; it holds no per-request state.
type Service struct {
	store   store.TabularStore
	clock   period.Clock
	logger  *logging.Logger
	metrics *metrics.LedgerMetrics
}

// NewService creates a ledger service. A nil clock defaults to UTC-3.
func NewService(st store.TabularStore, clock period.Clock, logger *logging.Logger, m *metrics.LedgerMetrics) *Service {
	if st == nil {
		panic("ledger: tabular store required")
	}
	if clock == nil {
		clock = period.NewFixedOffsetClock(-3)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: st, clock: clock, logger: logger, metrics: m}
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

// Registration is a new appointment as collected by a client.
type Registration struct {
	Date       time.Time       `json:"date"`
	Patient    string          `json:"patient"`
	Procedures []string        `json:"procedures"`
	Price      decimal.Decimal `json:"price"`
}

// Validate checks the registration and returns the canonical procedure slugs.
func (r Registration) Validate() ([]string, error) {
	if strings.TrimSpace(r.Patient) == "" {
		return nil, ErrEmptyPatient
	}
	if len(r.Procedures) == 0 {
		return nil, ErrNoProcedures
	}
	slugs := make([]string, 0, len(r.Procedures))
	for _, p := range r.Procedures {
		proc, ok := catalog.Resolve(p)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProcedure, p)
		}
		slugs = append(slugs, proc.Slug)
	}
	if !catalog.IsAllowedPrice(r.Price) {
		return nil, fmt.Errorf("%w: %s", ErrPriceNotAllowed, r.Price.String())
	}
	return slugs, nil
}

// Register validates and appends a new appointment. A zero date means today.
func (s *Service) Register(ctx context.Context, reg Registration) (rec records.Record, err error) {
	defer s.observe("register", time.Now(), &err)

	slugs, err := reg.Validate()
	if err != nil {
		return records.Record{}, err
	}
	date := reg.Date
	if date.IsZero() {
		date = s.clock.Now()
	}
	date = records.Day(date)
	patient := strings.ToUpper(strings.Join(strings.Fields(reg.Patient), " "))
	encoded := records.EncodeProcedures(slugs)

	row := []any{date.Format(records.DateLayout), patient, encoded, reg.Price.InexactFloat64()}
	if err := s.store.Append(ctx, row); err != nil {
		return records.Record{}, fmt.Errorf("ledger: register: %w", err)
	}
	s.logger.Info("ledger: appointment registered", "date", date.Format(records.DateLayout), "procedures", encoded)

	return records.Record{
		Date:       date,
		Patient:    patient,
		Procedures: records.DecodeProcedures(encoded),
		Price:      reg.Price,
	}, nil
}

// ListDay returns the records of one calendar day, with store positions.
func (s *Service) ListDay(ctx context.Context, date time.Time) (sum report.RangeSummary, err error) {
	defer s.observe("list_day", time.Now(), &err)

	recs, err := s.Records(ctx)
	if err != nil {
		return report.RangeSummary{}, err
	}
	return report.FilterAndGroup(recs, date, date), nil
}

// Summary pairs a resolved period with its aggregation.
type Summary struct {
	Period  period.Period       `json:"period"`
	Summary report.RangeSummary `json:"summary"`
}

// Summarize resolves mode/input against the clock and aggregates the matching
// records. Invalid input fails before the store is read.
func (s *Service) Summarize(ctx context.Context, mode period.Mode, input string) (out Summary, err error) {
	defer s.observe("summarize", time.Now(), &err)

	p, err := period.Resolve(mode, input, s.clock.Now())
	if err != nil {
		return Summary{}, err
	}
	recs, err := s.Records(ctx)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Period: p, Summary: report.FilterAndGroup(recs, p.Start, p.End)}, nil
}

// Candidates lists the deletable records of a day in load order.
func (s *Service) Candidates(ctx context.Context, date time.Time) ([]records.Record, error) {
	sum, err := s.ListDay(ctx, date)
	if err != nil {
		return nil, err
	}
	out := make([]records.Record, 0, sum.Count)
	for _, day := range sum.Days {
		out = append(out, day.Records...)
	}
	return out, nil
}

// Delete removes the row at expected.Position after re-reading the store. If
// the position is gone or now holds a different appointment, store.ErrNotFound
// is returned and nothing is deleted.
func (s *Service) Delete(ctx context.Context, expected records.Record) (err error) {
	defer s.observe("delete", time.Now(), &err)

	recs, err := s.Records(ctx)
	if err != nil {
		return err
	}
	var current *records.Record
	for i := range recs {
		if recs[i].Position == expected.Position {
			current = &recs[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("ledger: delete position %d: %w", expected.Position, store.ErrNotFound)
	}
	if !current.SameContent(expected) {
		s.logger.Warn("ledger: stale delete rejected", "position", expected.Position)
		return fmt.Errorf("ledger: delete position %d changed: %w", expected.Position, store.ErrNotFound)
	}
	if err := s.store.DeleteRow(ctx, expected.Position); err != nil {
		return fmt.Errorf("ledger: delete position %d: %w", expected.Position, err)
	}
	s.logger.Info("ledger: appointment deleted", "position", expected.Position, "date", expected.DateString())
	return nil
}

// Records loads every well-formed record with its store position.
func (s *Service) Records(ctx context.Context) ([]records.Record, error) {
	rows, err := s.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: load records: %w", err)
	}
	return records.Load(rows,
		records.WithPositions(),
		records.WithLogger(s.logger),
		records.OnSkip(func(int, error) { s.metrics.ObserveMalformedRow() }),
	), nil
}

func (s *Service) observe(operation string, started time.Time, errp *error) {
	status := "ok"
	if errp != nil && *errp != nil {
		status = "error"
		if errors.Is(*errp, store.ErrStoreUnavailable) {
			s.logger.Error("ledger: store unavailable", "operation", operation, "error", *errp)
		}
	}
	s.metrics.ObserveOperation(operation, status, time.Since(started).Seconds())
}
