package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/spa-ledger/internal/period"
	"github.com/wolfman30/spa-ledger/internal/records"
	"github.com/wolfman30/spa-ledger/internal/report"
)

// Analytics is implemented by every analytics report.
type Analytics interface {
	Empty() bool
}

// Analytics builds the report of the given kind over every record. An empty
// store yields report.ErrNoData.
func (s *Service) Analytics(ctx context.Context, kind report.Kind) (out Analytics, err error) {
	defer s.observe("analytics_"+string(kind), time.Now(), &err)

	build, ok := analyticsBuilders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown analytics kind %q", period.ErrInvalidInput, kind)
	}
	recs, err := s.analyticsRecords(ctx)
	if err != nil {
		return nil, err
	}
	return build(recs), nil
}

var analyticsBuilders = map[report.Kind]func([]records.Record) Analytics{
	report.KindRevenue:      func(r []records.Record) Analytics { return report.Revenue(r) },
	report.KindAppointments: func(r []records.Record) Analytics { return report.Appointments(r) },
	report.KindProcedures:   func(r []records.Record) Analytics { return report.Procedures(r) },
	report.KindPatients:     func(r []records.Record) Analytics { return report.Patients(r) },
}

// Revenue sums prices per billing month.
func (s *Service) Revenue(ctx context.Context) (report.RevenueReport, error) {
	recs, err := s.analyticsRecords(ctx)
	if err != nil {
		return report.RevenueReport{}, err
	}
	return report.Revenue(recs), nil
}

// Appointments counts records per billing month.
func (s *Service) Appointments(ctx context.Context) (report.AppointmentReport, error) {
	recs, err := s.analyticsRecords(ctx)
	if err != nil {
		return report.AppointmentReport{}, err
	}
	return report.Appointments(recs), nil
}

// ProcedureRanking ranks catalog procedures per billing month.
func (s *Service) ProcedureRanking(ctx context.Context) (report.RankingReport, error) {
	recs, err := s.analyticsRecords(ctx)
	if err != nil {
		return report.RankingReport{}, err
	}
	return report.Procedures(recs), nil
}

// PatientRanking ranks patients per billing month.
func (s *Service) PatientRanking(ctx context.Context) (report.RankingReport, error) {
	recs, err := s.analyticsRecords(ctx)
	if err != nil {
		return report.RankingReport{}, err
	}
	return report.Patients(recs), nil
}

func (s *Service) analyticsRecords(ctx context.Context) ([]records.Record, error) {
	recs, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, report.ErrNoData
	}
	return recs, nil
}
