package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/spa-ledger/internal/period"
	"github.com/wolfman30/spa-ledger/internal/records"
	"github.com/wolfman30/spa-ledger/internal/report"
	"github.com/wolfman30/spa-ledger/internal/store"
	"github.com/wolfman30/spa-ledger/pkg/logging"
)

var testNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.FixedZone("UTC-3", -3*3600))

func newTestService(t *testing.T, rows ...[]string) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	st.Seed(rows...)
	return NewService(st, period.Fixed(testNow), logging.Discard(), nil), st
}

type unavailableStore struct{}

func (unavailableStore) ReadAll(context.Context) ([]records.Row, error) {
	return nil, store.ErrStoreUnavailable
}

func (unavailableStore) Append(context.Context, []any) error {
	return store.ErrStoreUnavailable
}

func (unavailableStore) DeleteRow(context.Context, int) error {
	return store.ErrStoreUnavailable
}

func TestRegisterAppendsCanonicalRow(t *testing.T) {
	svc, st := newTestService(t)

	rec, err := svc.Register(context.Background(), Registration{
		Date:       time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC),
		Patient:    "  maria   da silva ",
		Procedures: []string{"Limpeza de Pele"},
		Price:      decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "MARIA DA SILVA", rec.Patient)
	assert.Equal(t, []string{"limpezadepele"}, rec.Procedures)

	rows, err := st.ReadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, records.Row{
		"Date":       "14/03/2024",
		"Patient":    "MARIA DA SILVA",
		"Procedures": "limpezadepele",
		"Price":      "10",
	}, rows[0])
}

func TestRegisterSortsAndDedupesProcedures(t *testing.T) {
	svc, st := newTestService(t)

	_, err := svc.Register(context.Background(), Registration{
		Patient:    "Ana",
		Procedures: []string{"Massagem", "DETOX", "massagem"},
		Price:      decimal.NewFromInt(20),
	})
	require.NoError(t, err)

	rows, err := st.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "detox, massagem", rows[0]["Procedures"])
	assert.Equal(t, "15/03/2024", rows[0]["Date"])
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		reg  Registration
		want error
	}{
		{"empty patient", Registration{Patient: " ", Procedures: []string{"spa"}, Price: decimal.NewFromInt(5)}, ErrEmptyPatient},
		{"no procedures", Registration{Patient: "Ana", Price: decimal.NewFromInt(5)}, ErrNoProcedures},
		{"unknown procedure", Registration{Patient: "Ana", Procedures: []string{"botox"}, Price: decimal.NewFromInt(5)}, ErrUnknownProcedure},
		{"price outside allow-list", Registration{Patient: "Ana", Procedures: []string{"spa"}, Price: decimal.NewFromInt(12)}, ErrPriceNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st := newTestService(t)
			_, err := svc.Register(context.Background(), tt.reg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.True(t, errors.Is(err, ErrInvalidRegistration))
			assert.Zero(t, st.Len())
		})
	}
}

func TestListDayKeepsPositionsAndSkipsMalformed(t *testing.T) {
	svc, _ := newTestService(t,
		[]string{"15/03/2024", "ANA", "spa", "10"},
		[]string{"31/02/2024", "BAD", "spa", "10"},
		[]string{"14/03/2024", "BIA", "spa", "5"},
		[]string{"15/03/2024", "CARLA", "detox", "20,5"},
	)

	sum, err := svc.ListDay(context.Background(), time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	require.Len(t, sum.Days, 1)
	assert.Equal(t, 1, sum.Days[0].Records[0].Position)
	assert.Equal(t, 4, sum.Days[0].Records[1].Position)
	assert.True(t, sum.Total.Equal(decimal.RequireFromString("30.5")))
}

func TestSummarizeWeek(t *testing.T) {
	svc, _ := newTestService(t,
		[]string{"10/03/2024", "ANA", "spa", "10"},
		[]string{"11/03/2024", "BIA", "spa", "10"},
		[]string{"17/03/2024", "CARLA", "spa", "15"},
		[]string{"18/03/2024", "DORA", "spa", "20"},
	)

	out, err := svc.Summarize(context.Background(), period.ModeWeek, "")
	require.NoError(t, err)
	assert.Equal(t, "a semana de 11/03/2024 a 17/03/2024", out.Period.Label)
	assert.Equal(t, 2, out.Summary.Count)
	assert.True(t, out.Summary.Total.Equal(decimal.NewFromInt(25)))
}

func TestSummarizeInvalidInputSkipsStore(t *testing.T) {
	svc := NewService(unavailableStore{}, period.Fixed(testNow), logging.Discard(), nil)

	_, err := svc.Summarize(context.Background(), period.ModeRange, "01/01/2024")
	assert.True(t, errors.Is(err, period.ErrInvalidInput))
}

func TestStoreUnavailablePropagates(t *testing.T) {
	svc := NewService(unavailableStore{}, period.Fixed(testNow), logging.Discard(), nil)

	_, err := svc.Summarize(context.Background(), period.ModeDay, "")
	assert.True(t, errors.Is(err, store.ErrStoreUnavailable))

	_, err = svc.Register(context.Background(), Registration{Patient: "Ana", Procedures: []string{"spa"}, Price: decimal.NewFromInt(5)})
	assert.True(t, errors.Is(err, store.ErrStoreUnavailable))

	_, err = svc.Analytics(context.Background(), report.KindRevenue)
	assert.True(t, errors.Is(err, store.ErrStoreUnavailable))
}

func TestDeleteRemovesMatchingRow(t *testing.T) {
	svc, st := newTestService(t,
		[]string{"15/03/2024", "ANA", "spa", "10"},
		[]string{"15/03/2024", "BIA", "detox", "20"},
	)
	candidates, err := svc.Candidates(context.Background(), time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	require.NoError(t, svc.Delete(context.Background(), candidates[1]))
	assert.Equal(t, 1, st.Len())

	rows, _ := st.ReadAll(context.Background())
	assert.Equal(t, "ANA", rows[0]["Patient"])
}

func TestDeleteStalePositionIsNotFound(t *testing.T) {
	svc, st := newTestService(t,
		[]string{"15/03/2024", "ANA", "spa", "10"},
		[]string{"15/03/2024", "BIA", "detox", "20"},
	)
	candidates, err := svc.Candidates(context.Background(), time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Another session removes the first row; BIA is now at position 1.
	require.NoError(t, st.DeleteRow(context.Background(), 1))

	err = svc.Delete(context.Background(), candidates[1])
	assert.True(t, errors.Is(err, store.ErrNotFound))
	assert.Equal(t, 1, st.Len())
}

func TestDeleteChangedContentIsNotFound(t *testing.T) {
	svc, st := newTestService(t,
		[]string{"15/03/2024", "ANA", "spa", "10"},
		[]string{"15/03/2024", "BIA", "detox", "20"},
	)
	candidates, err := svc.Candidates(context.Background(), time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, st.DeleteRow(context.Background(), 1))

	// Position 1 still exists but now holds BIA.
	err = svc.Delete(context.Background(), candidates[0])
	assert.True(t, errors.Is(err, store.ErrNotFound))
	assert.Equal(t, 1, st.Len())
}

func TestAnalyticsNoData(t *testing.T) {
	svc, _ := newTestService(t, []string{"bad", "ANA", "spa", "10"})

	for _, kind := range report.Kinds {
		_, err := svc.Analytics(context.Background(), kind)
		assert.True(t, errors.Is(err, report.ErrNoData), "kind %s", kind)
	}
	_, err := svc.Revenue(context.Background())
	assert.True(t, errors.Is(err, report.ErrNoData))
}

func TestAnalyticsKinds(t *testing.T) {
	svc, _ := newTestService(t,
		[]string{"06/03/2024", "ANA", "spa, detox", "10"},
		[]string{"07/03/2024", "ana", "botox", "20"},
	)

	out, err := svc.Analytics(context.Background(), report.KindRevenue)
	require.NoError(t, err)
	revenue, ok := out.(report.RevenueReport)
	require.True(t, ok)
	require.Len(t, revenue.Buckets, 2)
	assert.True(t, revenue.GrandTotal.Equal(decimal.NewFromInt(30)))

	procs, err := svc.ProcedureRanking(context.Background())
	require.NoError(t, err)
	require.Len(t, procs.Buckets, 1)
	assert.Equal(t, "2/2024", procs.Buckets[0].Bucket.Key())

	patients, err := svc.PatientRanking(context.Background())
	require.NoError(t, err)
	require.Len(t, patients.Buckets, 2)

	appts, err := svc.Appointments(context.Background())
	require.NoError(t, err)
	assert.False(t, appts.Empty())

	_, err = svc.Analytics(context.Background(), report.Kind("churn"))
	assert.True(t, errors.Is(err, period.ErrInvalidInput))
}
