package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brt = time.FixedZone("UTC-3", -3*3600)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveMonthLeapYear(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, brt)

	p, err := Resolve(ModeMonth, "02/2024", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 1), p.Start)
	assert.Equal(t, date(2024, 2, 29), p.End)
	assert.Equal(t, "o mês 02/2024", p.Label)

	p, err = Resolve(ModeMonth, "02/2023", now)
	require.NoError(t, err)
	assert.Equal(t, date(2023, 2, 28), p.End)
}

func TestResolveMonthDefaultsToCurrent(t *testing.T) {
	now := time.Date(2024, 12, 31, 23, 0, 0, 0, brt)
	p, err := Resolve(ModeMonth, "", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 12, 1), p.Start)
	assert.Equal(t, date(2024, 12, 31), p.End)
}

func TestLastDayOfMonth(t *testing.T) {
	tests := []struct {
		in   time.Time
		want int
	}{
		{date(2024, 1, 10), 31},
		{date(2024, 4, 1), 30},
		{date(2023, 2, 1), 28},
		{date(2024, 2, 29), 29},
		{date(2024, 12, 5), 31},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LastDayOfMonth(tt.in).Day(), tt.in.String())
	}
}

func TestResolveDay(t *testing.T) {
	now := time.Date(2024, 3, 10, 1, 0, 0, 0, brt)

	p, err := Resolve(ModeDay, "", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 10), p.Start)
	assert.Equal(t, p.Start, p.End)
	assert.Equal(t, "o dia 10/03/2024", p.Label)

	p, err = Resolve(ModeDay, " 5/1/2024 ", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 5), p.Start)

	_, err = Resolve(ModeDay, "31/02/2024", now)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveWeekStartsMonday(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, brt) // Sunday

	p, err := Resolve(ModeWeek, "", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 4), p.Start)
	assert.Equal(t, date(2024, 3, 10), p.End)

	p, err = Resolve(ModeWeek, "01/01/2025", now) // Wednesday
	require.NoError(t, err)
	assert.Equal(t, date(2024, 12, 30), p.Start)
	assert.Equal(t, date(2025, 1, 5), p.End)
	assert.Equal(t, "a semana de 30/12/2024 a 05/01/2025", p.Label)
}

func TestResolveRange(t *testing.T) {
	now := time.Now()

	_, err := Resolve(ModeRange, "01/01/2024", now)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Resolve(ModeRange, "01/01/2024 02/01/2024 03/01/2024", now)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Resolve(ModeRange, "01/01/2024 xx", now)
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := Resolve(ModeRange, "10/01/2024   05/01/2024", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 10), p.Start)
	assert.Equal(t, date(2024, 1, 5), p.End)
	assert.False(t, p.Contains(date(2024, 1, 7)))
}

func TestResolveMonthlyReport(t *testing.T) {
	now := time.Date(2024, 12, 20, 9, 0, 0, 0, brt)

	p, err := Resolve(ModeMonthlyReport, "", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 12, 7), p.Start)
	assert.Equal(t, date(2025, 1, 6), p.End)

	p, err = Resolve(ModeMonthlyReport, "01/2024", now)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 1, 7), p.Start)
	assert.Equal(t, date(2024, 2, 6), p.End)

	_, err = Resolve(ModeMonthlyReport, "13/2024", now)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResolveUnknownMode(t *testing.T) {
	_, err := Resolve(Mode("year"), "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("semana")
	require.NoError(t, err)
	assert.Equal(t, ModeWeek, m)

	m, err = ParseMode("MONTHLY_REPORT")
	require.NoError(t, err)
	assert.Equal(t, ModeMonthlyReport, m)

	_, err = ParseMode("ano")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseDayMonth(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, brt)

	d, err := ParseDayMonth("15/03", now)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 3, 15), d)

	for _, bad := range []string{"", "15", "32/01", "15/03/2024"} {
		_, err := ParseDayMonth(bad, now)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}
}

func TestFixedOffsetClock(t *testing.T) {
	c := NewFixedOffsetClock(-3)
	c.source = func() time.Time { return time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC) }

	now := c.Now()
	assert.Equal(t, 31, now.Day())
	assert.Equal(t, time.December, now.Month())
	assert.Equal(t, 23, now.Hour())
	_, offset := now.Zone()
	assert.Equal(t, -3*3600, offset)
}

func TestFixedClock(t *testing.T) {
	ref := time.Date(2024, 5, 5, 5, 5, 5, 0, brt)
	assert.Equal(t, ref, Fixed(ref).Now())
}
