// Package period turns user-selected or typed time periods into concrete
// inclusive calendar ranges.
package period

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/spa-ledger/internal/records"
)

// ErrInvalidInput is returned for unparseable dates, months or ranges and for
// unknown modes. No partial result accompanies it.
var ErrInvalidInput = errors.New("period: invalid input")

const (
	monthLayout      = "01/2006"
	monthParseLayout = "1/2006"

	// BillingDay is the first day of a billing month.
	BillingDay = 7
)

// Mode selects how a period is computed.
type Mode string

const (
	ModeDay           Mode = "day"
	ModeWeek          Mode = "week"
	ModeMonth         Mode = "month"
	ModeRange         Mode = "range"
	ModeMonthlyReport Mode = "monthly_report"
)

var modeAliases = map[string]Mode{
	"day":              ModeDay,
	"dia":              ModeDay,
	"week":             ModeWeek,
	"semana":           ModeWeek,
	"month":            ModeMonth,
	"mes":              ModeMonth,
	"range":            ModeRange,
	"periodo":          ModeRange,
	"monthly_report":   ModeMonthlyReport,
	"relatorio":        ModeMonthlyReport,
	"relatorio_mensal": ModeMonthlyReport,
}

// ParseMode accepts the English mode names and the Portuguese button keywords.
func ParseMode(s string) (Mode, error) {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
}

// Period is an inclusive calendar range with a descriptive label.
type Period struct {
	Mode  Mode      `json:"mode"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Contains reports whether the calendar date of d falls in the period.
func (p Period) Contains(d time.Time) bool {
	d = records.Day(d)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Resolve computes the period for mode. An empty input means "the current
// day/week/month" relative to now; range mode always requires input.
func Resolve(mode Mode, input string, now time.Time) (Period, error) {
	input = strings.TrimSpace(input)
	switch mode {
	case ModeDay:
		return resolveDay(input, now)
	case ModeWeek:
		return resolveWeek(input, now)
	case ModeMonth:
		return resolveMonth(input, now)
	case ModeRange:
		return resolveRange(input)
	case ModeMonthlyReport:
		return resolveMonthlyReport(input, now)
	default:
		return Period{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, mode)
	}
}

func resolveDay(input string, now time.Time) (Period, error) {
	day := records.Day(now)
	if input != "" {
		d, err := parseDate(input)
		if err != nil {
			return Period{}, err
		}
		day = d
	}
	return Period{
		Mode:  ModeDay,
		Start: day,
		End:   day,
		Label: "o dia " + day.Format(records.DateLayout),
	}, nil
}

func resolveWeek(input string, now time.Time) (Period, error) {
	ref := records.Day(now)
	if input != "" {
		d, err := parseDate(input)
		if err != nil {
			return Period{}, err
		}
		ref = d
	}
	start, end := WeekBounds(ref)
	return Period{
		Mode:  ModeWeek,
		Start: start,
		End:   end,
		Label: fmt.Sprintf("a semana de %s a %s", start.Format(records.DateLayout), end.Format(records.DateLayout)),
	}, nil
}

func resolveMonth(input string, now time.Time) (Period, error) {
	year, month := now.Year(), now.Month()
	if input != "" {
		y, m, err := ParseMonth(input)
		if err != nil {
			return Period{}, err
		}
		year, month = y, m
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{
		Mode:  ModeMonth,
		Start: start,
		End:   LastDayOfMonth(start),
		Label: "o mês " + start.Format(monthLayout),
	}, nil
}

func resolveRange(input string) (Period, error) {
	parts := strings.Fields(input)
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("%w: range needs exactly two dates, got %d", ErrInvalidInput, len(parts))
	}
	start, err := parseDate(parts[0])
	if err != nil {
		return Period{}, err
	}
	end, err := parseDate(parts[1])
	if err != nil {
		return Period{}, err
	}
	return Period{
		Mode:  ModeRange,
		Start: start,
		End:   end,
		Label: fmt.Sprintf("o período de %s a %s", start.Format(records.DateLayout), end.Format(records.DateLayout)),
	}, nil
}

func resolveMonthlyReport(input string, now time.Time) (Period, error) {
	year, month := now.Year(), now.Month()
	if input != "" {
		y, m, err := ParseMonth(input)
		if err != nil {
			return Period{}, err
		}
		year, month = y, m
	}
	return MonthlyReport(year, month), nil
}

// MonthlyReport returns the billing month that starts on the 7th of the given
// month and ends on the 6th of the following one.
func MonthlyReport(year int, month time.Month) Period {
	start := time.Date(year, month, BillingDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, month+1, BillingDay-1, 0, 0, 0, 0, time.UTC)
	return Period{
		Mode:  ModeMonthlyReport,
		Start: start,
		End:   end,
		Label: fmt.Sprintf("o relatório mensal de %s a %s", start.Format(records.DateLayout), end.Format(records.DateLayout)),
	}
}

// WeekBounds returns the Monday-to-Sunday week containing d.
func WeekBounds(d time.Time) (time.Time, time.Time) {
	d = records.Day(d)
	start := d.AddDate(0, 0, -WeekdayIndex(d))
	return start, start.AddDate(0, 0, 6)
}

// WeekdayIndex numbers days from Monday (0) to Sunday (6).
func WeekdayIndex(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// LastDayOfMonth steps from the 28th past the month boundary and back, so no
// month lengths are hardcoded.
func LastDayOfMonth(d time.Time) time.Time {
	d28 := time.Date(d.Year(), d.Month(), 28, 0, 0, 0, 0, time.UTC)
	next := d28.AddDate(0, 0, 4)
	firstOfNext := time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1)
}

// ParseMonth parses MM/YYYY.
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse(monthParseLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: month %q", ErrInvalidInput, s)
	}
	return t.Year(), t.Month(), nil
}

// ParseDayMonth parses a short DD/MM date in the year of now.
func ParseDayMonth(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrInvalidInput)
	}
	return parseDate(fmt.Sprintf("%s/%d", s, now.Year()))
}

func parseDate(s string) (time.Time, error) {
	d, err := records.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidInput, s)
	}
	return d, nil
}
