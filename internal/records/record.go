// Package records models stored appointments and parses raw tabular rows into
// typed records.
package records

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wolfman30/spa-ledger/internal/catalog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateLayout is the fixed on-disk and user-facing date format.
const DateLayout = "02/01/2006"

// parseLayout accepts one or two digit day and month.
const parseLayout = "2/1/2006"

// Column names of the tabular store, in write order.
const (
	ColumnDate       = "Date"
	ColumnPatient    = "Patient"
	ColumnProcedures = "Procedures"
	ColumnPrice      = "Price"
)

// Columns lists the store schema in order.
var Columns = []string{ColumnDate, ColumnPatient, ColumnProcedures, ColumnPrice}

// ErrMalformedRecord marks a stored row whose date or price cannot be parsed.
var ErrMalformedRecord = errors.New("records: malformed record")

// Row is one raw store row keyed by column name.
type Row map[string]string

// Record is a parsed appointment.
type Record struct {
	Date       time.Time       `json:"date"`
	Patient    string          `json:"patient"`
	Procedures []string        `json:"procedures"`
	Price      decimal.Decimal `json:"price"`
	// Position addresses the row in the store for deletion. Zero when the
	// record was loaded without position tracking.
	Position int `json:"position,omitempty"`
}

var titleCaser = cases.Title(language.BrazilianPortuguese)

// TitleName renders a patient name for display. Blank names render as N/A.
func TitleName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "N/A"
	}
	return titleCaser.String(name)
}

// PatientName is the display form of the patient.
func (r Record) PatientName() string {
	return TitleName(r.Patient)
}

// ProcedureNames returns display names; unknown slugs come back upper-cased.
func (r Record) ProcedureNames() []string {
	names := make([]string, 0, len(r.Procedures))
	for _, slug := range r.Procedures {
		names = append(names, catalog.DisplayName(slug))
	}
	return names
}

// DateString formats the record date with DateLayout.
func (r Record) DateString() string {
	return r.Date.Format(DateLayout)
}

// SameContent reports whether two records describe the same appointment,
// ignoring position and patient case.
func (r Record) SameContent(other Record) bool {
	if !SameDay(r.Date, other.Date) || !r.Price.Equal(other.Price) {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(r.Patient), strings.TrimSpace(other.Patient)) {
		return false
	}
	return EncodeProcedures(r.Procedures) == EncodeProcedures(other.Procedures)
}

// Day returns the calendar date of t as midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay compares calendar dates only.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses a DD/MM/YYYY string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(parseLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// ParsePrice parses a decimal amount, accepting ',' or '.' as separator.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return decimal.NewFromString(s)
}

// FormatBRL renders an amount as Brazilian currency, e.g. "R$ 10,50".
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}
