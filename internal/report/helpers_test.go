package report

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wolfman30/spa-ledger/internal/records"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func rec(d time.Time, patient, price string, procs ...string) records.Record {
	return records.Record{
		Date:       d,
		Patient:    patient,
		Procedures: procs,
		Price:      decimal.RequireFromString(price),
	}
}
