// Package report filters records into ranges and builds billing-month
// analytics.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wolfman30/spa-ledger/internal/records"
)

// DayGroup holds the records of one calendar day in load order.
type DayGroup struct {
	Date    time.Time        `json:"date"`
	Records []records.Record `json:"records"`
	Total   decimal.Decimal  `json:"total"`
}

// RangeSummary is the result of FilterAndGroup.
type RangeSummary struct {
	Start time.Time       `json:"start"`
	End   time.Time       `json:"end"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
	Days  []DayGroup      `json:"days"`
}

// Empty reports whether no record matched.
func (s RangeSummary) Empty() bool {
	return s.Count == 0
}

// FilterAndGroup keeps records with start <= date <= end, grouped by day in
// ascending date order. Both bounds are inclusive.
func FilterAndGroup(recs []records.Record, start, end time.Time) RangeSummary {
	start, end = records.Day(start), records.Day(end)
	summary := RangeSummary{Start: start, End: end, Total: decimal.Zero, Days: []DayGroup{}}

	index := make(map[time.Time]int)
	for _, rec := range recs {
		day := records.Day(rec.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		i, ok := index[day]
		if !ok {
			i = len(summary.Days)
			index[day] = i
			summary.Days = append(summary.Days, DayGroup{Date: day, Total: decimal.Zero})
		}
		summary.Days[i].Records = append(summary.Days[i].Records, rec)
		summary.Days[i].Total = summary.Days[i].Total.Add(rec.Price)
		summary.Total = summary.Total.Add(rec.Price)
		summary.Count++
	}

	sort.SliceStable(summary.Days, func(i, j int) bool {
		return summary.Days[i].Date.Before(summary.Days[j].Date)
	})
	return summary
}
