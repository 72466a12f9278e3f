package report

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/wolfman30/spa-ledger/internal/catalog"
	"github.com/wolfman30/spa-ledger/internal/records"
)

// ErrNoData is returned when there are no records at all to analyze.
var ErrNoData = errors.New("report: no data to analyze")

// Kind names one of the analytics reports.
type Kind string

const (
	KindRevenue      Kind = "revenue"
	KindAppointments Kind = "appointments"
	KindProcedures   Kind = "procedures"
	KindPatients     Kind = "patients"
)

// Kinds lists the analytics reports in menu order.
var Kinds = []Kind{KindRevenue, KindAppointments, KindProcedures, KindPatients}

// RevenueBucket is the revenue of one billing month.
type RevenueBucket struct {
	Bucket BillingMonth    `json:"bucket"`
	Total  decimal.Decimal `json:"total"`
}

// RevenueReport sums prices per billing month.
type RevenueReport struct {
	Buckets    []RevenueBucket `json:"buckets"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// Empty reports the no-data state.
func (r RevenueReport) Empty() bool { return len(r.Buckets) == 0 }

// CountBucket is the appointment count of one billing month.
type CountBucket struct {
	Bucket BillingMonth `json:"bucket"`
	Count  int          `json:"count"`
}

// AppointmentReport counts records per billing month.
type AppointmentReport struct {
	Buckets []CountBucket `json:"buckets"`
}

// Empty reports the no-data state.
func (r AppointmentReport) Empty() bool { return len(r.Buckets) == 0 }

// RankEntry is one ranked name with its count.
type RankEntry struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RankedBucket holds the ranking of one billing month.
type RankedBucket struct {
	Bucket  BillingMonth `json:"bucket"`
	Entries []RankEntry  `json:"entries"`
}

// RankingReport ranks procedures or patients per billing month.
type RankingReport struct {
	Kind    Kind           `json:"kind"`
	Buckets []RankedBucket `json:"buckets"`
}

// Empty reports the no-data state.
func (r RankingReport) Empty() bool { return len(r.Buckets) == 0 }

// Revenue sums prices per billing month plus a grand total.
func Revenue(recs []records.Record) RevenueReport {
	buckets, groups := GroupByBillingMonth(recs)
	out := RevenueReport{Buckets: make([]RevenueBucket, 0, len(buckets)), GrandTotal: decimal.Zero}
	for _, b := range buckets {
		total := decimal.Zero
		for _, rec := range groups[b] {
			total = total.Add(rec.Price)
		}
		out.Buckets = append(out.Buckets, RevenueBucket{Bucket: b, Total: total})
		out.GrandTotal = out.GrandTotal.Add(total)
	}
	return out
}

// Appointments counts records per billing month.
func Appointments(recs []records.Record) AppointmentReport {
	buckets, groups := GroupByBillingMonth(recs)
	out := AppointmentReport{Buckets: make([]CountBucket, 0, len(buckets))}
	for _, b := range buckets {
		out.Buckets = append(out.Buckets, CountBucket{Bucket: b, Count: len(groups[b])})
	}
	return out
}

// Procedures counts catalog-known procedures per billing month. A record with
// N procedures feeds N counters. Ties rank by display name.
func Procedures(recs []records.Record) RankingReport {
	counts := make(map[BillingMonth]map[string]int)
	for _, rec := range recs {
		b := BucketOf(rec.Date)
		for _, slug := range rec.Procedures {
			if !catalog.Known(slug) {
				continue
			}
			if counts[b] == nil {
				counts[b] = make(map[string]int)
			}
			counts[b][slug]++
		}
	}
	return rank(KindProcedures, counts, catalog.DisplayName)
}

// Patients counts records per title-cased patient name per billing month.
// Ties rank by name.
func Patients(recs []records.Record) RankingReport {
	counts := make(map[BillingMonth]map[string]int)
	for _, rec := range recs {
		b := BucketOf(rec.Date)
		if counts[b] == nil {
			counts[b] = make(map[string]int)
		}
		counts[b][rec.PatientName()]++
	}
	return rank(KindPatients, counts, func(name string) string { return name })
}

func rank(kind Kind, counts map[BillingMonth]map[string]int, name func(string) string) RankingReport {
	out := RankingReport{Kind: kind, Buckets: make([]RankedBucket, 0, len(counts))}
	for _, b := range sortedBuckets(counts) {
		entries := make([]RankEntry, 0, len(counts[b]))
		for key, n := range counts[b] {
			entries = append(entries, RankEntry{Key: key, Name: name(key), Count: n})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Count != entries[j].Count {
				return entries[i].Count > entries[j].Count
			}
			if entries[i].Name != entries[j].Name {
				return entries[i].Name < entries[j].Name
			}
			return entries[i].Key < entries[j].Key
		})
		out.Buckets = append(out.Buckets, RankedBucket{Bucket: b, Entries: entries})
	}
	return out
}
