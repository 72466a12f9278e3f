package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/spa-ledger/internal/period"
	"github.com/wolfman30/spa-ledger/internal/records"
)

// BillingMonth is a rolling month running from the 7th to the 6th of the next
// calendar month, named after the month it starts in.
type BillingMonth struct {
	Year  int
	Month time.Month
}

// BucketOf assigns a date to its billing month: days before the 7th belong to
// the previous calendar month.
func BucketOf(d time.Time) BillingMonth {
	if d.Day() < period.BillingDay {
		prev := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		return BillingMonth{Year: prev.Year(), Month: prev.Month()}
	}
	return BillingMonth{Year: d.Year(), Month: d.Month()}
}

// Key renders the bucket as "month/year", e.g. "12/2023".
func (b BillingMonth) Key() string {
	return fmt.Sprintf("%d/%d", int(b.Month), b.Year)
}

// String implements fmt.Stringer.
func (b BillingMonth) String() string { return b.Key() }

// Before orders buckets chronologically.
func (b BillingMonth) Before(other BillingMonth) bool {
	if b.Year != other.Year {
		return b.Year < other.Year
	}
	return b.Month < other.Month
}

// Period returns the date range the bucket covers.
func (b BillingMonth) Period() period.Period {
	return period.MonthlyReport(b.Year, b.Month)
}

// MarshalJSON encodes the bucket as its key.
func (b BillingMonth) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Key())
}

// UnmarshalJSON decodes a bucket key.
func (b *BillingMonth) UnmarshalJSON(data []byte) error {
	var key string
	if err := json.Unmarshal(data, &key); err != nil {
		return err
	}
	parsed, err := ParseBucketKey(key)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBucketKey parses a "month/year" key back into a bucket.
func ParseBucketKey(key string) (BillingMonth, error) {
	m, y, ok := strings.Cut(strings.TrimSpace(key), "/")
	if !ok {
		return BillingMonth{}, fmt.Errorf("report: bad bucket key %q", key)
	}
	month, err := strconv.Atoi(m)
	if err != nil || month < 1 || month > 12 {
		return BillingMonth{}, fmt.Errorf("report: bad bucket month %q", key)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return BillingMonth{}, fmt.Errorf("report: bad bucket year %q", key)
	}
	return BillingMonth{Year: year, Month: time.Month(month)}, nil
}

// GroupByBillingMonth buckets records and returns the buckets in
// chronological order.
func GroupByBillingMonth(recs []records.Record) ([]BillingMonth, map[BillingMonth][]records.Record) {
	groups := make(map[BillingMonth][]records.Record)
	for _, rec := range recs {
		b := BucketOf(rec.Date)
		groups[b] = append(groups[b], rec)
	}
	return sortedBuckets(groups), groups
}

func sortedBuckets[V any](m map[BillingMonth]V) []BillingMonth {
	keys := make([]BillingMonth, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}
