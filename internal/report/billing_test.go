package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/spa-ledger/internal/records"
)

func TestBucketOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{"sixth goes back", day(2024, 5, 6), "4/2024"},
		{"seventh stays", day(2024, 5, 7), "5/2024"},
		{"january rolls year", day(2024, 1, 5), "12/2023"},
		{"first of march", day(2024, 3, 1), "2/2024"},
		{"end of month", day(2024, 12, 31), "12/2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketOf(tt.in).Key())
		})
	}
}

func TestBucketPeriodCoversItsDays(t *testing.T) {
	b := BillingMonth{Year: 2023, Month: time.December}
	p := b.Period()
	assert.Equal(t, day(2023, 12, 7), p.Start)
	assert.Equal(t, day(2024, 1, 6), p.End)
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		assert.Equal(t, b, BucketOf(d), d.String())
	}
}

func TestGroupByBillingMonthChronological(t *testing.T) {
	recs := []records.Record{
		rec(day(2024, 10, 10), "A", "1"),
		rec(day(2024, 2, 10), "B", "1"),
		rec(day(2023, 12, 20), "C", "1"),
		rec(day(2024, 1, 3), "D", "1"),
	}
	buckets, groups := GroupByBillingMonth(recs)

	keys := make([]string, 0, len(buckets))
	for _, b := range buckets {
		keys = append(keys, b.Key())
	}
	// lexical order would put 10/2024 first
	assert.Equal(t, []string{"12/2023", "2/2024", "10/2024"}, keys)
	assert.Len(t, groups[BillingMonth{Year: 2023, Month: time.December}], 2)
}

func TestParseBucketKey(t *testing.T) {
	b, err := ParseBucketKey("12/2023")
	require.NoError(t, err)
	assert.Equal(t, BillingMonth{Year: 2023, Month: time.December}, b)

	for _, bad := range []string{"", "2023", "13/2023", "x/2023", "1/y"} {
		_, err := ParseBucketKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestBillingMonthJSON(t *testing.T) {
	data, err := json.Marshal(BillingMonth{Year: 2024, Month: time.March})
	require.NoError(t, err)
	assert.JSONEq(t, `"3/2024"`, string(data))

	var b BillingMonth
	require.NoError(t, json.Unmarshal(data, &b))
	assert.Equal(t, time.March, b.Month)
}
