package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics exposes counters/histograms for ledger operations.
type LedgerMetrics struct {
	operationsTotal *prometheus.CounterVec
	malformedRows   prometheus.Counter
	latency         *prometheus.HistogramVec
}

func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spaledger",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total ledger operations by outcome",
		}, []string{"operation", "status"}),
		malformedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "spaledger",
			Subsystem: "ledger",
			Name:      "malformed_rows_total",
			Help:      "Rows skipped while loading the store",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "spaledger",
			Subsystem: "ledger",
			Name:      "operation_seconds",
			Help:      "Latency of ledger operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.operationsTotal, m.malformedRows, m.latency)
	return m
}

func (m *LedgerMetrics) ObserveOperation(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.latency.WithLabelValues(operation).Observe(seconds)
}

func (m *LedgerMetrics) ObserveMalformedRow() {
	if m == nil {
		return
	}
	m.malformedRows.Inc()
}

// TelegramMetrics counts chat updates.
type TelegramMetrics struct {
	updatesTotal *prometheus.CounterVec
}

func NewTelegramMetrics(reg prometheus.Registerer) *TelegramMetrics {
	m := &TelegramMetrics{
		updatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spaledger",
			Subsystem: "telegram",
			Name:      "updates_total",
			Help:      "Total Telegram webhook updates",
		}, []string{"kind", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.updatesTotal)
	return m
}

func (m *TelegramMetrics) ObserveUpdate(kind, status string) {
	if m == nil {
		return
	}
	m.updatesTotal.WithLabelValues(kind, status).Inc()
}
