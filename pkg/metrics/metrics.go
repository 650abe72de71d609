package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TradesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trades_recorded_total",
		Help: "Total number of trades recorded against listed stocks",
	}, []string{"side", "status"})

	LedgerQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_query_duration_seconds",
		Help:    "Duration of ledger backed calculations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	TradesInWindow = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ledger_window_trades",
		Help:    "Number of trades read from the trailing window per query",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	})

	CalculationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calculation_errors_total",
		Help: "Total number of pricing calculations that could not be computed",
	}, []string{"operation", "reason"})

	ListedStocks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listed_stocks",
		Help: "Number of stocks listed on the exchange",
	})

	FilesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trade_files_ingested_total",
		Help: "Total number of trade files processed",
	}, []string{"status"})
)

func RecordTrade(side, status string) {
	TradesRecorded.WithLabelValues(side, status).Inc()
}

func RecordCalculationError(operation, reason string) {
	CalculationErrors.WithLabelValues(operation, reason).Inc()
}

func RecordFileIngested(ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	FilesIngested.WithLabelValues(status).Inc()
}

type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(time.Since(t.start).Seconds())
}

func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}
