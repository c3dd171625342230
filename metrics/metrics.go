package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	FeedLines = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "birdfeed_feed_lines_total",
		Help: "Total feed lines read",
	})
	ParseErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "birdfeed_feed_parse_errors_total",
		Help: "Total malformed feed lines skipped",
	})
	RecordsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "birdfeed_records_dropped_total",
		Help: "Total records dropped before dispatch",
	}, []string{"reason"})
	BatchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "birdfeed_batch_failures_total",
		Help: "Total ingestion batches that failed",
	})
	RowsAffected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "birdfeed_rows_affected_total",
		Help: "Total store rows affected per entity",
	}, []string{"entity"})
	IngestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "birdfeed_ingest_duration_seconds",
		Help:    "Ingestion run duration in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(FeedLines, ParseErrors, RecordsDropped, BatchFailures, RowsAffected, IngestDuration)
}

// ObserveIngestDuration records the duration of a run started at start.
func ObserveIngestDuration(start time.Time) {
	IngestDuration.Observe(time.Since(start).Seconds())
}
