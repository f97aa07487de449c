package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Handler struct {
	RequestsReceived       *prometheus.CounterVec
	IngestLinesProcessed   prometheus.Counter
	IngestRecordsExtracted *prometheus.CounterVec
	IngestLinesSkipped     *prometheus.CounterVec
	IngestDuration         prometheus.Histogram
	ExportRowsStreamed     prometheus.Counter
	QueryCacheHits         prometheus.Counter
	QueryCacheMisses       prometheus.Counter
}

type Options struct {
	// Additional labels necessary
}

func New(name string) (*Handler, error) {
	return &Handler{
		RequestsReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_received",
			Help: "The total number of http requests received",
		}, []string{"status"}),
		IngestLinesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ingest_lines_processed_total",
			Help: "The total number of source log lines read",
		}),
		IngestRecordsExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_records_extracted_total",
			Help: "The total number of records extracted, by record kind",
		}, []string{"kind"}),
		IngestLinesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_lines_skipped_total",
			Help: "The total number of lines dropped without a record",
		}, []string{"reason"}),
		IngestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "The wall-clock duration of full ingest passes",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		ExportRowsStreamed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "export_rows_streamed_total",
			Help: "The total number of CSV rows streamed to exports",
		}),
		QueryCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "query_cache_hits_total",
			Help: "The total number of query pages served from cache",
		}),
		QueryCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "query_cache_misses_total",
			Help: "The total number of query pages built from a store scan",
		}),
	}, nil
}

// IncRequestsReceived increments the HTTP request counter for a status class.
func (h *Handler) IncRequestsReceived(status string) {
	h.RequestsReceived.WithLabelValues(status).Inc()
}

// AddLinesProcessed adds to the processed-line counter.
func (h *Handler) AddLinesProcessed(n int) {
	h.IngestLinesProcessed.Add(float64(n))
}

// IncRecordsExtracted increments the extracted-record counter for a kind.
func (h *Handler) IncRecordsExtracted(kind string) {
	h.IngestRecordsExtracted.WithLabelValues(kind).Inc()
}

// IncLinesSkipped increments the skipped-line counter for a drop reason.
func (h *Handler) IncLinesSkipped(reason string) {
	h.IngestLinesSkipped.WithLabelValues(reason).Inc()
}

// ObserveIngestDuration records the duration of one full ingest pass.
func (h *Handler) ObserveIngestDuration(d time.Duration) {
	h.IngestDuration.Observe(d.Seconds())
}

// AddExportRows adds to the exported-row counter.
func (h *Handler) AddExportRows(n int) {
	h.ExportRowsStreamed.Add(float64(n))
}

// IncQueryCacheHit increments the query cache hit counter.
func (h *Handler) IncQueryCacheHit() {
	h.QueryCacheHits.Inc()
}

// IncQueryCacheMiss increments the query cache miss counter.
func (h *Handler) IncQueryCacheMiss() {
	h.QueryCacheMisses.Inc()
}
