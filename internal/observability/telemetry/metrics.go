package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Report pipeline
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outlet_kpi_sessions_total",
		Help: "Upload sessions computed, by result",
	}, []string{"result"})

	RowsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outlet_kpi_rows_ingested_total",
		Help: "Source rows accepted, by table kind",
	}, []string{"kind"})

	ParseErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outlet_kpi_parse_errors_total",
		Help: "Scan log cells that could not be parsed",
	})

	UnmatchedEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "outlet_kpi_unmatched_events_total",
		Help: "Scan events referencing outlets missing from the registry",
	})

	PipelineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outlet_kpi_pipeline_duration_seconds",
		Help:    "Time spent per pipeline stage",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
)

// NewSessionGauge reports the live session count read from the store at
// scrape time, so expired sessions drop out without bookkeeping.
func NewSessionGauge(count func() int) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "outlet_kpi_active_sessions",
		Help: "Live sessions held by the memory session store",
	}, func() float64 { return float64(count()) })
}
