package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pm25_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the PM2.5 pipeline.
type Metrics struct {
	PipelineRunning  prometheus.Gauge
	PipelineDuration prometheus.Histogram

	// Fetch metrics.
	ArchivesFetched *prometheus.CounterVec   // labels: kind={archive,metadata}, outcome={success,error}
	BytesDownloaded prometheus.Counter
	FetchDuration   *prometheus.HistogramVec // labels: kind={archive,metadata}

	// Cleaning metrics.
	RowsCleaned         *prometheus.CounterVec // labels: year
	MidnightCorrected   *prometheus.CounterVec // labels: year
	RowsOutOfYear       *prometheus.CounterVec // labels: year
	StationsRenamed     *prometheus.CounterVec // labels: year
	StationsUnknownCity prometheus.Gauge
	StationsMerged      prometheus.Gauge

	// Analysis metrics.
	Observations         prometheus.Gauge
	MissingObservations  prometheus.Gauge
	ExceedancesPublished prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the pipeline is running, 0 otherwise.",
		}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of a complete fetch-clean-merge-write run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		ArchivesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_fetched_total",
			Help:      "GIOŚ downloads by kind and outcome.",
		}, []string{"kind", "outcome"}),
		BytesDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloaded_bytes_total",
			Help:      "Bytes downloaded from the GIOŚ archive.",
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "GIOŚ download and decode duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"kind"}),
		RowsCleaned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_cleaned_total",
			Help:      "Measurement rows kept after cleaning, by source year.",
		}, []string{"year"}),
		MidnightCorrected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "midnight_corrections_total",
			Help:      "Timestamps moved back one second from midnight, by source year.",
		}, []string{"year"}),
		RowsOutOfYear: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_out_of_year_total",
			Help:      "Rows dropped because they fall outside their source year after correction.",
		}, []string{"year"}),
		StationsRenamed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stations_renamed_total",
			Help:      "Station columns rewritten from an old code, by source year.",
		}, []string{"year"}),
		StationsUnknownCity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_unknown_city",
			Help:      "Stations in the merged table without a metadata city.",
		}),
		StationsMerged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_merged",
			Help:      "Stations shared by all requested years.",
		}),
		Observations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observations",
			Help:      "Long-format observations produced by the last analysis.",
		}),
		MissingObservations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observations_missing",
			Help:      "Observations whose value did not parse as a number.",
		}),
		ExceedancesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exceedances_published_total",
			Help:      "Exceedance records published to Kafka.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PipelineRunning,
		m.PipelineDuration,
		m.ArchivesFetched,
		m.BytesDownloaded,
		m.FetchDuration,
		m.RowsCleaned,
		m.MidnightCorrected,
		m.RowsOutOfYear,
		m.StationsRenamed,
		m.StationsUnknownCity,
		m.StationsMerged,
		m.Observations,
		m.MissingObservations,
		m.ExceedancesPublished,
	}
}
