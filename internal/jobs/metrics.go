package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs      *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	anomalies *prometheus.CounterVec
	imbalance *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// AddAnomalies increments the ledger anomaly counter for a check kind
// (trial_balance, balance_sheet, cash_flow) and tenant.
func (m *Metrics) AddAnomalies(kind, tenant string, count int) {
	if m == nil || count <= 0 {
		return
	}
	if tenant == "" {
		tenant = "-"
	}
	m.anomalies.WithLabelValues(kind, tenant).Add(float64(count))
}

// SetImbalance records the latest absolute difference reported by a check.
// Zero means the check passed.
func (m *Metrics) SetImbalance(kind, tenant string, amount float64) {
	if m == nil {
		return
	}
	if tenant == "" {
		tenant = "-"
	}
	m.imbalance.WithLabelValues(kind, tenant).Set(amount)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	anomalies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_ledger_anomalies_total",
		Help: "Ledger integrity anomalies grouped by check and tenant.",
	}, []string{"kind", "tenant"})
	imbalance := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "odyssey_ledger_imbalance_amount",
		Help: "Absolute difference reported by the latest ledger integrity check.",
	}, []string{"kind", "tenant"})
	registerer.MustRegister(runs, failures, duration, anomalies, imbalance)
	return &Metrics{runs: runs, failures: failures, duration: duration, anomalies: anomalies, imbalance: imbalance}
}
