package analytics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter    *prometheus.CounterVec
	cacheMissCounter   *prometheus.CounterVec
	reportBuildSeconds *prometheus.HistogramVec
	cacheMetricsError  error
)

// SetupCacheMetrics registers the report cache collectors. Registration
// happens once; later calls return the first outcome.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	cacheHitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_report_cache_hits_total",
		Help: "Number of financial report cache hits.",
	}, []string{"report", "tenant"})
	cacheMissCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_report_cache_miss_total",
		Help: "Number of financial report cache misses.",
	}, []string{"report", "tenant"})
	reportBuildSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_report_build_duration_seconds",
		Help:    "Duration required to fetch and build a financial report.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report", "tenant"})

	for _, collector := range []prometheus.Collector{cacheHitCounter, cacheMissCounter, reportBuildSeconds} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				switch c := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == cacheHitCounter {
						cacheHitCounter = c
					} else {
						cacheMissCounter = c
					}
				case *prometheus.HistogramVec:
					reportBuildSeconds = c
				default:
					cacheMetricsError = fmt.Errorf("report cache metrics: unexpected collector type %T", c)
				}
				continue
			}
			cacheMetricsError = err
			cacheHitCounter = nil
			cacheMissCounter = nil
			reportBuildSeconds = nil
			cacheMetricsInitialized = true
			return cacheMetricsError
		}
	}

	cacheMetricsInitialized = true
	return cacheMetricsError
}

func recordCacheHit(report, tenant string) {
	if cacheHitCounter == nil {
		return
	}
	cacheHitCounter.WithLabelValues(report, tenant).Inc()
}

func recordCacheMiss(report, tenant string) {
	if cacheMissCounter == nil {
		return
	}
	cacheMissCounter.WithLabelValues(report, tenant).Inc()
}

func observeBuildDuration(report, tenant string, d time.Duration) {
	if reportBuildSeconds == nil {
		return
	}
	reportBuildSeconds.WithLabelValues(report, tenant).Observe(d.Seconds())
}
