package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics exports report computation figures for scraping.
type EngineMetrics struct {
	runs          *prometheus.CounterVec
	lines         *prometheus.CounterVec
	gaps          *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	conflicts     *prometheus.CounterVec
	sourceRecords *prometheus.GaugeVec
	lastNetMargin *prometheus.GaugeVec
}

var (
	engineMetricsOnce sync.Once
	engineMetrics     *EngineMetrics
)

// Engine returns the singleton engine metrics registry.
func Engine() *EngineMetrics {
	return EngineWithConfig(Config{})
}

func EngineWithConfig(cfg Config) *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineMetrics = newEngineMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return engineMetrics
}

// NewEngineMetricsForTest builds engine metrics on a private registry.
func NewEngineMetricsForTest(registerer prometheus.Registerer) *EngineMetrics {
	return newEngineMetrics(registerer, Config{ServiceName: "dre", Environment: "test"})
}

func newEngineMetrics(registerer prometheus.Registerer, cfg Config) *EngineMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "dre"
	}
	constLabels := prometheus.Labels{"service": serviceName}

	m := &EngineMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "dre_engine_runs_total",
			Help:        "Report computations by regime and outcome.",
			ConstLabels: constLabels,
		}, []string{"regime", "outcome"}),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "dre_engine_lines_total",
			Help:        "Ledger lines produced by computations.",
			ConstLabels: constLabels,
		}, []string{"regime"}),
		gaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "dre_engine_classification_gaps_total",
			Help:        "Lines routed to the uncategorized or no-account groups.",
			ConstLabels: constLabels,
		}, []string{"regime"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "dre_engine_source_fetch_failures_total",
			Help:        "Source fetch failures that aborted a computation.",
			ConstLabels: constLabels,
		}, []string{"source"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "dre_engine_upsert_conflicts_total",
			Help:        "Conditional write misses on the report key.",
			ConstLabels: constLabels,
		}, []string{"regime"}),
		sourceRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "dre_engine_source_records",
			Help:        "Records fetched per source in the latest computation.",
			ConstLabels: constLabels,
		}, []string{"source"}),
		lastNetMargin: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "dre_engine_last_net_margin_percent",
			Help:        "Net margin of the latest computation per regime.",
			ConstLabels: constLabels,
		}, []string{"regime"}),
	}
	registerer.MustRegister(m.runs, m.lines, m.gaps, m.fetchFailures, m.conflicts, m.sourceRecords, m.lastNetMargin)
	return m
}

// ObserveRun records a successful computation.
func (m *EngineMetrics) ObserveRun(regime string, lines, gaps int, fetched map[string]int, netMargin float64) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(regime, "ok").Inc()
	m.lines.WithLabelValues(regime).Add(float64(lines))
	m.gaps.WithLabelValues(regime).Add(float64(gaps))
	for source, count := range fetched {
		m.sourceRecords.WithLabelValues(source).Set(float64(count))
	}
	m.lastNetMargin.WithLabelValues(regime).Set(netMargin)
}

func (m *EngineMetrics) IncRunFailed(regime string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(regime, "failed").Inc()
}

func (m *EngineMetrics) IncFetchFailure(source string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(source).Inc()
}

func (m *EngineMetrics) IncConflict(regime string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(regime).Inc()
}
