package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricCacheRequestsTotal     = "cravequest_cache_requests_total"
	MetricCacheComputationsTotal = "cravequest_cache_computations_total"
	MetricCacheComputeDuration   = "cravequest_cache_compute_duration_seconds"
	MetricJobRunsTotal           = "cravequest_job_runs_total"
	MetricEventsConsumedTotal    = "cravequest_events_consumed_total"
)

// 缓存请求结果
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultStale = "stale"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusTimeout = "timeout"
)

// Metrics 进程内所有 prometheus 指标，并发安全
type Metrics struct {
	cacheRequests     *prometheus.CounterVec
	cacheComputations *prometheus.CounterVec
	computeDuration   *prometheus.HistogramVec
	jobRuns           *prometheus.CounterVec
	eventsConsumed    *prometheus.CounterVec
}

// NewMetrics 创建指标，需调用 Register 注册
func NewMetrics() *Metrics {
	return &Metrics{
		cacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheRequestsTotal,
				Help: "Cache lookups by key namespace and result",
			},
			[]string{"namespace", "result"},
		),
		cacheComputations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheComputationsTotal,
				Help: "Snapshot computations by key namespace and status",
			},
			[]string{"namespace", "status"},
		),
		computeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricCacheComputeDuration,
				Help:    "Duration of snapshot computations in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"namespace"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricJobRunsTotal,
				Help: "Cron job executions by job and status",
			},
			[]string{"job", "status"},
		),
		eventsConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEventsConsumedTotal,
				Help: "Binlog events consumed by table and status",
			},
			[]string{"table", "status"},
		),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors 返回全部 collector
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.cacheRequests,
		m.cacheComputations,
		m.computeDuration,
		m.jobRuns,
		m.eventsConsumed,
	}
}

// IncCacheRequest key 按第一个冒号前的部分归类，避免标签基数膨胀
func (m *Metrics) IncCacheRequest(key, result string) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(Namespace(key), result).Inc()
}

func (m *Metrics) ObserveComputation(key, status string, seconds float64) {
	if m == nil {
		return
	}
	ns := Namespace(key)
	m.cacheComputations.WithLabelValues(ns, status).Inc()
	m.computeDuration.WithLabelValues(ns).Observe(seconds)
}

func (m *Metrics) IncJobRun(job, status string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
}

func (m *Metrics) IncEvent(table, status string) {
	if m == nil {
		return
	}
	m.eventsConsumed.WithLabelValues(table, status).Inc()
}

// Namespace ranking:today:overall -> ranking
func Namespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
