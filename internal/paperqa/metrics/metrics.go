// Package metrics 提供 paperqa 服务的 Prometheus 指标。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "paperqa"

// Query results.
const (
	ResultAnswered = "answered"
	ResultCached   = "cached"
	ResultError    = "error"
)

// Metrics 持有服务的全部指标，使用独立的 Registry，便于测试。
type Metrics struct {
	registry *prometheus.Registry

	queries       *prometheus.CounterVec
	queryDuration prometheus.Histogram
	stageDuration *prometheus.HistogramVec
	stageOutcomes *prometheus.CounterVec
	grades        *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates the metrics and registers them, together with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Questions handled, by result.",
		}, []string{"result"}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "End to end workflow latency of answered questions.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_stage_duration_seconds",
			Help:      "Latency of each workflow stage.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		stageOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_stage_outcomes_total",
			Help:      "Workflow stage outcomes; any_irrelevant on an evaluation stage is an escalation.",
		}, []string{"stage", "outcome"}),
		grades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grader_verdicts_total",
			Help:      "Evidence grading verdicts.",
		}, []string{"stage", "verdict"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.queries, m.queryDuration,
		m.stageDuration, m.stageOutcomes, m.grades,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveQuery records one question. elapsed is only observed for answered
// questions.
func (m *Metrics) ObserveQuery(result string, elapsed time.Duration) {
	m.queries.WithLabelValues(result).Inc()
	if result == ResultAnswered {
		m.queryDuration.Observe(elapsed.Seconds())
	}
}

// ObserveStage implements workflow.Observer.
func (m *Metrics) ObserveStage(stage, trigger string, elapsed time.Duration, err error) {
	outcome := trigger
	if err != nil {
		outcome = ResultError
	}
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	m.stageOutcomes.WithLabelValues(stage, outcome).Inc()
}

// ObserveGrade implements workflow.Observer.
func (m *Metrics) ObserveGrade(stage string, relevant bool) {
	verdict := "irrelevant"
	if relevant {
		verdict = "relevant"
	}
	m.grades.WithLabelValues(stage, verdict).Inc()
}

// Middleware records request counts and latency. Unmatched routes share one
// label so arbitrary paths cannot blow up cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
