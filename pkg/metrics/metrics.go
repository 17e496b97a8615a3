// Package metrics Prometheus指标
//
// 命名规范：Counter以_total结尾，Histogram以单位结尾（_seconds）。
// 标签只使用有限取值（method、status、kind），不要使用user_id、book_id。
//
//	metrics.InitMetrics()
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	// HTTP请求

	// HTTPRequestsTotal HTTP请求总数，标签：method、path、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时，标签：method、path
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 评论

	// ReviewUpsertsTotal 评论写入总数，标签：result（success/failure）
	ReviewUpsertsTotal *prometheus.CounterVec

	// ReviewDeletesTotal 评论删除总数，标签：deleted（true/false）
	ReviewDeletesTotal *prometheus.CounterVec

	// 外部书目

	// RemoteLookupsTotal 外部书目查询总数，标签：op（lookup/search）、result（found/not_found/error）
	RemoteLookupsTotal *prometheus.CounterVec

	// RemoteLookupDuration 外部书目查询耗时
	RemoteLookupDuration prometheus.Histogram

	// CircuitBreakerState 熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN），标签：name
	CircuitBreakerState *prometheus.GaugeVec

	// 后台任务

	// JobsSubmittedTotal 任务提交总数，标签：kind
	JobsSubmittedTotal *prometheus.CounterVec

	// JobExecutionsTotal 任务执行总数，标签：kind、state（done/failed）
	JobExecutionsTotal *prometheus.CounterVec

	// JobDuration 任务执行耗时，标签：kind
	JobDuration *prometheus.HistogramVec

	// JobsInProgress 正在执行的任务数
	JobsInProgress prometheus.Gauge
)

// InitMetrics 注册所有指标到默认Registry，可重复调用
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求耗时（秒）",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		})

		ReviewUpsertsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_upserts_total",
				Help: "评论写入总数",
			},
			[]string{"result"},
		)

		ReviewDeletesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_deletes_total",
				Help: "评论删除请求总数",
			},
			[]string{"deleted"},
		)

		RemoteLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "remote_catalogue_lookups_total",
				Help: "外部书目查询总数",
			},
			[]string{"op", "result"},
		)

		// 外部接口较慢，桶从50ms开始
		RemoteLookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "remote_catalogue_lookup_duration_seconds",
			Help:    "外部书目查询耗时（秒）",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		})

		CircuitBreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
			},
			[]string{"name"},
		)

		JobsSubmittedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobs_submitted_total",
				Help: "后台任务提交总数",
			},
			[]string{"kind"},
		)

		JobExecutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "job_executions_total",
				Help: "后台任务执行总数",
			},
			[]string{"kind", "state"},
		)

		JobDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "job_duration_seconds",
				Help:    "后台任务耗时（秒）",
				Buckets: []float64{0.01, 0.1, 1, 5, 30, 120, 600},
			},
			[]string{"kind"},
		)

		JobsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
			Name: "jobs_in_progress",
			Help: "正在执行的后台任务数",
		})
	})
}

// IncCounterVec 递增CounterVec（带标签）
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge != nil {
		gauge.Inc()
	}
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge != nil {
		gauge.Dec()
	}
}

// SetGaugeVec 设置GaugeVec值（带标签）
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	if histogram != nil {
		histogram.Observe(value)
	}
}

// ObserveHistogramVec 记录HistogramVec观测值（带标签）
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}
