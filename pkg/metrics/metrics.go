// Package metrics 提供基于Prometheus的指标收集
//
// 指标通过GET /metrics端点暴露，由Prometheus Server定时抓取。
// 指标命名遵循Prometheus规范：<名词>_<单位>_<类型后缀>
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal HTTP请求总数
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（秒）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// BooksCreatedTotal 图书创建总数
	BooksCreatedTotal prometheus.Counter

	// BooksExportedTotal CSV导出的图书行数
	BooksExportedTotal prometheus.Counter

	// LoginAttemptsTotal 登录尝试总数（result: success/failure）
	LoginAttemptsTotal *prometheus.CounterVec

	initOnce sync.Once
)

// InitMetrics 初始化所有指标（进程内只执行一次，并发调用安全）
func InitMetrics() {
	initOnce.Do(registerMetrics)
}

func registerMetrics() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP请求总数",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "HTTP请求耗时（秒）",
			// 桶设置：1ms、10ms、100ms、500ms、1s、5s、10s
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "正在处理的HTTP请求数",
		},
	)

	BooksCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "books_created_total",
			Help: "图书创建总数",
		},
	)

	BooksExportedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "books_exported_rows_total",
			Help: "CSV导出的图书行数总计",
		},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "登录尝试总数",
		},
		[]string{"result"},
	)
}
