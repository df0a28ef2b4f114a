// Package metrics 暴露管道的 Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 远端操作名
const (
	OpToken   = "token"
	OpRecords = "records"
	OpMedia   = "media"
)

// 远端调用结果
const (
	StatusOK        = "ok"
	StatusTransport = "transport_error"
	StatusProtocol  = "protocol_error"
	StatusError     = "error"
)

var (
	RemoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "press",
			Name:      "remote_requests_total",
			Help:      "Total number of requests to the Feishu open API",
		},
		[]string{"operation", "status"},
	)

	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "press",
			Name:      "remote_request_duration_seconds",
			Help:      "Duration of requests to the Feishu open API in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	RecordsFiltered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "press",
			Name:      "records_filtered_total",
			Help:      "Raw records dropped by the normalizer, by reason",
		},
		[]string{"reason"},
	)

	PostsPublished = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "press",
			Name:      "posts_published",
			Help:      "Number of posts produced by the last pipeline run",
		},
	)
)

// RecordRemote 记录一次远端调用
func RecordRemote(operation, status string, d time.Duration) {
	RemoteRequestsTotal.WithLabelValues(operation, status).Inc()
	RemoteRequestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func RecordFiltered(reason string, n int) {
	RecordsFiltered.WithLabelValues(reason).Add(float64(n))
}

func SetPublished(n int) {
	PostsPublished.Set(float64(n))
}
