package proxy

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はノードへの転送結果を記録するPrometheusコレクタ。
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics はコレクタを生成し、regに登録する。
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pcapgate",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Number of requests forwarded to capture nodes.",
		}, []string{"route", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pcapgate",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests forwarded to capture nodes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe は1回の転送結果を記録する。mがnilの場合は何もしない。
// 通信失敗は "error"、それ以外はノードのステータス区分で記録する。
func (m *Metrics) observe(route string, res Result, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "error"
	if res.Err == nil {
		result = statusClass(res.StatusCode)
	}
	m.requests.WithLabelValues(route, result).Inc()
	m.duration.WithLabelValues(route).Observe(elapsed.Seconds())
}
