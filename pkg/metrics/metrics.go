package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 指标管理器
type Metrics struct {
	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 告警业务指标
	alertsTotal          *prometheus.CounterVec
	alertRecipientsTotal *prometheus.CounterVec
	deliveryErrorsTotal  *prometheus.CounterVec

	// 连接指标
	wsConnections prometheus.Gauge
}

// NewMetrics 创建指标管理器
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alerts_triggered_total",
				Help: "Total number of alerts triggered, by alert type",
			},
			[]string{"type"},
		),

		alertRecipientsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_recipients_total",
				Help: "Total number of alert recipients resolved, by channel",
			},
			[]string{"channel"},
		),

		deliveryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alert_delivery_errors_total",
				Help: "Total number of per-recipient delivery failures",
			},
			[]string{"channel"},
		),

		wsConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "websocket_connections",
				Help: "Current number of live websocket connections",
			},
		),
	}
}

// ObserveAlert 记录一次告警触发
func (m *Metrics) ObserveAlert(alertType string) {
	m.alertsTotal.WithLabelValues(alertType).Inc()
}

// ObserveRecipients 记录某通道解析出的接收者数量
func (m *Metrics) ObserveRecipients(channel string, count int) {
	m.alertRecipientsTotal.WithLabelValues(channel).Add(float64(count))
}

// ObserveDeliveryError 记录单接收者投递失败
func (m *Metrics) ObserveDeliveryError(channel string) {
	m.deliveryErrorsTotal.WithLabelValues(channel).Inc()
}

// SetConnections 更新当前连接数
func (m *Metrics) SetConnections(n int64) {
	m.wsConnections.Set(float64(n))
}
