package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 定义业务监控指标
type BusinessMetrics struct {
	VerifyAddressTotal *prometheus.CounterVec
	ComposeTotal       *prometheus.CounterVec
	PushTotal          *prometheus.CounterVec
	DeviceCallDuration *prometheus.HistogramVec
	SessionsOpen       prometheus.Gauge
}

// Business 全局指标实例，未初始化时所有记录函数为空操作
var Business *BusinessMetrics

// InitBusinessMetrics 初始化业务指标
func InitBusinessMetrics() {
	Business = &BusinessMetrics{
		VerifyAddressTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_verify_address_total",
			Help: "Address verifications by network family and outcome",
		}, []string{"network", "outcome"}),
		ComposeTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_compose_total",
			Help: "Composed transactions by network family and result",
		}, []string{"network", "result"}),
		PushTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_push_total",
			Help: "Broadcast signed transactions by symbol and result",
		}, []string{"symbol", "result"}),
		DeviceCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wallet_device_call_duration_seconds",
			Help:    "Duration of device round trips, including user confirmation",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 300},
		}, []string{"method"}),
		SessionsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wallet_tx_sessions_open",
			Help: "Transaction sessions that have not reached a terminal state",
		}),
	}
}

func RecordVerifyAddress(network, outcome string) {
	if Business == nil {
		return
	}
	Business.VerifyAddressTotal.WithLabelValues(network, outcome).Inc()
}

func RecordCompose(network, result string) {
	if Business == nil {
		return
	}
	Business.ComposeTotal.WithLabelValues(network, result).Inc()
}

func RecordPush(symbol string, success bool) {
	if Business == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	Business.PushTotal.WithLabelValues(symbol, result).Inc()
}

// ObserveDeviceCall 用法: defer monitor.ObserveDeviceCall("getAddress", time.Now())
func ObserveDeviceCall(method string, start time.Time) {
	if Business == nil {
		return
	}
	Business.DeviceCallDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

func SessionOpened() {
	if Business == nil {
		return
	}
	Business.SessionsOpen.Inc()
}

func SessionClosed() {
	if Business == nil {
		return
	}
	Business.SessionsOpen.Dec()
}
