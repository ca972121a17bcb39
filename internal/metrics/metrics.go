package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はアプリのPrometheusメトリクス。
// nilでも呼べる（テストで省略できるように）。
type Metrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	Checkouts *prometheus.CounterVec
	Webhooks  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "api",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Checkout attempts by type and result.",
	}, []string{"type", "result"})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "webhook_events_total",
		Help:      "Payment webhook events by event type and outcome.",
	}, []string{"event_type", "outcome"})

	reg.MustRegister(requests, latency, checkouts, webhooks)
	return &Metrics{Requests: requests, LatencyMS: latency, Checkouts: checkouts, Webhooks: webhooks}
}

func (m *Metrics) CheckoutDone(checkoutType string, result string) {
	if m == nil {
		return
	}
	m.Checkouts.WithLabelValues(checkoutType, result).Inc()
}

func (m *Metrics) WebhookHandled(eventType string, outcome string) {
	if m == nil {
		return
	}
	m.Webhooks.WithLabelValues(eventType, outcome).Inc()
}

// Echoのミドルウェア。ラベルはルートのパターン（/orders/:id）を使う
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m == nil {
				return next(c)
			}
			start := time.Now()
			err := next(c)
			if err != nil {
				//ステータスを確定させる
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := strconv.Itoa(c.Response().Status)
			m.Requests.WithLabelValues(route, c.Request().Method, status).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(time.Since(start).Milliseconds()))
			// レスポンスは書き込み済み。外側のロガーが見られるようにerrは返す
			return err
		}
	}
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
