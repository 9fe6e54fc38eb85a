package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_http_requests_total",
			Help: "Total number of REST calls issued by the client engine.",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_client_http_request_duration_seconds",
			Help:    "Outbound REST call latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
	refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_token_refresh_total",
			Help: "Total number of token refresh outcomes.",
		},
		[]string{"outcome"},
	)
	refreshWaiters = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_client_token_refresh_waiters",
			Help: "Callers currently queued behind an in-flight refresh.",
		},
	)
	wsState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_client_ws_state",
			Help: "Realtime channel state (0 closed, 1 connecting, 2 open, 3 authenticated).",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_ws_events_total",
			Help: "Total number of inbound realtime events by type.",
		},
		[]string{"type"},
	)
	wsReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_ws_reconnects_total",
			Help: "Total number of reconnect attempts.",
		},
	)
	wsDroppedFramesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_ws_dropped_frames_total",
			Help: "Inbound frames dropped because they could not be parsed.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		refreshTotal,
		refreshWaiters,
		wsState,
		wsEventsTotal,
		wsReconnectsTotal,
		wsDroppedFramesTotal,
	)
}

func ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(path).Observe(elapsed.Seconds())
}

func IncRefresh(outcome string) {
	refreshTotal.WithLabelValues(outcome).Inc()
}

func IncRefreshWaiters() {
	refreshWaiters.Inc()
}

func DecRefreshWaiters() {
	refreshWaiters.Dec()
}

func SetWSState(state int) {
	wsState.Set(float64(state))
}

func IncWSEvent(eventType string) {
	wsEventsTotal.WithLabelValues(eventType).Inc()
}

func IncWSReconnect() {
	wsReconnectsTotal.Inc()
}

func IncWSDroppedFrame() {
	wsDroppedFramesTotal.Inc()
}
