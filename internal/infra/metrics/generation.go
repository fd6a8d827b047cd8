package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		tryOnRequests,
		tryOnLatency,
		stylistRequests,
		stylistLatencyMs,
		stylistPromptTokens,
		weatherRequests,
		rateLimited,
	)
}

var (
	// result: completed|failed|insufficient|invalid
	tryOnRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tryon_requests_total",
			Help: "Try-on requests by provider and result.",
		},
		[]string{"provider", "result"},
	)

	tryOnLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tryon_generation_seconds",
			Help:    "Image provider latency in seconds.",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 90},
		},
		[]string{"provider", "success"},
	)

	stylistRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stylist_requests_total",
			Help: "Stylist requests by provider and result.",
		},
		[]string{"provider", "result"},
	)

	stylistLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stylist_calls_latency_ms",
			Help:    "Stylist provider latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"provider", "success"},
	)

	stylistPromptTokens = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stylist_prompt_tokens",
			Help:    "Tokens in the system and user prompt sent to the stylist provider.",
			Buckets: []float64{64, 128, 256, 512, 1024, 2048, 4096},
		},
	)

	// result: ok|error
	weatherRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_requests_total",
			Help: "Weather provider calls by provider, kind and result.",
		},
		[]string{"provider", "kind", "result"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Requests rejected by the per-user rate limiter.",
		},
		[]string{"scope"},
	)
)

func IncTryOn(provider, result string) {
	tryOnRequests.WithLabelValues(norm(provider), norm(result)).Inc()
}

func ObserveTryOnLatency(provider string, seconds float64, success bool) {
	tryOnLatency.WithLabelValues(norm(provider), strconv.FormatBool(success)).Observe(seconds)
}

func ObserveStylist(provider, result string, latencyMs int64, success bool) {
	stylistRequests.WithLabelValues(norm(provider), norm(result)).Inc()
	stylistLatencyMs.WithLabelValues(norm(provider), strconv.FormatBool(success)).Observe(float64(latencyMs))
}

func ObserveStylistPromptTokens(n int) {
	stylistPromptTokens.Observe(float64(n))
}

func IncWeather(provider, kind, result string) {
	weatherRequests.WithLabelValues(norm(provider), norm(kind), norm(result)).Inc()
}

func IncRateLimited(scope string) {
	rateLimited.WithLabelValues(norm(scope)).Inc()
}
