package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/aidosbek/loginlink/internal/health"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Token lifecycle

	TokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "loginlink",
		Name:      "tokens_issued_total",
		Help:      "Total login tokens stored.",
	})

	TokensRedeemedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loginlink",
		Name:      "tokens_redeemed_total",
		Help:      "Total redemption attempts, by outcome.",
	}, []string{"outcome"})

	// Retention sweeper

	SweeperDeletedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loginlink",
		Name:      "sweeper_deleted_total",
		Help:      "Total records removed by the retention sweeper, by kind.",
	}, []string{"kind"})

	SweepCycleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "loginlink",
		Name:      "sweep_cycle_duration_seconds",
		Help:      "Time taken for one sweep pass.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"pass"})

	// HTTP

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "loginlink",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "loginlink",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		TokensIssuedTotal,
		TokensRedeemedTotal,
		SweeperDeletedTotal,
		SweepCycleDuration,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

// NewServer serves /metrics plus the liveness/readiness probes on a
// dedicated port, away from the public API.
func NewServer(addr string, checker *health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Liveness(r.Context()))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, checker.Readiness(r.Context()))
	})
	return &http.Server{Addr: addr, Handler: mux}
}

func writeHealth(w http.ResponseWriter, result health.HealthResult) {
	w.Header().Set("Content-Type", "application/json")
	if result.Status != "up" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(result)
}
