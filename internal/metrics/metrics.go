package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APILatency measures HTTP request latencies by route pattern.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "procurement_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	BidsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurement_bids_created_total",
		Help: "Total number of bids created",
	})

	// Submissions counts vendor submissions by result (accepted|rejected).
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procurement_submissions_total",
			Help: "Total number of vendor submissions",
		},
		[]string{"result"},
	)

	// Notifications counts emails by kind and result (sent|failed).
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procurement_notifications_total",
			Help: "Total number of notification batches",
		},
		[]string{"kind", "result"},
	)

	// ValidatorErrors counts validator failures resolved by the configured policy.
	ValidatorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procurement_validator_errors_total",
			Help: "Validator failures by applied policy",
		},
		[]string{"policy"},
	)

	RemindersSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "procurement_reminders_sent_total",
		Help: "Total number of bids reminded by the sweep",
	})
)

// Middleware records APILatency. It must be mounted inside a chi router.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		APILatency.WithLabelValues(r.Method, path, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
