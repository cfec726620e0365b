// Package metrics exposes Prometheus counters for the harvesting pipeline
// and an optional debug listener serving them.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// Requests tracks HTTP requests dispatched per source.
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_requests_total",
		Help: "The total number of HTTP requests sent, by source.",
	}, []string{"source"})
	// RequestErrors tracks requests that ended in an error per source.
	RequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_request_errors_total",
		Help: "The total number of failed HTTP requests, by source.",
	}, []string{"source"})
	// ThrottleHits tracks rate-limit rejections per source.
	ThrottleHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_throttle_hits_total",
		Help: "The total number of times a source rate limited the harvester.",
	}, []string{"source"})
	// PagesFetched tracks pagination steps completed per source.
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_pages_fetched_total",
		Help: "The total number of result pages fetched, by source.",
	}, []string{"source"})
	// CommentsHarvested tracks comments collected per source.
	CommentsHarvested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvester_comments_total",
		Help: "The total number of comments harvested, by source.",
	}, []string{"source"})
)

// Serve starts the debug listener on addr in a background goroutine. Used
// only when metrics.listen_addr is configured; listener failures are logged
// and never interrupt the run.
func Serve(addr string, logger *zap.Logger) {
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint:errcheck
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics listener started", zap.String("addr", addr))
}
