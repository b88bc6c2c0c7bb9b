// Package metrics holds the process's Prometheus collectors and the
// /metrics endpoint.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boxdbot_commands_total",
		Help: "Slash commands handled, by command name and outcome.",
	}, []string{"command", "outcome"})

	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "boxdbot_command_duration_seconds",
		Help:    "Wall time spent handling a slash command, fetch delays included.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"command"})

	LetterboxdRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "boxdbot_letterboxd_requests_total",
		Help: "Outbound watchlist page requests, by HTTP status.",
	}, []string{"status"})
)

// NewServer returns an HTTP server exposing /metrics on addr. The caller
// owns its lifecycle.
func NewServer(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}
