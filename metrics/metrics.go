package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BetsPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bolao_bets_placed_total",
		Help: "Number of bets created or updated.",
	})

	MatchesFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bolao_matches_finalized_total",
		Help: "Number of matches marked finished, including corrections.",
	})

	BetsRescored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bolao_bets_rescored_total",
		Help: "Number of bets whose points were recomputed after a result.",
	})

	LeaderboardCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bolao_leaderboard_cache_requests_total",
		Help: "Leaderboard reads by cache outcome.",
	}, []string{"outcome"})
)

type HealthFunc func(ctx context.Context) error

// StartServer runs a small HTTP server exposing /metrics and /healthz on its
// own port, separate from the public API.
func StartServer(port int, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "unhealthy: %v", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
