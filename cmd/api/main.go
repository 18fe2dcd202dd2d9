package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shiftnav/internal/api"
	"shiftnav/internal/config"
	"shiftnav/internal/metrics"
)

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	metrics.RegisterDefault()

	srvDeps, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	mux := http.NewServeMux()

	// Solver
	mux.HandleFunc("/v1/solve", srvDeps.SolveHandler)

	// Recommendations
	mux.HandleFunc("/v1/recommendations/optimal-time", srvDeps.OptimalTimeHandler)
	mux.HandleFunc("/v1/recommendations/time-scores", srvDeps.TimeScoresHandler)
	mux.HandleFunc("/v1/recommendations/best-zone", srvDeps.BestZoneHandler)
	mux.HandleFunc("/v1/recommendations/zone-scores", srvDeps.ZoneScoresHandler)
	mux.HandleFunc("/v1/schedules/compare", srvDeps.ScheduleCompareHandler)

	// Zones
	mux.HandleFunc("/v1/zones", srvDeps.ZonesHandler)

	// Notifications
	mux.HandleFunc("/v1/notifications/ws", srvDeps.NotificationsWSHandler)

	// Admin
	mux.HandleFunc("/v1/admin/cache/invalidate", srvDeps.CacheInvalidateHandler)

	// Health
	mux.HandleFunc("/healthz", srvDeps.HealthHandler)
	mux.HandleFunc("/readyz", srvDeps.ReadyHandler)

	// Metrics
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	handler := logMiddleware(api.MetricsMiddleware(api.RateLimitMiddleware(50, 100, mux)))

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API listening on %s", cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		dur := time.Since(start)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
	})
}
