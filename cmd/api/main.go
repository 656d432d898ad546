package main

import (
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleetsim/internal/api"
	"fleetsim/internal/config"
	"fleetsim/internal/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	srv, err := api.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	metrics.RegisterDefault()

	mux := http.NewServeMux()

	// Simulations
	mux.HandleFunc("/v1/simulations", srv.SimulationsHandler)
	mux.HandleFunc("/v1/simulations/latest", srv.SimulationLatestHandler)
	mux.HandleFunc("/v1/simulations/stream", srv.StreamHandler)

	// Cache admin
	mux.HandleFunc("/v1/simulations/cache/stats", srv.CacheStatsHandler)
	mux.HandleFunc("/v1/simulations/cache/clear", srv.CacheClearHandler)

	// Health
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)

	// Ops
	mux.HandleFunc("/v1/debug", srv.DebugJSON)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	handler := api.LogMiddleware(mux)
	handler = api.RateLimitMiddleware(cfg.RateRPS, cfg.RateBurst, handler)

	addr := ":" + cfg.Port
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API listening on %s", addr)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
