// Package api implements the HTTP surface of the fleet simulation service.
package api

import (
	"context"
	"log"
	"strings"

	"fleetsim/internal/cache"
	"fleetsim/internal/config"
	"fleetsim/internal/sim"
	"fleetsim/internal/store"
)

type Server struct {
	Store  store.Store
	Cache  *cache.Service
	Runner *sim.Runner
	Broker EventBroker
}

// NewServer wires the store, cache, runner, and broker from configuration.
// If DATABASE_URL is unset, uses the in-memory store. The cache connects in
// the background with bounded retries; until then every lookup is a miss.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		// Run migrations (dev helper)
		if cfg.DBMigrate {
			if err := sp.MigrateDir("db/migrations"); err != nil {
				log.Printf("migrations: %v", err)
			}
		}
		s = sp
	}

	var client *cache.Client
	if cfg.RedisURL != "" {
		c, err := cache.NewFromURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		client = c
	} else {
		client = cache.New(cfg.RedisAddr())
	}
	go client.Connect(context.Background())
	cs := cache.NewService(client)

	// Broker selection
	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	return &Server{Store: s, Cache: cs, Runner: sim.NewRunner(s, cs), Broker: broker}, nil
}
