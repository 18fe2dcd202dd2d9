package api

import (
	"strings"

	"shiftnav/internal/cache"
	"shiftnav/internal/config"
	"shiftnav/internal/graph"
	"shiftnav/internal/opt"
	"shiftnav/internal/service"
	"shiftnav/internal/signals"
	"shiftnav/internal/store"
)

type Server struct {
	Store  store.Store
	Svc    *service.Service
	Broker NotificationBroker
}

// NewServer wires the backends from config. An empty DATABASE_URL selects
// the in-memory store, an empty REDIS_URL leaves the cache single-tier and
// the broker in-process.
func NewServer(cfg config.Config) (*Server, error) {
	var st store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		st = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st = sp
	}

	// the local tier lives for the process; only the shared tier expires
	tiers := []cache.Cache{cache.NewLocal(0)}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rc, err := cache.NewRedis(cfg.RedisURL, cfg.Cache.TTL.Std())
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, rc)
	}
	results := cache.NewTiered(tiers...)

	var broker NotificationBroker
	if strings.TrimSpace(cfg.RedisURL) != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	reg := graph.NewRegistry(st, cfg.SnapshotDir)
	engine := opt.NewEngine(opt.Params{
		Epsilon:     cfg.Engine.Epsilon,
		Gamma:       cfg.Engine.Gamma,
		LambdaFloor: cfg.Engine.LambdaFloor,
		TickMinutes: cfg.Engine.TickMinutes,
	}, reg, signals.NewStoreProvider(st))

	svc := service.New(st, engine, results, broker, cfg.Engine.BulkTimeout.Std())
	return &Server{Store: st, Svc: svc, Broker: broker}, nil
}
