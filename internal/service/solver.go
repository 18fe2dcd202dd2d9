package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"shiftnav/internal/cache"
	"shiftnav/internal/metrics"
	"shiftnav/internal/model"
	"shiftnav/internal/opt"
)

const solveCategory = "dp"

// CachedSolver wraps the engine with the result cache. A hit returns the
// stored result byte-for-byte; a miss computes, stores, and returns. Cache
// backend failures degrade to plain computation.
type CachedSolver struct {
	engine *opt.Engine
	cache  cache.Cache
}

func NewCachedSolver(engine *opt.Engine, c cache.Cache) *CachedSolver {
	return &CachedSolver{engine: engine, cache: c}
}

func (s *CachedSolver) Solve(ctx context.Context, req model.SolveRequest) (model.SolveResult, error) {
	key := cache.Key(solveCategory, req.CityID, req.StartZone, req.StartHour, req.WorkHours, req.Date)
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var res model.SolveResult
		if err := json.Unmarshal(data, &res); err == nil {
			metrics.SolveDuration.WithLabelValues("cache").Observe(0)
			return res, nil
		}
		log.Printf("service: corrupt cache entry %s, recomputing", key)
	}

	res, err := s.engine.Solve(ctx, req)
	if err != nil {
		return model.SolveResult{}, err
	}
	if data, err := json.Marshal(res); err == nil {
		if err := s.cache.Put(ctx, key, data); err != nil {
			log.Printf("service: cache put %s: %v", key, err)
		}
	}
	return res, nil
}

// EarningRate passes through to the engine; rates are cheap enough that
// only full solves go through the byte cache.
func (s *CachedSolver) EarningRate(ctx context.Context, cityID int, zoneID string, hour int, date time.Time) (float64, error) {
	return s.engine.EarningRate(ctx, cityID, zoneID, hour, date)
}

var _ opt.ZoneScorer = (*CachedSolver)(nil)
