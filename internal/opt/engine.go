// Package opt implements the mobility-optimization core: Laplace-smoothed
// transition rates over a city's zone graph and a finite-horizon dynamic
// program that finds the zone sequence maximizing a driver's expected
// earnings for a (start hour, duration) pair.
package opt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"shiftnav/internal/graph"
	"shiftnav/internal/metrics"
	"shiftnav/internal/model"
	"shiftnav/internal/signals"
)

var (
	// ErrNoReachableZones reports a city whose graph has no zones at
	// all. Callers treat it as "no recommendation", not a failure.
	ErrNoReachableZones = errors.New("no reachable zones in city")
	// ErrUnknownZone reports a start zone absent from the city graph.
	ErrUnknownZone = errors.New("unknown start zone")
)

// Solver is the one-solve contract. The Engine implements it directly; the
// service layer wraps it with the result cache and hands the wrapped solver
// back to the bulk scoring helpers.
type Solver interface {
	Solve(ctx context.Context, req model.SolveRequest) (model.SolveResult, error)
}

// Engine binds the graph registry, engine constants, and signal providers
// into the DP optimizer. Safe for concurrent use; each solve owns its value
// table.
type Engine struct {
	cfg Params
	reg *graph.Registry
	sig signals.Provider

	mu    sync.Mutex
	rates map[*graph.ZoneGraph]*RateModel
}

func NewEngine(cfg Params, reg *graph.Registry, sig signals.Provider) *Engine {
	if sig == nil {
		sig = signals.Neutral{}
	}
	return &Engine{cfg: cfg, reg: reg, sig: sig, rates: map[*graph.ZoneGraph]*RateModel{}}
}

// Rates returns the rate model for a graph, creating it once per graph
// instance so transition-probability caches live exactly as long as the
// graph does.
func (e *Engine) Rates(g *graph.ZoneGraph) *RateModel {
	e.mu.Lock()
	defer e.mu.Unlock()
	rm, ok := e.rates[g]
	if !ok {
		rm = NewRateModel(g, e.cfg, e.sig)
		e.rates[g] = rm
	}
	return rm
}

// Graph loads (or returns) the city's zone graph.
func (e *Engine) Graph(ctx context.Context, cityID int) (*graph.ZoneGraph, error) {
	return e.reg.Load(ctx, cityID)
}

// DropCity discards the city's graph, snapshot, and derived rate caches so
// the next solve reconstructs from the store.
func (e *Engine) DropCity(cityID int) error {
	e.mu.Lock()
	for g := range e.rates {
		if g.CityID == cityID {
			delete(e.rates, g)
		}
	}
	e.mu.Unlock()
	return e.reg.Invalidate(cityID)
}

// Solve runs one DP solve. With an empty StartZone it additionally searches
// every zone for the best starting position and reports it in the result.
func (e *Engine) Solve(ctx context.Context, req model.SolveRequest) (model.SolveResult, error) {
	start := time.Now()
	res, err := e.solve(ctx, req)
	if err == nil {
		metrics.SolveDuration.WithLabelValues("computed").Observe(time.Since(start).Seconds())
	}
	return res, err
}

func (e *Engine) solve(ctx context.Context, req model.SolveRequest) (model.SolveResult, error) {
	g, err := e.reg.Load(ctx, req.CityID)
	if err != nil {
		return model.SolveResult{}, err
	}
	if g.NumZones() == 0 {
		return model.SolveResult{}, fmt.Errorf("%w: city %d", ErrNoReachableZones, req.CityID)
	}

	startIdx := -1
	if req.StartZone != "" {
		startIdx = g.ZoneIndex(req.StartZone)
		if startIdx < 0 {
			return model.SolveResult{}, fmt.Errorf("%w: %q in city %d", ErrUnknownZone, req.StartZone, req.CityID)
		}
	}

	vt := e.Rates(g).solveDP(ctx, req.StartHour, req.WorkHours, req.Date)
	if startIdx < 0 {
		startIdx = vt.bestStart()
	}
	earnings, path := vt.extract(g, startIdx)
	return model.SolveResult{StartZone: g.Zone(startIdx).ID, Earnings: earnings, Path: path}, nil
}

// EarningRate exposes the rate model's per-(zone, hour) expected hourly
// rate for a city.
func (e *Engine) EarningRate(ctx context.Context, cityID int, zoneID string, hour int, date time.Time) (float64, error) {
	g, err := e.reg.Load(ctx, cityID)
	if err != nil {
		return 0, err
	}
	idx := g.ZoneIndex(zoneID)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q in city %d", ErrUnknownZone, zoneID, cityID)
	}
	return e.Rates(g).EarningRate(ctx, idx, hour, date), nil
}

// PathTiming replays a solved path with per-step timing and earnings.
func (e *Engine) PathTiming(ctx context.Context, cityID int, path []string, startHour int, date time.Time) ([]model.PathStep, error) {
	g, err := e.reg.Load(ctx, cityID)
	if err != nil {
		return nil, err
	}
	return e.Rates(g).PathTiming(ctx, path, startHour, date), nil
}
