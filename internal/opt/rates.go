package opt

import (
	"context"
	"sync"
	"time"

	"shiftnav/internal/graph"
	"shiftnav/internal/signals"
)

// RateModel derives transition probabilities and expected earning rates
// from one city's ZoneGraph. Probability rows are Laplace-smoothed:
//
//	P(i->j | h) = (count[i][j][h] + eps) / (totalOut[i][h] + eps*N)
//
// so zones with no observed trips in an hour keep nonzero mass instead of
// looking unreachable. Rows are computed once per (hour) and cached for the
// graph's lifetime; recomputing them per DP step is the dominant cost
// otherwise.
type RateModel struct {
	g   *graph.ZoneGraph
	cfg Params
	sig signals.Provider

	mu     sync.Mutex
	byHour [24][][]float64
}

// Params are the engine constants, mirrored from config to keep this
// package free of the config dependency.
type Params struct {
	Epsilon     float64
	Gamma       float64
	LambdaFloor float64
	TickMinutes int
}

func NewRateModel(g *graph.ZoneGraph, cfg Params, sig signals.Provider) *RateModel {
	return &RateModel{g: g, cfg: cfg, sig: sig}
}

// Probabilities returns the N x N transition matrix for an hour. Row i sums
// to 1 across every zone in the city, self included.
func (rm *RateModel) Probabilities(hour int) [][]float64 {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if p := rm.byHour[hour]; p != nil {
		return p
	}
	p := rm.computeProbabilities(hour)
	rm.byHour[hour] = p
	return p
}

func (rm *RateModel) computeProbabilities(hour int) [][]float64 {
	n := rm.g.NumZones()
	p := make([][]float64, n)
	unobserved := []int{}
	for i := 0; i < n; i++ {
		row := make([]float64, n)
		denom := float64(rm.g.OutgoingTrips(i, hour)) + rm.cfg.Epsilon*float64(n)
		for j := 0; j < n; j++ {
			row[j] = rm.cfg.Epsilon / denom
		}
		for _, e := range rm.g.Out[i] {
			row[e.To] = (float64(e.HourlyTrips[hour]) + rm.cfg.Epsilon) / denom
		}
		p[i] = row
		if rm.g.OutgoingTrips(i, hour) == 0 && len(rm.g.Out[i]) == 0 {
			unobserved = append(unobserved, i)
		}
	}

	// Zones with no observed outgoing trips at all carry no signal of
	// their own; give them the city-wide average distribution for the
	// hour instead of the flat Laplace row.
	if len(unobserved) > 0 && len(unobserved) < n {
		avg := make([]float64, n)
		obs := 0
		for i := 0; i < n; i++ {
			if rm.g.OutgoingTrips(i, hour) == 0 && len(rm.g.Out[i]) == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				avg[j] += p[i][j]
			}
			obs++
		}
		for j := 0; j < n; j++ {
			avg[j] /= float64(obs)
		}
		for _, i := range unobserved {
			row := make([]float64, n)
			copy(row, avg)
			p[i] = row
		}
	}
	return p
}

// WaitMinutes derives the expected pickup wait at a zone from its outgoing
// demand for the hour: higher demand, shorter wait, floor-clamped.
func (rm *RateModel) WaitMinutes(zone, hour int) float64 {
	demand := float64(rm.g.OutgoingTrips(zone, hour))
	if demand < rm.cfg.LambdaFloor {
		demand = rm.cfg.LambdaFloor
	}
	return 60.0 / demand
}

// EarningRate computes the expected earning rate (per hour) for a driver
// positioned at a zone during an hour: probability-weighted fare over
// expected travel plus wait time, scaled by the surge and weather signals.
func (rm *RateModel) EarningRate(ctx context.Context, zone, hour int, date time.Time) float64 {
	if zone < 0 || zone >= rm.g.NumZones() {
		return 0
	}
	p := rm.Probabilities(hour)

	surge := rm.sig.Surge(ctx, rm.g.CityID, rm.g.Zone(zone).ID, hour)
	weather := rm.sig.Weather(ctx, rm.g.CityID, date)

	expectedFare := 0.0
	expectedTravel := 0.0
	for _, e := range rm.g.Out[zone] {
		prob := p[zone][e.To]
		expectedFare += prob * e.Fare(hour) * surge * weather
		expectedTravel += prob * e.Minutes(hour)
	}

	totalMinutes := expectedTravel + rm.WaitMinutes(zone, hour)
	if totalMinutes <= 0 {
		return 0
	}
	return expectedFare / (totalMinutes / 60.0)
}
