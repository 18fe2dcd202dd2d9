package opt

import (
	"context"
	"math"
	"time"

	"shiftnav/internal/graph"
	"shiftnav/internal/model"
)

// valueTol is the float tolerance under which two candidate values are
// treated as a tie and the lexicographically-smaller destination wins, so
// identical inputs always produce identical paths.
const valueTol = 1e-9

// solveDP runs finite-horizon backward induction over (ticks-remaining,
// zone) states. The value table is filled from t=0 upward since every
// transition strictly decreases remaining time:
//
//	V[t][z] = max over reachable j of fare(z->j, hour) + gamma*V[t-tripTicks][j]
//
// with an implicit idle option of value 0, so running out of reachable
// destinations ends the shift rather than erroring.
func (rm *RateModel) solveDP(ctx context.Context, startHour, workHours int, date time.Time) *valueTable {
	n := rm.g.NumZones()
	tick := rm.cfg.TickMinutes
	budget := workHours * 60 / tick

	vt := &valueTable{
		budget:    budget,
		value:     make([][]float64, budget+1),
		next:      make([][]int32, budget+1),
		stepTicks: make([][]int32, budget+1),
	}
	for t := 0; t <= budget; t++ {
		vt.value[t] = make([]float64, n)
		vt.next[t] = make([]int32, n)
		vt.stepTicks[t] = make([]int32, n)
		for z := 0; z < n; z++ {
			vt.next[t][z] = -1
		}
	}
	// t=0 row stays all zero: no time left, no further earnings.

	for t := 1; t <= budget; t++ {
		elapsed := (budget - t) * tick
		hour := (startHour + elapsed/60) % 24
		stepDate := date.Add(time.Duration(elapsed) * time.Minute)

		weather := rm.sig.Weather(ctx, rm.g.CityID, stepDate)

		for z := 0; z < n; z++ {
			best := 0.0
			bestNext := int32(-1)
			bestTicks := int32(0)
			surge := rm.sig.Surge(ctx, rm.g.CityID, rm.g.Zone(z).ID, hour)
			wait := rm.WaitMinutes(z, hour)

			for _, e := range rm.g.Out[z] {
				fare := e.Fare(hour) * surge * weather
				travel := e.Minutes(hour)
				total := travel + wait
				tt := int32(math.Ceil(total / float64(tick)))
				if tt < 1 {
					tt = 1
				}
				if int(tt) > t {
					continue
				}
				v := fare + rm.cfg.Gamma*vt.value[t-int(tt)][e.To]
				// Edges are ordered by destination id, so strict
				// improvement keeps the smallest id on ties.
				if v > best+valueTol {
					best = v
					bestNext = int32(e.To)
					bestTicks = tt
				}
			}
			vt.value[t][z] = best
			vt.next[t][z] = bestNext
			vt.stepTicks[t][z] = bestTicks
		}
	}
	return vt
}

// valueTable is the transient per-solve DP structure: value and policy per
// (ticks-remaining, zone). Only the extracted answer outlives the solve.
type valueTable struct {
	budget    int
	value     [][]float64
	next      [][]int32
	stepTicks [][]int32
}

// extract walks the policy forward from a start zone, returning the optimal
// expected earnings and zone path.
func (vt *valueTable) extract(g *graph.ZoneGraph, start int) (float64, []string) {
	earnings := vt.value[vt.budget][start]
	path := []string{}
	z, t := start, vt.budget
	for {
		path = append(path, g.Zone(z).ID)
		if t <= 0 {
			break
		}
		nxt := vt.next[t][z]
		if nxt < 0 {
			break
		}
		step := int(vt.stepTicks[t][z])
		if step <= 0 || step > t {
			break
		}
		t -= step
		z = int(nxt)
	}
	return earnings, path
}

// bestStart returns the zone index maximizing full-budget value, with the
// lexicographically-smallest zone id on ties. Zones are index-ordered by id
// so the first strict maximum suffices.
func (vt *valueTable) bestStart() int {
	best := 0
	for z := 1; z < len(vt.value[vt.budget]); z++ {
		if vt.value[vt.budget][z] > vt.value[vt.budget][best]+valueTol {
			best = z
		}
	}
	return best
}

// PathTiming replays a solved path step by step, reporting per-leg fares,
// multipliers, travel and wait time, and cumulative totals.
func (rm *RateModel) PathTiming(ctx context.Context, path []string, startHour int, date time.Time) []model.PathStep {
	steps := []model.PathStep{}
	cumMinutes := 0.0
	cumEarnings := 0.0

	for i := 0; i+1 < len(path); i++ {
		from := rm.g.ZoneIndex(path[i])
		to := rm.g.ZoneIndex(path[i+1])
		if from < 0 || to < 0 {
			break
		}
		var edge *graph.Edge
		for k := range rm.g.Out[from] {
			if rm.g.Out[from][k].To == to {
				edge = &rm.g.Out[from][k]
				break
			}
		}
		if edge == nil {
			break
		}

		hour := (startHour + int(cumMinutes)/60) % 24
		stepDate := date.Add(time.Duration(cumMinutes) * time.Minute)
		surge := rm.sig.Surge(ctx, rm.g.CityID, path[i], hour)
		weather := rm.sig.Weather(ctx, rm.g.CityID, stepDate)

		baseFare := edge.Fare(hour)
		fare := baseFare * surge * weather
		travel := edge.Minutes(hour)
		wait := rm.WaitMinutes(from, hour)

		cumMinutes += travel + wait
		cumEarnings += fare

		steps = append(steps, model.PathStep{
			Step:               i + 1,
			FromZone:           path[i],
			ToZone:             path[i+1],
			Hour:               hour,
			BaseFare:           baseFare,
			SurgeMultiplier:    surge,
			WeatherMultiplier:  weather,
			Fare:               fare,
			TravelMinutes:      travel,
			WaitMinutes:        wait,
			CumulativeMinutes:  cumMinutes,
			CumulativeEarnings: cumEarnings,
		})
	}
	return steps
}
