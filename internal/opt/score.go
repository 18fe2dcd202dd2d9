package opt

import (
	"context"
	"sort"
	"time"

	"shiftnav/internal/model"
)

// ScoreStartHours solves once per candidate start hour in [earliest,
// latest] and returns the scores sorted by hour. Every hour is solved with
// the full shift duration. An empty startZone lets each solve search for
// the best starting position. A window with latest < earliest wraps past
// midnight (e.g. 22..2). The remaining-hours figure reports how much of
// the window stays open past that start plus the shift, zero once the
// shift runs to or beyond the window's end. Per-hour solve failures are
// skipped; a context deadline ends the sweep early with the scores
// gathered so far.
func ScoreStartHours(ctx context.Context, s Solver, cityID int, startZone string, earliestHour, latestHour, workHours int, date time.Time) ([]model.TimeScore, error) {
	span := latestHour - earliestHour
	if span < 0 {
		span += 24
	}

	scores := make([]model.TimeScore, 0, span+1)
	for off := 0; off <= span; off++ {
		if ctx.Err() != nil {
			break
		}
		hour := (earliestHour + off) % 24
		res, err := s.Solve(ctx, model.SolveRequest{
			CityID:    cityID,
			StartZone: startZone,
			StartHour: hour,
			WorkHours: workHours,
			Date:      date,
		})
		if err != nil {
			continue
		}
		remaining := span - off - workHours
		if remaining < 0 {
			remaining = 0
		}
		scores = append(scores, model.TimeScore{
			Hour:           hour,
			Score:          res.Earnings,
			RemainingHours: remaining,
		})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Hour < scores[j].Hour })
	return scores, ctx.Err()
}

// ZoneScorer is the extra surface the zone sweep needs beyond plain solves.
// *Engine satisfies it.
type ZoneScorer interface {
	Solver
	EarningRate(ctx context.Context, cityID int, zoneID string, hour int, date time.Time) (float64, error)
}

// ScoreZones solves once per start zone at a fixed hour and returns the
// zones ranked by expected earnings, highest first. Ties rank by zone ID so
// repeated sweeps agree. Zones whose solve fails are skipped; a context
// deadline yields a partial ranking.
func ScoreZones(ctx context.Context, s ZoneScorer, cityID int, zones []model.Zone, startHour, workHours int, date time.Time) ([]model.ZoneScore, error) {
	scores := make([]model.ZoneScore, 0, len(zones))
	for _, z := range zones {
		if ctx.Err() != nil {
			break
		}
		res, err := s.Solve(ctx, model.SolveRequest{
			CityID:    cityID,
			StartZone: z.ID,
			StartHour: startHour,
			WorkHours: workHours,
			Date:      date,
		})
		if err != nil {
			continue
		}
		rate, err := s.EarningRate(ctx, cityID, z.ID, startHour, date)
		if err != nil {
			rate = 0
		}
		scores = append(scores, model.ZoneScore{
			ZoneID:             z.ID,
			Score:              res.Earnings,
			ExpectedEarnings:   res.Earnings,
			ExpectedHourlyRate: rate,
			Lat:                z.Lat,
			Lon:                z.Lon,
			LatMin:             z.LatMin,
			LatMax:             z.LatMax,
			LonMin:             z.LonMin,
			LonMax:             z.LonMax,
			WorkHours:          workHours,
			PathLength:         len(res.Path),
			Path:               res.Path,
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ZoneID < scores[j].ZoneID
	})
	return scores, ctx.Err()
}
