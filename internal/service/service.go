// Package service orchestrates the recommendation queries on top of the
// cached solver: optimal start time within a window, ranked start hours,
// best starting zone for an hour, and the full zone ranking. A city with no
// usable data yields "no recommendation", never an error.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"shiftnav/internal/cache"
	"shiftnav/internal/graph"
	"shiftnav/internal/model"
	"shiftnav/internal/opt"
	"shiftnav/internal/store"
)

const bestCategory = "best"

// Publisher receives recommendation events. The API layer's notification
// broker satisfies it; NopPublisher drops events.
type Publisher interface {
	Publish(n model.Notification)
}

type NopPublisher struct{}

func (NopPublisher) Publish(model.Notification) {}

// Service answers the recommendation queries.
type Service struct {
	store       store.Store
	engine      *opt.Engine
	solver      *CachedSolver
	cache       cache.Cache
	pub         Publisher
	bulkTimeout time.Duration
}

func New(st store.Store, engine *opt.Engine, c cache.Cache, pub Publisher, bulkTimeout time.Duration) *Service {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Service{
		store:       st,
		engine:      engine,
		solver:      NewCachedSolver(engine, c),
		cache:       c,
		pub:         pub,
		bulkTimeout: bulkTimeout,
	}
}

// Solver exposes the cached solver for direct solves.
func (s *Service) Solver() *CachedSolver { return s.solver }

// noRecommendation reports errors that mean "nothing to recommend" rather
// than a failed request.
func noRecommendation(err error) bool {
	return errors.Is(err, opt.ErrNoReachableZones) ||
		errors.Is(err, graph.ErrDataUnavailable) ||
		errors.Is(err, store.ErrNotFound)
}

func (s *Service) bulkCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.bulkTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.bulkTimeout)
}

// AllTimeScores ranks every candidate start hour in [earliest, latest]
// (the window may wrap past midnight), sorted by hour. An empty startZone
// scores the best starting position per hour. An exhausted bulk timeout
// returns the hours scored so far.
func (s *Service) AllTimeScores(ctx context.Context, cityID int, startZone string, earliestHour, latestHour, workHours int, date time.Time) ([]model.TimeScore, error) {
	ctx, cancel := s.bulkCtx(ctx)
	defer cancel()
	scores, err := opt.ScoreStartHours(ctx, s.solver, cityID, startZone, earliestHour, latestHour, workHours, date)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if err != nil {
		log.Printf("service: time-score sweep for city %d timed out with %d/%d hours", cityID, len(scores), windowSpan(earliestHour, latestHour)+1)
	}
	return scores, nil
}

// OptimalStartTime returns the best start hour in the window. ok=false
// means the city has no data to recommend from. The answer is cached per
// (city, window, hours, date) and a fresh computation is announced to
// notification subscribers.
func (s *Service) OptimalStartTime(ctx context.Context, cityID int, startZone string, earliestHour, latestHour, workHours int, date time.Time) (model.TimeScore, bool, error) {
	zoneKey := startZone
	if zoneKey == "" {
		zoneKey = "any"
	}
	key := cache.Key(bestCategory, cityID, fmt.Sprintf("%s.w%02d-%02d", zoneKey, earliestHour, latestHour), earliestHour, workHours, date)
	if data, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var best model.TimeScore
		if err := json.Unmarshal(data, &best); err == nil {
			return best, true, nil
		}
	}

	scores, err := s.AllTimeScores(ctx, cityID, startZone, earliestHour, latestHour, workHours, date)
	if err != nil {
		if noRecommendation(err) {
			return model.TimeScore{}, false, nil
		}
		return model.TimeScore{}, false, err
	}
	if len(scores) == 0 {
		return model.TimeScore{}, false, nil
	}

	best := scores[0]
	for _, sc := range scores[1:] {
		if sc.Score > best.Score {
			best = sc
		}
	}

	if data, err := json.Marshal(best); err == nil {
		if err := s.cache.Put(ctx, key, data); err != nil {
			log.Printf("service: cache put %s: %v", key, err)
		}
	}
	s.pub.Publish(model.Notification{
		ID:             uuid.NewString(),
		Type:           "optimal_time",
		CityID:         cityID,
		Hour:           best.Hour,
		Score:          best.Score,
		RemainingHours: best.RemainingHours,
		CreatedAt:      time.Now().UTC(),
	})
	return best, true, nil
}

// AllZoneScores ranks every zone as a starting position for the given hour,
// best first.
func (s *Service) AllZoneScores(ctx context.Context, cityID, startHour, workHours int, date time.Time) ([]model.ZoneScore, error) {
	g, err := s.engine.Graph(ctx, cityID)
	if err != nil {
		if noRecommendation(err) {
			return nil, nil
		}
		return nil, err
	}
	ctx, cancel := s.bulkCtx(ctx)
	defer cancel()
	scores, err := opt.ScoreZones(ctx, s.solver, cityID, g.Zones, startHour, workHours, date)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if err != nil {
		log.Printf("service: zone-score sweep for city %d timed out with %d/%d zones", cityID, len(scores), g.NumZones())
	}
	return scores, nil
}

// BestZoneForTime returns the top-ranked starting zone for an hour.
// ok=false means no recommendation.
func (s *Service) BestZoneForTime(ctx context.Context, cityID, startHour, workHours int, date time.Time) (model.ZoneScore, bool, error) {
	scores, err := s.AllZoneScores(ctx, cityID, startHour, workHours, date)
	if err != nil {
		return model.ZoneScore{}, false, err
	}
	if len(scores) == 0 {
		return model.ZoneScore{}, false, nil
	}
	return scores[0], true, nil
}

// ScheduleOption is one candidate (start hour, duration) pair for
// CompareSchedules.
type ScheduleOption struct {
	StartHour int `json:"startHour"`
	WorkHours int `json:"workHours"`
}

// ScheduleScore is one scored schedule, with the hourly rate that makes
// schedules of different lengths comparable.
type ScheduleScore struct {
	StartHour  int     `json:"startHour"`
	WorkHours  int     `json:"workHours"`
	Earnings   float64 `json:"earnings"`
	HourlyRate float64 `json:"hourlyRate"`
}

// CompareSchedules scores candidate schedules from a fixed start zone and
// returns them ranked by hourly rate, best first. Unsolvable candidates are
// skipped.
func (s *Service) CompareSchedules(ctx context.Context, cityID int, startZone string, opts []ScheduleOption, date time.Time) ([]ScheduleScore, error) {
	ctx, cancel := s.bulkCtx(ctx)
	defer cancel()

	scores := make([]ScheduleScore, 0, len(opts))
	for _, o := range opts {
		if ctx.Err() != nil {
			break
		}
		if o.WorkHours <= 0 {
			continue
		}
		res, err := s.solver.Solve(ctx, model.SolveRequest{
			CityID:    cityID,
			StartZone: startZone,
			StartHour: o.StartHour,
			WorkHours: o.WorkHours,
			Date:      date,
		})
		if err != nil {
			if noRecommendation(err) {
				continue
			}
			return nil, err
		}
		scores = append(scores, ScheduleScore{
			StartHour:  o.StartHour,
			WorkHours:  o.WorkHours,
			Earnings:   res.Earnings,
			HourlyRate: res.Earnings / float64(o.WorkHours),
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].HourlyRate != scores[j].HourlyRate {
			return scores[i].HourlyRate > scores[j].HourlyRate
		}
		return scores[i].StartHour < scores[j].StartHour
	})
	if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return scores, err
	}
	return scores, nil
}

// Zones lists a city's zones with centroid and bounding box.
func (s *Service) Zones(ctx context.Context, cityID int) ([]model.Zone, error) {
	g, err := s.engine.Graph(ctx, cityID)
	if err != nil {
		return nil, err
	}
	zones := make([]model.Zone, len(g.Zones))
	copy(zones, g.Zones)
	return zones, nil
}

// NearestZone maps a position to the containing zone, or the nearest by
// centroid distance when no bounding box contains it.
func (s *Service) NearestZone(ctx context.Context, cityID int, lat, lon float64) (model.Zone, error) {
	g, err := s.engine.Graph(ctx, cityID)
	if err != nil {
		return model.Zone{}, err
	}
	idx := g.NearestZone(lat, lon)
	if idx < 0 {
		return model.Zone{}, fmt.Errorf("%w: city %d", opt.ErrNoReachableZones, cityID)
	}
	return g.Zone(idx), nil
}

// PathTiming replays a solved path step by step.
func (s *Service) PathTiming(ctx context.Context, cityID int, path []string, startHour int, date time.Time) ([]model.PathStep, error) {
	return s.engine.PathTiming(ctx, cityID, path, startHour, date)
}

// Invalidate drops cached results by city and/or category. A positive
// cityID additionally drops the city's graph so the next solve rebuilds
// from the store.
func (s *Service) Invalidate(ctx context.Context, cityID int, category string) error {
	if cityID > 0 {
		if err := s.engine.DropCity(cityID); err != nil {
			return err
		}
	}
	return s.cache.Invalidate(ctx, cache.Prefix(category, cityID))
}

func windowSpan(earliest, latest int) int {
	span := latest - earliest
	if span < 0 {
		span += 24
	}
	return span
}
