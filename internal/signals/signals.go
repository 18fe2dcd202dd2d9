// Package signals supplies the surge and weather multipliers the rate model
// folds into expected fares. Both signals are optional: any lookup failure
// or missing data degrades to the neutral multiplier 1.0, never to an
// error.
package signals

import (
	"context"
	"log"
	"sync"
	"time"

	"shiftnav/internal/store"
)

// Provider resolves the two external earning multipliers.
type Provider interface {
	// Surge returns the surge multiplier for a (city, zone, hour).
	Surge(ctx context.Context, cityID int, zoneID string, hour int) float64
	// Weather returns the weather multiplier for a (city, date).
	Weather(ctx context.Context, cityID int, date time.Time) float64
}

// Neutral always returns 1.0 for both signals.
type Neutral struct{}

func (Neutral) Surge(context.Context, int, string, int) float64 { return 1.0 }
func (Neutral) Weather(context.Context, int, time.Time) float64 { return 1.0 }

// StoreProvider loads surge tables and weather histories from the upstream
// store, once per city, and serves lookups from memory.
type StoreProvider struct {
	store store.Store

	mu      sync.Mutex
	surge   map[int]map[int]float64 // city -> hour -> multiplier
	weather map[int]*weatherModel   // city -> trained predictor
}

func NewStoreProvider(st store.Store) *StoreProvider {
	return &StoreProvider{
		store:   st,
		surge:   map[int]map[int]float64{},
		weather: map[int]*weatherModel{},
	}
}

// Surge returns the city's hour multiplier, 1.0 when unknown. The zone id
// is accepted for interface symmetry; the upstream surge table is city-hour
// grained.
func (p *StoreProvider) Surge(ctx context.Context, cityID int, zoneID string, hour int) float64 {
	p.mu.Lock()
	byHour, ok := p.surge[cityID]
	if !ok {
		byHour = map[int]float64{}
		rows, err := p.store.ListSurge(ctx, cityID)
		if err != nil {
			log.Printf("signals: surge load for city %d failed, using neutral: %v", cityID, err)
		} else {
			for _, r := range rows {
				byHour[r.Hour] = r.Multiplier
			}
		}
		p.surge[cityID] = byHour
	}
	p.mu.Unlock()

	if m, ok := byHour[hour]; ok && m > 0 {
		return m
	}
	return 1.0
}

// Weather predicts the city's weather condition for the date and maps it to
// a multiplier. With no usable history the result is 1.0.
func (p *StoreProvider) Weather(ctx context.Context, cityID int, date time.Time) float64 {
	p.mu.Lock()
	m, ok := p.weather[cityID]
	if !ok {
		rows, err := p.store.ListWeather(ctx, cityID, date.AddDate(1, 0, 0))
		if err != nil {
			log.Printf("signals: weather load for city %d failed, using neutral: %v", cityID, err)
		}
		m = trainWeatherModel(rows)
		p.weather[cityID] = m
	}
	p.mu.Unlock()

	cond := m.predict(date)
	return ConditionMultiplier(cond)
}

// ConditionMultiplier maps a weather condition to its earning multiplier.
// Unknown conditions are neutral.
func ConditionMultiplier(condition string) float64 {
	switch condition {
	case "Rain":
		return 1.2
	case "Snow":
		return 1.3
	default:
		return 1.0
	}
}
