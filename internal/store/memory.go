package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"shiftnav/internal/model"
)

// Memory is an in-memory store used when no DATABASE_URL is set and in
// tests. Data is seeded up front and read-only afterwards, matching the
// upstream contract.
type Memory struct {
	mu      sync.Mutex
	zones   map[int][]model.Zone
	trips   map[int][]model.TripStats
	surge   map[int][]model.SurgeRow
	weather map[int][]model.WeatherRow
}

func NewMemory() *Memory {
	return &Memory{
		zones:   map[int][]model.Zone{},
		trips:   map[int][]model.TripStats{},
		surge:   map[int][]model.SurgeRow{},
		weather: map[int][]model.WeatherRow{},
	}
}

// SeedZones registers zones for a city.
func (m *Memory) SeedZones(zones ...model.Zone) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, z := range zones {
		m.zones[z.CityID] = append(m.zones[z.CityID], z)
	}
}

// SeedTrips registers trip stat rows.
func (m *Memory) SeedTrips(rows ...model.TripStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.trips[r.CityID] = append(m.trips[r.CityID], r)
	}
}

// SeedSurge registers surge rows.
func (m *Memory) SeedSurge(rows ...model.SurgeRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.surge[r.CityID] = append(m.surge[r.CityID], r)
	}
}

// SeedWeather registers weather observations.
func (m *Memory) SeedWeather(rows ...model.WeatherRow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.weather[r.CityID] = append(m.weather[r.CityID], r)
	}
}

func (m *Memory) ListCities(ctx context.Context) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.zones))
	for id := range m.zones {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *Memory) ListZones(ctx context.Context, cityID int) ([]model.Zone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	zs, ok := m.zones[cityID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]model.Zone, len(zs))
	copy(out, zs)
	return out, nil
}

func (m *Memory) ListTripStats(ctx context.Context, cityID int) ([]model.TripStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.zones[cityID]; !ok {
		return nil, ErrNotFound
	}
	rows := m.trips[cityID]
	out := make([]model.TripStats, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *Memory) ListSurge(ctx context.Context, cityID int) ([]model.SurgeRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.surge[cityID]
	out := make([]model.SurgeRow, len(rows))
	copy(out, rows)
	return out, nil
}

func (m *Memory) ListWeather(ctx context.Context, cityID int, until time.Time) ([]model.WeatherRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.WeatherRow
	for _, r := range m.weather[cityID] {
		if !r.Date.After(until) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
