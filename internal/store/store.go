package store

import (
	"context"
	"errors"
	"time"

	"shiftnav/internal/model"
)

// Store is the upstream data interface. It exposes the clustering job's
// output tables (zones, aggregated trip stats) and the external signal
// histories (surge, weather). The engine never writes through this
// interface.
type Store interface {
	// ListCities returns all city ids with zone data.
	ListCities(ctx context.Context) ([]int, error)

	// ListZones returns every zone for a city.
	ListZones(ctx context.Context, cityID int) ([]model.Zone, error)

	// ListTripStats returns the aggregated (origin, destination) rows for
	// a city.
	ListTripStats(ctx context.Context, cityID int) ([]model.TripStats, error)

	// ListSurge returns the (city, hour) surge multipliers for a city.
	ListSurge(ctx context.Context, cityID int) ([]model.SurgeRow, error)

	// ListWeather returns daily weather observations for a city up to and
	// including the given date, oldest first.
	ListWeather(ctx context.Context, cityID int, until time.Time) ([]model.WeatherRow, error)
}

// ErrNotFound reports a city with no upstream data.
var ErrNotFound = errors.New("not found")
