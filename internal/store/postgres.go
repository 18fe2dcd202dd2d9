package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"shiftnav/internal/model"
)

// Postgres reads the clustering job's output tables. Schema (owned by the
// ingestion job, consumed read-only here):
//
//	zones(city_id, zone_id, lat, lon, lat_min, lat_max, lon_min, lon_max)
//	trip_stats(city_id, from_zone, to_zone, hour, trips, avg_fare, avg_minutes)
//	surge_by_hour(city_id, hour, multiplier)
//	weather_daily(city_id, date, condition)
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) ListCities(ctx context.Context) ([]int, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT DISTINCT city_id FROM zones ORDER BY city_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *Postgres) ListZones(ctx context.Context, cityID int) ([]model.Zone, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT zone_id, lat, lon, lat_min, lat_max, lon_min, lon_max
		FROM zones WHERE city_id=$1 ORDER BY zone_id`, cityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var zones []model.Zone
	for rows.Next() {
		z := model.Zone{CityID: cityID}
		if err := rows.Scan(&z.ID, &z.Lat, &z.Lon, &z.LatMin, &z.LatMax, &z.LonMin, &z.LonMax); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(zones) == 0 {
		return nil, ErrNotFound
	}
	return zones, nil
}

// ListTripStats folds the per-hour rows into one TripStats per edge. The
// overall averages are trip-count weighted across hours.
func (p *Postgres) ListTripStats(ctx context.Context, cityID int) ([]model.TripStats, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT from_zone, to_zone, hour, trips, avg_fare, avg_minutes
		FROM trip_stats WHERE city_id=$1 ORDER BY from_zone, to_zone, hour`, cityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byEdge := map[[2]string]*model.TripStats{}
	var order [][2]string
	for rows.Next() {
		var from, to string
		var hour, trips int
		var fare, minutes float64
		if err := rows.Scan(&from, &to, &hour, &trips, &fare, &minutes); err != nil {
			return nil, err
		}
		if hour < 0 || hour > 23 {
			continue
		}
		key := [2]string{from, to}
		ts, ok := byEdge[key]
		if !ok {
			ts = &model.TripStats{CityID: cityID, FromZone: from, ToZone: to}
			byEdge[key] = ts
			order = append(order, key)
		}
		ts.HourlyTrips[hour] = trips
		ts.HourlyFare[hour] = fare
		ts.HourlyMinutes[hour] = minutes
		ts.TotalTrips += trips
		ts.AvgFare += fare * float64(trips)
		ts.AvgMinutes += minutes * float64(trips)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.TripStats, 0, len(order))
	for _, key := range order {
		ts := byEdge[key]
		if ts.TotalTrips > 0 {
			ts.AvgFare /= float64(ts.TotalTrips)
			ts.AvgMinutes /= float64(ts.TotalTrips)
		}
		out = append(out, *ts)
	}
	return out, nil
}

func (p *Postgres) ListSurge(ctx context.Context, cityID int) ([]model.SurgeRow, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT hour, multiplier FROM surge_by_hour WHERE city_id=$1 ORDER BY hour`, cityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.SurgeRow
	for rows.Next() {
		r := model.SurgeRow{CityID: cityID}
		if err := rows.Scan(&r.Hour, &r.Multiplier); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) ListWeather(ctx context.Context, cityID int, until time.Time) ([]model.WeatherRow, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT date, condition FROM weather_daily
		WHERE city_id=$1 AND date <= $2 ORDER BY date`, cityID, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.WeatherRow
	for rows.Next() {
		r := model.WeatherRow{CityID: cityID}
		if err := rows.Scan(&r.Date, &r.Condition); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// IsMissing reports whether err means the city has no upstream data rather
// than a backend failure.
func IsMissing(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
