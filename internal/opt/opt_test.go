package opt

import (
	"time"

	"shiftnav/internal/graph"
	"shiftnav/internal/model"
	"shiftnav/internal/store"
)

var testParams = Params{Epsilon: 0.1, Gamma: 0.95, LambdaFloor: 0.5, TickMinutes: 5}

var testDate = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func flatTrip(city int, from, to string, fare, minutes float64, perHour int) model.TripStats {
	t := model.TripStats{
		CityID:     city,
		FromZone:   from,
		ToZone:     to,
		AvgFare:    fare,
		AvgMinutes: minutes,
		TotalTrips: perHour * 24,
	}
	for h := 0; h < 24; h++ {
		t.HourlyTrips[h] = perHour
		t.HourlyFare[h] = fare
		t.HourlyMinutes[h] = minutes
	}
	return t
}

func zone(city int, id string, lat, lon float64) model.Zone {
	return model.Zone{
		ID: id, CityID: city,
		Lat: lat, Lon: lon,
		LatMin: lat - 0.01, LatMax: lat + 0.01,
		LonMin: lon - 0.01, LonMax: lon + 0.01,
	}
}

// twoZoneGraph is the hand-checkable fixture: trips take 10 minutes each
// way with a 6 minute wait (10 trips/hour), so every move costs 4 ticks.
// a->b pays 10, b->a pays 20.
func twoZoneGraph() *graph.ZoneGraph {
	zones := []model.Zone{zone(1, "a", 40.0, -74.0), zone(1, "b", 40.1, -74.1)}
	trips := []model.TripStats{
		flatTrip(1, "a", "b", 10, 10, 10),
		flatTrip(1, "b", "a", 20, 10, 10),
	}
	return graph.Build(1, zones, trips)
}

// newEmptySignalStore has no surge or weather rows at all, so store-backed
// signals resolve to the neutral multiplier.
func newEmptySignalStore() *store.Memory { return store.NewMemory() }
