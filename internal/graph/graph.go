package graph

import (
	"math"
	"sort"

	"shiftnav/internal/model"
)

// Edge carries the historical trip statistics for one ordered zone pair.
// Hourly arrays are indexed by hour-of-day; a zero trip count for an hour
// means no observed transitions then.
type Edge struct {
	To            int         `json:"to"`
	AvgFare       float64     `json:"avgFare"`
	AvgMinutes    float64     `json:"avgMinutes"`
	TotalTrips    int         `json:"totalTrips"`
	HourlyTrips   [24]int     `json:"hourlyTrips"`
	HourlyFare    [24]float64 `json:"hourlyFare"`
	HourlyMinutes [24]float64 `json:"hourlyMinutes"`
}

// ZoneGraph is the per-city demand graph. Zone ids are mapped to dense
// indices at build time so solver inner loops run over slices, not maps.
// A ZoneGraph is immutable after Build.
type ZoneGraph struct {
	CityID int          `json:"cityId"`
	Zones  []model.Zone `json:"zones"`
	// Out[i] holds the outgoing edges of zone i, ordered by destination
	// index.
	Out [][]Edge `json:"out"`
	// TotalOut[i][h] is the total outgoing trip count of zone i in hour
	// h, the normalization denominator for transition probabilities.
	TotalOut [][24]int `json:"totalOut"`

	index map[string]int
}

// Build constructs a ZoneGraph from the upstream zone and trip tables.
// Edges referencing unknown zones are dropped; every zone named by a kept
// edge is guaranteed to be in Zones.
func Build(cityID int, zones []model.Zone, trips []model.TripStats) *ZoneGraph {
	sorted := make([]model.Zone, len(zones))
	copy(sorted, zones)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	g := &ZoneGraph{
		CityID:   cityID,
		Zones:    sorted,
		Out:      make([][]Edge, len(sorted)),
		TotalOut: make([][24]int, len(sorted)),
		index:    make(map[string]int, len(sorted)),
	}
	for i, z := range sorted {
		g.index[z.ID] = i
	}

	for _, t := range trips {
		from, ok := g.index[t.FromZone]
		if !ok {
			continue
		}
		to, ok := g.index[t.ToZone]
		if !ok {
			continue
		}
		e := Edge{
			To:            to,
			AvgFare:       t.AvgFare,
			AvgMinutes:    t.AvgMinutes,
			TotalTrips:    t.TotalTrips,
			HourlyTrips:   t.HourlyTrips,
			HourlyFare:    t.HourlyFare,
			HourlyMinutes: t.HourlyMinutes,
		}
		g.Out[from] = append(g.Out[from], e)
		for h := 0; h < 24; h++ {
			g.TotalOut[from][h] += t.HourlyTrips[h]
		}
	}
	for i := range g.Out {
		sort.Slice(g.Out[i], func(a, b int) bool { return g.Out[i][a].To < g.Out[i][b].To })
	}
	return g
}

// NumZones returns the zone count.
func (g *ZoneGraph) NumZones() int { return len(g.Zones) }

// ZoneIndex maps a zone id to its dense index, or -1 if unknown.
func (g *ZoneGraph) ZoneIndex(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Zone returns the zone at dense index i.
func (g *ZoneGraph) Zone(i int) model.Zone { return g.Zones[i] }

// Fare returns the fare for an edge at an hour, falling back to the overall
// edge average when that hour has no observed trips.
func (e *Edge) Fare(hour int) float64 {
	if e.HourlyTrips[hour] > 0 {
		return e.HourlyFare[hour]
	}
	return e.AvgFare
}

// Minutes returns the travel time for an edge at an hour with the same
// fallback as Fare.
func (e *Edge) Minutes(hour int) float64 {
	if e.HourlyTrips[hour] > 0 {
		return e.HourlyMinutes[hour]
	}
	return e.AvgMinutes
}

// OutgoingTrips returns zone i's total outgoing trip count at an hour.
func (g *ZoneGraph) OutgoingTrips(i, hour int) int { return g.TotalOut[i][hour] }

// NearestZone returns the dense index of the zone whose centroid is closest
// to (lat, lon), preferring a zone whose bounding box contains the point.
// Returns -1 for an empty graph.
func (g *ZoneGraph) NearestZone(lat, lon float64) int {
	best := -1
	bestDist := math.MaxFloat64
	for i, z := range g.Zones {
		if lat >= z.LatMin && lat <= z.LatMax && lon >= z.LonMin && lon <= z.LonMax {
			return i
		}
		d := haversineM(lat, lon, z.Lat, z.Lon)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func haversineM(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}

// rebuildIndex restores the id index after deserialization.
func (g *ZoneGraph) rebuildIndex() {
	g.index = make(map[string]int, len(g.Zones))
	for i, z := range g.Zones {
		g.index[z.ID] = i
	}
}
