package model

import "time"

// Zone is a clustered demand hotspot within a city. Zones are produced by the
// offline clustering job and are immutable once loaded.
type Zone struct {
	ID     string  `json:"id"`
	CityID int     `json:"cityId"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	LatMin float64 `json:"latMin"`
	LatMax float64 `json:"latMax"`
	LonMin float64 `json:"lonMin"`
	LonMax float64 `json:"lonMax"`
}

// TripStats is one aggregated (origin, destination) row from the upstream
// trip table. Hourly arrays are indexed by hour-of-day 0-23; a zero entry
// means no observed trips in that hour.
type TripStats struct {
	CityID        int         `json:"cityId"`
	FromZone      string      `json:"fromZone"`
	ToZone        string      `json:"toZone"`
	AvgFare       float64     `json:"avgFare"`
	AvgMinutes    float64     `json:"avgMinutes"`
	TotalTrips    int         `json:"totalTrips"`
	HourlyTrips   [24]int     `json:"hourlyTrips"`
	HourlyFare    [24]float64 `json:"hourlyFare"`
	HourlyMinutes [24]float64 `json:"hourlyMinutes"`
}

// SurgeRow is one (city, hour) surge multiplier observation.
type SurgeRow struct {
	CityID     int     `json:"cityId"`
	Hour       int     `json:"hour"`
	Multiplier float64 `json:"multiplier"`
}

// WeatherRow is one daily weather observation for a city.
type WeatherRow struct {
	CityID    int       `json:"cityId"`
	Date      time.Time `json:"date"`
	Condition string    `json:"condition"`
}

// SolveRequest identifies one DP solve. An empty StartZone means "search all
// zones for the best starting position".
type SolveRequest struct {
	CityID    int       `json:"cityId"`
	StartZone string    `json:"startZone,omitempty"`
	StartHour int       `json:"startHour"`
	WorkHours int       `json:"workHours"`
	Date      time.Time `json:"date"`
}

// SolveResult is the answer to one solve: total discounted expected earnings
// and the optimal zone sequence.
type SolveResult struct {
	StartZone string   `json:"startZone"`
	Earnings  float64  `json:"earnings"`
	Path      []string `json:"path"`
}

// TimeScore ranks one candidate start hour.
type TimeScore struct {
	Hour           int     `json:"hour"`
	Score          float64 `json:"score"`
	RemainingHours int     `json:"remainingHours"`
}

// ZoneScore ranks one zone as a starting position for a fixed hour.
type ZoneScore struct {
	ZoneID             string   `json:"zoneId"`
	Score              float64  `json:"score"`
	ExpectedEarnings   float64  `json:"expectedEarnings"`
	ExpectedHourlyRate float64  `json:"expectedHourlyRate"`
	Lat                float64  `json:"lat"`
	Lon                float64  `json:"lon"`
	LatMin             float64  `json:"latMin"`
	LatMax             float64  `json:"latMax"`
	LonMin             float64  `json:"lonMin"`
	LonMax             float64  `json:"lonMax"`
	WorkHours          int      `json:"workHours"`
	PathLength         int      `json:"pathLength"`
	Path               []string `json:"path,omitempty"`
}

// PathStep is one leg of a solved path with its timing and earnings
// breakdown.
type PathStep struct {
	Step               int     `json:"step"`
	FromZone           string  `json:"fromZone"`
	ToZone             string  `json:"toZone"`
	Hour               int     `json:"hour"`
	BaseFare           float64 `json:"baseFare"`
	SurgeMultiplier    float64 `json:"surgeMultiplier"`
	WeatherMultiplier  float64 `json:"weatherMultiplier"`
	Fare               float64 `json:"fare"`
	TravelMinutes      float64 `json:"travelMinutes"`
	WaitMinutes        float64 `json:"waitMinutes"`
	CumulativeMinutes  float64 `json:"cumulativeMinutes"`
	CumulativeEarnings float64 `json:"cumulativeEarnings"`
}

// Notification is a recommendation event pushed to connected clients.
type Notification struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	CityID         int       `json:"cityId"`
	Hour           int       `json:"hour"`
	Score          float64   `json:"score"`
	RemainingHours int       `json:"remainingHours"`
	CreatedAt      time.Time `json:"createdAt"`
}
