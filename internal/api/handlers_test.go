package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"shiftnav/internal/config"
	"shiftnav/internal/model"
	"shiftnav/internal/store"
)

func flatTrip(city int, from, to string, fare, minutes float64, perHour int) model.TripStats {
	t := model.TripStats{CityID: city, FromZone: from, ToZone: to, AvgFare: fare, AvgMinutes: minutes, TotalTrips: perHour * 24}
	for h := 0; h < 24; h++ {
		t.HourlyTrips[h] = perHour
		t.HourlyFare[h] = fare
		t.HourlyMinutes[h] = minutes
	}
	return t
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.SnapshotDir = ""
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	mem := s.Store.(*store.Memory)
	mem.SeedZones(
		model.Zone{ID: "a", CityID: 1, Lat: 40.0, Lon: -74.0, LatMin: 39.99, LatMax: 40.01, LonMin: -74.01, LonMax: -73.99},
		model.Zone{ID: "b", CityID: 1, Lat: 40.1, Lon: -74.1, LatMin: 40.09, LatMax: 40.11, LonMin: -74.11, LonMax: -74.09},
	)
	mem.SeedTrips(flatTrip(1, "a", "b", 10, 10, 10), flatTrip(1, "b", "a", 20, 10, 10))
	return s
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestSolveEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"cityId":1,"startZone":"b","startHour":9,"workHours":1,"date":"2026-03-14","timing":true}`)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.SolveHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("solve: got %d body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		StartZone string   `json:"startZone"`
		Earnings  float64  `json:"earnings"`
		Path      []string `json:"path"`
		Steps     []any    `json:"steps"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StartZone != "b" || resp.Earnings <= 0 || len(resp.Path) == 0 {
		t.Fatalf("resp = %+v", resp)
	}
	if len(resp.Steps) == 0 {
		t.Fatal("timing requested but no steps returned")
	}
}

func TestSolveEndpointValidation(t *testing.T) {
	s := newTestServer(t)

	rr := httptest.NewRecorder()
	s.SolveHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader([]byte(`{"cityId":1,"startHour":25,"workHours":1}`))))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad hour: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.SolveHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader([]byte(`{"cityId":1,"startZone":"nope","startHour":9,"workHours":1}`))))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown zone: got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	s.SolveHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/solve", bytes.NewReader([]byte(`{"cityId":99,"startHour":9,"workHours":1}`))))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown city: got %d", rr.Code)
	}
}

func TestOptimalTimeEndpoint(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.OptimalTimeHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/recommendations/optimal-time?city=1&earliest=9&latest=11&hours=4&date=2026-03-14", nil))
	if rr.Code != 200 {
		t.Fatalf("optimal time: got %d body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Recommendation *model.TimeScore `json:"recommendation"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Recommendation == nil || resp.Recommendation.Hour != 9 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestOptimalTimeEndpointNoData(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.OptimalTimeHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/recommendations/optimal-time?city=99&date=2026-03-14", nil))
	if rr.Code != 200 {
		t.Fatalf("no data: got %d", rr.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["recommendation"] != nil {
		t.Fatalf("resp = %+v, want null recommendation", resp)
	}
}

func TestZoneScoresEndpoint(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.ZoneScoresHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/recommendations/zone-scores?city=1&hour=9&hours=2&date=2026-03-14", nil))
	if rr.Code != 200 {
		t.Fatalf("zone scores: got %d", rr.Code)
	}
	var resp struct {
		Items []model.ZoneScore `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 2 || resp.Items[0].ZoneID != "b" {
		t.Fatalf("items = %+v", resp.Items)
	}
}

func TestZonesEndpoint(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.ZonesHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/zones?city=1", nil))
	if rr.Code != 200 {
		t.Fatalf("zones: got %d", rr.Code)
	}
	var resp struct {
		Items []model.Zone `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %+v", resp.Items)
	}

	// nearest-zone variant
	rr = httptest.NewRecorder()
	s.ZonesHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/zones?city=1&lat=40.005&lon=-74.005", nil))
	if rr.Code != 200 {
		t.Fatalf("nearest: got %d", rr.Code)
	}
	var near struct {
		Zone model.Zone `json:"zone"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &near); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if near.Zone.ID != "a" {
		t.Fatalf("nearest = %q, want a", near.Zone.ID)
	}
}

func TestScheduleCompareEndpoint(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"cityId":1,"startZone":"b","date":"2026-03-14","options":[{"startHour":9,"workHours":2},{"startHour":14,"workHours":4}]}`)
	rr := httptest.NewRecorder()
	s.ScheduleCompareHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/schedules/compare", bytes.NewReader(body)))
	if rr.Code != 200 {
		t.Fatalf("compare: got %d body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %+v", resp.Items)
	}
}

func TestCacheInvalidateEndpoint(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.CacheInvalidateHandler(rr, httptest.NewRequest(http.MethodPost, "/v1/admin/cache/invalidate", bytes.NewReader([]byte(`{"cityId":1,"category":"dp"}`))))
	if rr.Code != 200 {
		t.Fatalf("invalidate: got %d body %s", rr.Code, rr.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.SolveHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/solve", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got %d", rr.Code)
	}
}
