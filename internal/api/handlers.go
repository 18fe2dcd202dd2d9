package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"shiftnav/internal/buildinfo"
	"shiftnav/internal/graph"
	"shiftnav/internal/model"
	"shiftnav/internal/opt"
	"shiftnav/internal/service"
	"shiftnav/internal/store"
)

const dateLayout = "2006-01-02"

func intParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func dateParam(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse(dateLayout, v)
}

// writeSolveError maps engine errors onto the problem responses the clients
// can act on.
func writeSolveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, opt.ErrUnknownZone):
		writeProblem(w, http.StatusBadRequest, "Unknown zone", err.Error(), r.URL.Path)
	case errors.Is(err, opt.ErrNoReachableZones),
		errors.Is(err, graph.ErrDataUnavailable),
		errors.Is(err, store.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "No data for city", err.Error(), r.URL.Path)
	default:
		writeProblem(w, http.StatusInternalServerError, "Solve failed", err.Error(), r.URL.Path)
	}
}

// SolveHandler handles POST /v1/solve.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		CityID    int    `json:"cityId"`
		StartZone string `json:"startZone"`
		StartHour int    `json:"startHour"`
		WorkHours int    `json:"workHours"`
		Date      string `json:"date"`
		Timing    bool   `json:"timing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if req.StartHour < 0 || req.StartHour > 23 || req.WorkHours <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid solve request", "startHour must be 0-23 and workHours positive", r.URL.Path)
		return
	}
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		var err error
		if date, err = time.Parse(dateLayout, req.Date); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid date", err.Error(), r.URL.Path)
			return
		}
	}

	res, err := s.Svc.Solver().Solve(r.Context(), model.SolveRequest{
		CityID:    req.CityID,
		StartZone: req.StartZone,
		StartHour: req.StartHour,
		WorkHours: req.WorkHours,
		Date:      date,
	})
	if err != nil {
		writeSolveError(w, r, err)
		return
	}
	body := map[string]any{"startZone": res.StartZone, "earnings": res.Earnings, "path": res.Path}
	if req.Timing {
		steps, err := s.Svc.PathTiming(r.Context(), req.CityID, res.Path, req.StartHour, date)
		if err == nil {
			body["steps"] = steps
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// OptimalTimeHandler handles GET /v1/recommendations/optimal-time.
func (s *Server) OptimalTimeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	city := intParam(r, "city", 0)
	zone := r.URL.Query().Get("zone")
	earliest := intParam(r, "earliest", 6)
	latest := intParam(r, "latest", 20)
	hours := intParam(r, "hours", 8)
	date, err := dateParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", err.Error(), r.URL.Path)
		return
	}
	best, ok, err := s.Svc.OptimalStartTime(r.Context(), city, zone, earliest, latest, hours, date)
	if err != nil {
		writeSolveError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"recommendation": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendation": best})
}

// TimeScoresHandler handles GET /v1/recommendations/time-scores.
func (s *Server) TimeScoresHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	city := intParam(r, "city", 0)
	zone := r.URL.Query().Get("zone")
	earliest := intParam(r, "earliest", 6)
	latest := intParam(r, "latest", 20)
	hours := intParam(r, "hours", 8)
	date, err := dateParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", err.Error(), r.URL.Path)
		return
	}
	scores, err := s.Svc.AllTimeScores(r.Context(), city, zone, earliest, latest, hours, date)
	if err != nil {
		writeSolveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": scores})
}

// BestZoneHandler handles GET /v1/recommendations/best-zone.
func (s *Server) BestZoneHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	city := intParam(r, "city", 0)
	hour := intParam(r, "hour", time.Now().UTC().Hour())
	hours := intParam(r, "hours", 8)
	date, err := dateParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", err.Error(), r.URL.Path)
		return
	}
	best, ok, err := s.Svc.BestZoneForTime(r.Context(), city, hour, hours, date)
	if err != nil {
		writeSolveError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"recommendation": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendation": best})
}

// ZoneScoresHandler handles GET /v1/recommendations/zone-scores.
func (s *Server) ZoneScoresHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	city := intParam(r, "city", 0)
	hour := intParam(r, "hour", time.Now().UTC().Hour())
	hours := intParam(r, "hours", 8)
	date, err := dateParam(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date", err.Error(), r.URL.Path)
		return
	}
	scores, err := s.Svc.AllZoneScores(r.Context(), city, hour, hours, date)
	if err != nil {
		writeSolveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": scores})
}

// ZonesHandler handles GET /v1/zones. With lat and lon it returns the
// nearest zone instead of the full list.
func (s *Server) ZonesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	city := intParam(r, "city", 0)
	latStr, lonStr := r.URL.Query().Get("lat"), r.URL.Query().Get("lon")
	if latStr != "" && lonStr != "" {
		lat, err1 := strconv.ParseFloat(latStr, 64)
		lon, err2 := strconv.ParseFloat(lonStr, 64)
		if err1 != nil || err2 != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid coordinates", "lat and lon must be numeric", r.URL.Path)
			return
		}
		z, err := s.Svc.NearestZone(r.Context(), city, lat, lon)
		if err != nil {
			writeSolveError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"zone": z})
		return
	}
	zones, err := s.Svc.Zones(r.Context(), city)
	if err != nil {
		writeSolveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": zones})
}

// ScheduleCompareHandler handles POST /v1/schedules/compare.
func (s *Server) ScheduleCompareHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		CityID    int                      `json:"cityId"`
		StartZone string                   `json:"startZone"`
		Date      string                   `json:"date"`
		Options   []service.ScheduleOption `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if len(req.Options) == 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid request", "options required", r.URL.Path)
		return
	}
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		var err error
		if date, err = time.Parse(dateLayout, req.Date); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid date", err.Error(), r.URL.Path)
			return
		}
	}
	scores, err := s.Svc.CompareSchedules(r.Context(), req.CityID, req.StartZone, req.Options, date)
	if err != nil {
		writeSolveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": scores})
}

// CacheInvalidateHandler handles POST /v1/admin/cache/invalidate.
func (s *Server) CacheInvalidateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		CityID   int    `json:"cityId"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	if err := s.Svc.Invalidate(r.Context(), req.CityID, req.Category); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Invalidate failed", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invalidated": true})
}

// HealthHandler handles GET /healthz.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Info()})
}

// ReadyHandler handles GET /readyz: ready once the store answers.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Store.ListCities(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}
