package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"fleetsim/internal/model"
	"fleetsim/internal/sim"
)

// SimulationsHandler handles POST/GET /v1/simulations
func (s *Server) SimulationsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req model.SimulationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		resp, err := s.Runner.Run(r.Context(), req)
		if err != nil {
			var ve *sim.ValidationError
			if errors.As(err, &ve) {
				writeProblem(w, http.StatusBadRequest, "Invalid simulation inputs", ve.Reason, r.URL.Path)
				return
			}
			writeProblem(w, http.StatusInternalServerError, "Simulation failed", "internal error", r.URL.Path)
			return
		}
		if !resp.FromCache {
			s.Broker.Publish(Event{Type: "simulation.completed", Data: map[string]any{
				"id":              resp.ID,
				"totalProfit":     resp.TotalProfit,
				"efficiencyScore": resp.EfficiencyScore,
			}})
		}
		writeJSON(w, http.StatusCreated, resp)
	case http.MethodGet:
		list, err := s.Runner.List(r.Context(), parseListQuery(r))
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List simulations failed", "internal error", r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, list)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SimulationLatestHandler handles GET /v1/simulations/latest. Returns null
// when no run exists yet.
func (s *Server) SimulationLatestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	run, found, err := s.Runner.Latest(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Latest simulation failed", "internal error", r.URL.Path)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// CacheStatsHandler handles GET /v1/simulations/cache/stats
func (s *Server) CacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.Cache.Stats(r.Context()))
}

// CacheClearHandler handles POST /v1/simulations/cache/clear with a body of
// {"type": "simulations" | "lists" | "all"}. Idempotent.
func (s *Server) CacheClearHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		return
	}
	var ok bool
	switch body.Type {
	case "simulations":
		ok = s.Cache.InvalidateSimulations(r.Context())
	case "lists":
		ok = s.Cache.InvalidateList(r.Context(), "simulations")
	case "all":
		ok = s.Cache.ClearAll(r.Context())
	default:
		writeProblem(w, http.StatusBadRequest, "Invalid cache clear type", "type must be simulations, lists, or all", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cleared": ok, "type": body.Type})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler reports readiness of the primary store. The cache is
// intentionally excluded: the service stays correct without it.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Store.CountDrivers(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Store unavailable", "internal error", r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func parseListQuery(r *http.Request) model.ListQuery {
	q := model.ListQuery{
		SortBy:    r.URL.Query().Get("sortBy"),
		SortOrder: r.URL.Query().Get("sortOrder"),
	}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return q
}
