package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"brandlens/provider"
	"brandlens/service"

	"github.com/go-chi/chi/v5"
)

// defaultStatsWindowDays is used when a stats request omits its window
const defaultStatsWindowDays = 30

type startRunRequest struct {
	DomainID int64  `json:"domain_id"`
	Provider string `json:"provider"`
}

type startRunResponse struct {
	JobID string `json:"job_id"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStartRun triggers a fire-and-forget batch for a domain. The batch
// outlives this request; callers poll run-status for progress.
func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DomainID <= 0 {
		writeError(w, http.StatusBadRequest, "domain_id is required")
		return
	}
	if !provider.ValidName(req.Provider) {
		writeError(w, http.StatusBadRequest, "unknown provider: "+req.Provider)
		return
	}

	jobID, err := s.runService.StartDomainRun(r.Context(), req.DomainID, provider.Name(req.Provider))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDomainNotFound):
			writeError(w, http.StatusNotFound, "domain not found")
		case errors.Is(err, service.ErrBatchInProgress):
			writeError(w, http.StatusConflict, "a batch is already running for this domain")
		default:
			writeError(w, http.StatusInternalServerError, "failed to start run")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, startRunResponse{JobID: jobID})
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	domainID, ok := domainIDParam(w, r)
	if !ok {
		return
	}

	status, err := s.runService.GetRunStatus(r.Context(), domainID)
	if err != nil {
		if errors.Is(err, service.ErrDomainNotFound) {
			writeError(w, http.StatusNotFound, "domain not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get run status")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	domainID, ok := domainIDParam(w, r)
	if !ok {
		return
	}
	start, end, ok := windowParams(w, r)
	if !ok {
		return
	}

	stats, err := s.statsService.GetVisibilityStats(r.Context(), domainID, start, end)
	if err != nil {
		if errors.Is(err, service.ErrDomainNotFound) {
			writeError(w, http.StatusNotFound, "domain not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	domainID, ok := domainIDParam(w, r)
	if !ok {
		return
	}
	start, end, ok := windowParams(w, r)
	if !ok {
		return
	}

	var brands []string
	for _, b := range strings.Split(r.URL.Query().Get("brands"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brands = append(brands, b)
		}
	}
	if len(brands) == 0 {
		writeError(w, http.StatusBadRequest, "brands query parameter is required")
		return
	}

	rankings, err := s.statsService.GetRankings(r.Context(), domainID, start, end, brands)
	if err != nil {
		if errors.Is(err, service.ErrDomainNotFound) {
			writeError(w, http.StatusNotFound, "domain not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get rankings")
		return
	}

	writeJSON(w, http.StatusOK, rankings)
}

func domainIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	domainID, err := strconv.ParseInt(chi.URLParam(r, "domainID"), 10, 64)
	if err != nil || domainID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid domain id")
		return 0, false
	}
	return domainID, true
}

// windowParams parses the optional start/end date query parameters
// (YYYY-MM-DD). Defaults to the last 30 days ending today.
func windowParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -defaultStatsWindowDays)
	end := now

	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date, expected YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		start = parsed
	}
	if v := r.URL.Query().Get("end"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date, expected YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		end = parsed
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end date before start date")
		return time.Time{}, time.Time{}, false
	}

	return start, end, true
}
