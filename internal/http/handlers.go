package http

import (
	"net/http"
	"time"

	"wastedash/internal/dataset"
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	})
}

type readyResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Dataset   dataset.Status    `json:"dataset"`
}

// handleReady reports 503 until the first dataset load has succeeded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	st := s.dataset.Status()
	resp := readyResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]string{"dataset": "ok", "templates": "ok"},
		Dataset:   st,
	}
	code := http.StatusOK

	if !s.dataset.Ready() {
		resp.Checks["dataset"] = "not loaded"
		if st.LastError != "" {
			resp.Checks["dataset"] = "failed: " + st.LastError
		}
		resp.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}
	if s.templates == nil {
		resp.Checks["templates"] = "failed: templates not loaded"
		resp.Status = "not_ready"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, r, code, resp)
}

// handleStatus exposes the dataset status without affecting readiness.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.dataset.Status())
}
