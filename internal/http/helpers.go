package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"wastedash/internal/filter"
	"wastedash/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes v before sending status, so an encoding failure turns
// into a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Encode response failed", log.FieldError, err, log.FieldPath, r.URL.Path)
		buf.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(errorResponse{Error: "internal error"})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Write response failed", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// isFilterError reports whether err comes from invalid filter parameters.
func isFilterError(err error) bool {
	return errors.Is(err, filter.ErrUnknownYear) || errors.Is(err, filter.ErrUnknownCategory)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}
