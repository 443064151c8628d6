package http

import (
	"net/http"

	"wastedash/internal/aggregate"
	"wastedash/internal/filter"
	"wastedash/internal/log"
)

// Chart names served under /api/charts/.
const (
	ChartArea = "area"
	ChartLine = "line"
	ChartBar  = "bar"
	ChartPie  = "pie"
)

// dashboardFor resolves the filter state in r against snap and returns the
// derived views, using the view cache.
func (s *Server) dashboardFor(r *http.Request, snap *aggregate.Snapshot) (filter.Dashboard, error) {
	st, err := filter.FromQuery(snap, r.URL.Query())
	if err != nil {
		return filter.Dashboard{}, err
	}
	return s.views.GetOrCompute(snap.Version, st.Key(), func() (filter.Dashboard, error) {
		return st.Dashboard(snap, s.opts), nil
	})
}

func (s *Server) handleFilterError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.FromContext(r.Context())
	if isFilterError(err) {
		logger.DebugContext(r.Context(), "Invalid filter parameters", log.FieldError, err, log.FieldQuery, r.URL.RawQuery)
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	logger.ErrorContext(r.Context(), "Dashboard computation failed", log.FieldError, err)
	writeError(w, r, http.StatusInternalServerError, "internal error")
}

// handleDashboard returns every chart dataset for the selection in the query.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboardFor(r, s.dataset.Snapshot())
	if err != nil {
		s.handleFilterError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

// handleChart returns a single chart dataset.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	chart := r.PathValue("chart")
	switch chart {
	case ChartArea, ChartLine, ChartBar, ChartPie:
	default:
		writeError(w, r, http.StatusNotFound, "unknown chart "+chart)
		return
	}

	d, err := s.dashboardFor(r, s.dataset.Snapshot())
	if err != nil {
		s.handleFilterError(w, r, err)
		return
	}

	var body any
	switch chart {
	case ChartArea:
		body = d.Area
	case ChartLine:
		body = d.Line
	case ChartBar:
		body = d.Bar
	case ChartPie:
		body = d.Pie
	}
	writeJSON(w, r, http.StatusOK, body)
}

// handleCategories lists categories with their colors and visibility.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboardFor(r, s.dataset.Snapshot())
	if err != nil {
		s.handleFilterError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, d.Categories)
}

type indexData struct {
	Dashboard filter.Dashboard
	Year      int
	HasYear   bool
	Query     string
	Ready     bool
	Source    string
	Error     string
}

// handleIndex renders the dashboard shell. Charts are drawn client-side from
// /api/dashboard using the same query string.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	snap := s.dataset.Snapshot()
	data := indexData{Ready: s.dataset.Ready(), Source: snap.Source}

	st, err := filter.FromQuery(snap, r.URL.Query())
	if err != nil {
		if !isFilterError(err) {
			s.handleFilterError(w, r, err)
			return
		}
		// Fall back to defaults so a stale bookmark still renders.
		data.Error = err.Error()
		st = filter.New(snap)
	}
	data.Query = st.Query().Encode()
	data.Year, data.HasYear = st.Year, st.HasYear
	data.Dashboard, _ = s.views.GetOrCompute(snap.Version, st.Key(), func() (filter.Dashboard, error) {
		return st.Dashboard(snap, s.opts), nil
	})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		logger.ErrorContext(r.Context(), "Dashboard template execution failed", log.FieldError, err, log.FieldOperation, log.OpRender)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
