package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wastedash/internal/aggregate"
	"wastedash/internal/core"
	"wastedash/internal/dataset"
	"wastedash/internal/metrics"
)

type fakeDataset struct {
	snap  *aggregate.Snapshot
	ready bool
}

func (f *fakeDataset) Snapshot() *aggregate.Snapshot { return f.snap }
func (f *fakeDataset) Ready() bool                   { return f.ready }
func (f *fakeDataset) Status() dataset.Status {
	return dataset.Status{Ready: f.ready, Source: f.snap.Source, Version: f.snap.Version, Observations: f.snap.Len()}
}

func loadedDataset() *fakeDataset {
	o := func(y int, m core.Month, c, mat string, w float64) core.Observation {
		return core.Observation{Year: y, Month: m, Category: c, Material: mat, Weight: w}
	}
	snap := aggregate.Build([]core.Observation{
		o(2022, core.January, "Recycling", "Plastic", 1000),
		o(2022, core.January, "Recycling", "Glass", 500),
		o(2022, core.February, "Trash", "Mixed", 40),
		o(2023, core.March, "Recycling", "Paper", 3),
	}, aggregate.DefaultMaterialLimit)
	snap.Version = 1
	snap.Source = "test.csv"
	return &fakeDataset{snap: snap, ready: true}
}

func newTestServer(t *testing.T, ds *fakeDataset) *Server {
	t.Helper()
	srv := NewServer(ds, Config{
		Addr:               ":0",
		RateLimitPerMinute: 1000,
		CacheSize:          16,
		CacheTTL:           time.Minute,
		Metrics:            metrics.New(),
	})
	t.Cleanup(srv.rateLimiter.Stop)
	return srv
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestIndexRendersDashboard(t *testing.T) {
	srv := newTestServer(t, loadedDataset())
	rec := get(t, srv, "/?category=Recycling")
	if rec.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{
		"Waste Management Dashboard",
		"Category Composition Over Time",
		`<option value="Recycling" selected>`,
		`<option value="2023" selected>`,
		`data-query="category=Recycling&amp;year=2023"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "cdn.jsdelivr.net") {
		t.Errorf("CSP = %q", csp)
	}
}

func TestIndexFallsBackOnInvalidSelection(t *testing.T) {
	srv := newTestServer(t, loadedDataset())
	rec := get(t, srv, "/?year=1999")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Ignored invalid selection") {
		t.Error("expected invalid selection notice")
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv := newTestServer(t, loadedDataset())
	if rec := get(t, srv, "/nope"); rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestDashboardAPI(t *testing.T) {
	srv := newTestServer(t, loadedDataset())
	rec := get(t, srv, "/api/dashboard?category=Recycling&year=2022&hide=Trash")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	var d struct {
		Version    uint64 `json:"version"`
		Category   string `json:"category"`
		Year       *int   `json:"year"`
		Years      []int  `json:"years"`
		Categories []struct {
			Name    string `json:"name"`
			Color   string `json:"color"`
			Visible bool   `json:"visible"`
		} `json:"categories"`
		Area []map[string]any `json:"area"`
		Line []struct {
			Date   string  `json:"date"`
			Weight float64 `json:"weight"`
		} `json:"line"`
		Bar []struct {
			Category string  `json:"category"`
			Weight   float64 `json:"weight"`
		} `json:"bar"`
		Pie []struct {
			Material string  `json:"material"`
			Weight   float64 `json:"weight"`
			Color    string  `json:"color"`
		} `json:"pie"`
	}
	decode(t, rec, &d)

	if d.Version != 1 || d.Category != "Recycling" || d.Year == nil || *d.Year != 2022 {
		t.Fatalf("unexpected selection %+v", d)
	}
	if len(d.Years) != 2 || d.Years[0] != 2022 || d.Years[1] != 2023 {
		t.Errorf("years = %v", d.Years)
	}
	if len(d.Line) != 1 || d.Line[0].Date != "2022-01" || d.Line[0].Weight != 1500 {
		t.Errorf("line = %+v", d.Line)
	}
	for _, row := range d.Area {
		if _, ok := row["Trash"]; ok {
			t.Errorf("hidden category present in area row %v", row)
		}
		if _, ok := row["Recycling"]; !ok {
			t.Errorf("visible category missing from area row %v", row)
		}
	}
	if len(d.Bar) != 2 || d.Bar[0].Category != "Recycling" || d.Bar[0].Weight != 1503 {
		t.Errorf("bar = %+v", d.Bar)
	}
	if len(d.Pie) == 0 || d.Pie[0].Material != "Plastic" || d.Pie[0].Color != aggregate.ColorFor(0) {
		t.Errorf("pie = %+v", d.Pie)
	}
	for _, c := range d.Categories {
		if c.Name == "Trash" && c.Visible {
			t.Error("Trash should be hidden")
		}
	}
}

func TestDashboardAPIInvalidFilter(t *testing.T) {
	srv := newTestServer(t, loadedDataset())
	tests := []string{
		"/api/dashboard?year=1999",
		"/api/dashboard?year=abc",
		"/api/dashboard?hide=Unknown",
		"/api/charts/line?year=1800",
	}
	for _, target := range tests {
		rec := get(t, srv, target)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status=%d", target, rec.Code)
			continue
		}
		var e errorResponse
		decode(t, rec, &e)
		if e.Error == "" {
			t.Errorf("%s: empty error body", target)
		}
	}
}

func TestChartEndpoints(t *testing.T) {
	srv := newTestServer(t, loadedDataset())
	for _, chart := range []string{ChartArea, ChartLine, ChartBar, ChartPie} {
		rec := get(t, srv, "/api/charts/"+chart)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status=%d", chart, rec.Code)
			continue
		}
		var rows []json.RawMessage
		decode(t, rec, &rows)
		if len(rows) == 0 {
			t.Errorf("%s: empty dataset", chart)
		}
	}
	if rec := get(t, srv, "/api/charts/radar"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown chart status=%d", rec.Code)
	}
}

func TestCategoriesAPI(t *testing.T) {
	srv := newTestServer(t, loadedDataset())
	var cats []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	decode(t, get(t, srv, "/api/categories"), &cats)
	if len(cats) != 2 || cats[0].Name != "Recycling" || cats[0].Color != aggregate.ColorFor(0) || cats[1].Color != aggregate.ColorFor(1) {
		t.Fatalf("categories = %+v", cats)
	}
}

func TestDashboardCachedPerVersion(t *testing.T) {
	ds := loadedDataset()
	srv := newTestServer(t, ds)
	get(t, srv, "/api/dashboard")
	get(t, srv, "/api/dashboard")
	if srv.viewCache.Size() != 1 {
		t.Fatalf("cache size = %d, want 1", srv.viewCache.Size())
	}

	next := aggregate.Empty()
	next.Version = 2
	ds.snap = next
	rec := get(t, srv, "/api/dashboard")
	var d struct {
		Version uint64 `json:"version"`
		Bar     []any  `json:"bar"`
	}
	decode(t, rec, &d)
	if d.Version != 2 || len(d.Bar) != 0 {
		t.Fatalf("stale view served: %+v", d)
	}
}

func TestHealthAndReadiness(t *testing.T) {
	ds := &fakeDataset{snap: aggregate.Empty()}
	srv := newTestServer(t, ds)

	if rec := get(t, srv, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", rec.Code)
	}
	rec := get(t, srv, "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz before load status=%d", rec.Code)
	}
	var ready readyResponse
	decode(t, rec, &ready)
	if ready.Status != "not_ready" || ready.Checks["dataset"] != "not loaded" {
		t.Errorf("unexpected readiness %+v", ready)
	}

	// The empty dataset still renders empty charts.
	if rec := get(t, srv, "/api/dashboard"); rec.Code != http.StatusOK {
		t.Fatalf("dashboard on empty dataset status=%d", rec.Code)
	}

	ds.ready = true
	if rec := get(t, srv, "/readyz"); rec.Code != http.StatusOK {
		t.Fatalf("readyz after load status=%d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, loadedDataset())
	get(t, srv, "/api/dashboard")
	rec := get(t, srv, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `wastedash_http_requests_total{code="200",method="GET",path="GET /api/dashboard"} 1`) {
		t.Error("request metric missing")
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, loadedDataset())
	rec := get(t, srv, "/static/dashboard.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec.Header().Get("Cache-Control") == "" {
		t.Error("static assets should be cacheable")
	}
}

func TestRateLimitReturnsJSON(t *testing.T) {
	srv := NewServer(loadedDataset(), Config{RateLimitPerMinute: 1, CacheSize: 4})
	t.Cleanup(srv.rateLimiter.Stop)

	get(t, srv, "/api/categories")
	rec := get(t, srv, "/api/categories")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") || rec.Header().Get("Retry-After") == "" {
		t.Errorf("headers = %v", rec.Header())
	}
	// Health checks are not rate limited.
	if rec := get(t, srv, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz status=%d", rec.Code)
	}
}

func TestDashboardAPINonFiniteTotalIs500(t *testing.T) {
	snap := aggregate.Build([]core.Observation{
		{Year: 2022, Month: core.January, Category: "Trash", Material: "Mixed", Weight: math.MaxFloat64},
		{Year: 2022, Month: core.January, Category: "Trash", Material: "Mixed", Weight: math.MaxFloat64},
	}, aggregate.DefaultMaterialLimit)
	snap.Version = 1
	srv := newTestServer(t, &fakeDataset{snap: snap, ready: true})

	rec := get(t, srv, "/api/dashboard")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d body=%q", rec.Code, rec.Body.String())
	}
	var e errorResponse
	decode(t, rec, &e)
	if e.Error == "" {
		t.Fatal("expected an error body")
	}
}
