package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goption "google.golang.org/api/option"

	"wastedash/internal/core"
	"wastedash/internal/log"
	"wastedash/internal/source"
)

func fakeSheets(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/spreadsheets/sheet-id/values/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id", SheetName: "Data"}, log.Discard(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestClientLoad(t *testing.T) {
	srv := fakeSheets(t, `{
		"range": "Data!A1:E3",
		"majorDimension": "ROWS",
		"values": [
			["Month", "Year", "Category", "Material Type", "Weight (lbs)"],
			["Jan", "2022", "recycling", "Plastic", "1,000"],
			["Jan", "2022", "recycling", "Glass"]
		]
	}`, http.StatusOK)

	recs, err := newTestClient(t, srv).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	want := core.RawRecord{Year: "2022", Month: "Jan", Category: "recycling", Material: "Plastic", Weight: "1,000"}
	if recs[0] != want {
		t.Fatalf("got %+v, want %+v", recs[0], want)
	}
	if recs[1].Weight != "" {
		t.Fatalf("trailing empty cells are omitted by the API and must read as empty, got %q", recs[1].Weight)
	}
}

func TestClientLoadEmptySheet(t *testing.T) {
	srv := fakeSheets(t, `{"range": "Data!A1:Z1000", "majorDimension": "ROWS"}`, http.StatusOK)
	if _, err := newTestClient(t, srv).Load(context.Background()); !errors.Is(err, source.ErrEmptyDataset) {
		t.Fatalf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestClientLoadAPIError(t *testing.T) {
	srv := fakeSheets(t, `{"error": {"code": 403, "message": "denied"}}`, http.StatusForbidden)
	_, err := newTestClient(t, srv).Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), `read sheet "Data"`) {
		t.Fatalf("expected wrapped API error, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(context.Background(), Config{SheetName: "Data"}, log.Discard()); err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "x", SheetName: "Data"}, log.Discard()); err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error %v", err)
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "x", SheetName: "Data", CredentialsFile: "/non/existent.json"}, log.Discard()); err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestToStrings(t *testing.T) {
	got := toStrings([]interface{}{"a", float64(2022), nil, true})
	want := []string{"a", "2022", "", "true"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
