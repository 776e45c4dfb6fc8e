package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/api"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/cache"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/dashboard"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/dataset"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/loader"
)

// --- test helpers -----------------------------------------------------------

type fetcher struct {
	ds  *dataset.Dataset
	err error
}

func (f fetcher) URL() string { return "https://sheet.example/export?format=csv" }

func (f fetcher) Load(context.Context) (*dataset.Dataset, error) { return f.ds, f.err }

func day(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func sheet() *dataset.Dataset {
	return &dataset.Dataset{
		Header:    []string{"date", "boiler", "pct_condensate", "target_pct"},
		HasBoiler: true,
		Records: []dataset.Record{
			{Date: day(1), Boiler: "B1", PctCondensate: 0.80, TargetPct: 0.75},
			{Date: day(2), Boiler: "B2", PctCondensate: 0.70, TargetPct: 0.75},
			{Date: day(3), Boiler: "B1", PctCondensate: 0.90, TargetPct: 0.75},
		},
	}
}

func newHandler(f fetcher) http.Handler { return newHandlerTTL(f, time.Hour) }

func newHandlerTTL(f fetcher, ttl time.Duration) http.Handler {
	svc := dashboard.NewWithFetcher(f, cache.New(ttl), nil, dashboard.Settings{
		Title:          "Condensate Performance Dashboard",
		TargetLine:     true,
		ExportFilename: "condensate_filtered.csv",
	})
	return api.New(svc)
}

func failing() fetcher {
	return fetcher{err: &loader.LoadError{
		URL: "https://sheet.example/export?format=csv",
		Op:  "fetch",
		Err: errors.New("unexpected status 503"),
	}}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

// --- /api/v1/dashboard ------------------------------------------------------

func TestDashboard_FullSpan(t *testing.T) {
	rr := get(t, newHandler(fetcher{ds: sheet()}), "/api/v1/dashboard")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)

	if resp["state"] != "ok" {
		t.Fatalf("state: got %v, want ok", resp["state"])
	}
	agg := resp["aggregates"].(map[string]interface{})
	if v := agg["avg_pct"].(float64); v < 0.7999 || v > 0.8001 {
		t.Errorf("avg_pct: got %v, want 0.80", v)
	}
	if resp["row_count"].(float64) != 3 {
		t.Errorf("row_count: got %v, want 3", resp["row_count"])
	}
	table := resp["table"].(map[string]interface{})
	cols := table["columns"].([]interface{})
	if cols[len(cols)-1] != "status" {
		t.Errorf("last column: got %v, want status", cols[len(cols)-1])
	}
}

func TestDashboard_FiltersFromQuery(t *testing.T) {
	rr := get(t, newHandler(fetcher{ds: sheet()}), "/api/v1/dashboard?boiler=B1&status=On+Target")
	var resp map[string]interface{}
	decode(t, rr, &resp)

	if resp["row_count"].(float64) != 2 {
		t.Errorf("row_count: got %v, want 2", resp["row_count"])
	}
	crit := resp["criteria"].(map[string]interface{})
	if crit["start"] != "2024-01-01" || crit["end"] != "2024-01-03" {
		t.Errorf("criteria bounds: got %v..%v", crit["start"], crit["end"])
	}
}

func TestDashboard_NoData(t *testing.T) {
	rr := get(t, newHandler(fetcher{ds: sheet()}), "/api/v1/dashboard?start=2025-01-01&end=2025-01-02")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)

	if resp["state"] != "no_data" {
		t.Errorf("state: got %v, want no_data", resp["state"])
	}
	for _, k := range []string{"gauge", "trend", "table", "aggregates"} {
		if _, ok := resp[k]; ok {
			t.Errorf("%s: present in no-data response", k)
		}
	}
}

func TestDashboard_InvalidCriteria(t *testing.T) {
	h := newHandler(fetcher{ds: sheet()})
	for _, q := range []string{"start=01/02/2024", "end=soon", "status=Above+Target"} {
		if rr := get(t, h, "/api/v1/dashboard?"+q); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status got %d, want 400", q, rr.Code)
		}
	}
}

func TestDashboard_LoadErrorIsBadGateway(t *testing.T) {
	rr := get(t, newHandler(failing()), "/api/v1/dashboard")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if !strings.Contains(resp["error"].(string), "503") {
		t.Errorf("error: got %v", resp["error"])
	}
}

// --- / ----------------------------------------------------------------------

func TestPage_Renders(t *testing.T) {
	rr := get(t, newHandler(fetcher{ds: sheet()}), "/?boiler=B2")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Condensate Performance Dashboard", "<svg", "/api/v1/export?as_of=", "boiler=B2", `value="B2" selected`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestPage_LoadErrorRendersNoPartialUI(t *testing.T) {
	rr := get(t, newHandler(failing()), "/")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, want 502", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<svg") || strings.Contains(body, "<table") {
		t.Error("error page must not contain dashboard widgets")
	}
	if !strings.Contains(body, "503") {
		t.Error("error page should show the load error")
	}
}

func TestPage_UnknownPathIsNotFound(t *testing.T) {
	if rr := get(t, newHandler(fetcher{ds: sheet()}), "/favicon.ico"); rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

// --- /api/v1/export ---------------------------------------------------------

func TestExport_CSV(t *testing.T) {
	rr := get(t, newHandler(fetcher{ds: sheet()}), "/api/v1/export?status=Below+Target")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="condensate_filtered.csv"` {
		t.Errorf("Content-Disposition: got %q", cd)
	}
	want := "date,boiler,pct_condensate,target_pct,status\n2024-01-02,B2,0.7,0.75,Below Target\n"
	if rr.Body.String() != want {
		t.Errorf("body:\n got %q\nwant %q", rr.Body.String(), want)
	}
}

var exportLink = regexp.MustCompile(`href="(/api/v1/export\?[^"]+)"`)

// pageExportLink renders the page at path and returns its download link.
func pageExportLink(t *testing.T, h http.Handler, path string) string {
	t.Helper()
	rr := get(t, h, path)
	m := exportLink.FindStringSubmatch(rr.Body.String())
	if m == nil {
		t.Fatalf("no export link in page: %s", rr.Body.String())
	}
	return html.UnescapeString(m[1])
}

func TestExport_PageLinkMatchesRenderedTable(t *testing.T) {
	h := newHandler(fetcher{ds: sheet()})
	rr := get(t, h, pageExportLink(t, h, "/?boiler=B1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	want := "date,boiler,pct_condensate,target_pct,status\n" +
		"2024-01-01,B1,0.8,0.75,On Target\n" +
		"2024-01-03,B1,0.9,0.75,On Target\n"
	if rr.Body.String() != want {
		t.Errorf("body:\n got %q\nwant %q", rr.Body.String(), want)
	}
}

func TestExport_RefreshedDataIsConflict(t *testing.T) {
	// Every request reloads, so the export never sees the page's dataset.
	h := newHandlerTTL(fetcher{ds: sheet()}, time.Nanosecond)
	link := pageExportLink(t, h, "/")
	time.Sleep(time.Millisecond)
	rr := get(t, h, link)
	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
}

func TestExport_InvalidAsOf(t *testing.T) {
	rr := get(t, newHandler(fetcher{ds: sheet()}), "/api/v1/export?as_of=yesterday")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestExport_EmptyIsNotFound(t *testing.T) {
	rr := get(t, newHandler(fetcher{ds: sheet()}), "/api/v1/export?start=2024-01-03&end=2024-01-01")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

// --- /api/v1/options and /api/v1/health -------------------------------------

func TestOptions(t *testing.T) {
	rr := get(t, newHandler(fetcher{ds: sheet()}), "/api/v1/options")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)

	if resp["min_date"] != "2024-01-01" || resp["max_date"] != "2024-01-03" {
		t.Errorf("bounds: got %v..%v", resp["min_date"], resp["max_date"])
	}
	if b := resp["boilers"].([]interface{}); len(b) != 2 || b[0] != "B1" {
		t.Errorf("boilers: got %v", b)
	}
	if s := resp["statuses"].([]interface{}); len(s) != 2 {
		t.Errorf("statuses: got %v", s)
	}
	if resp["rows"].(float64) != 3 {
		t.Errorf("rows: got %v", resp["rows"])
	}
}

func TestHealth_DoesNotLoad(t *testing.T) {
	h := newHandler(fetcher{ds: sheet()})

	var resp map[string]interface{}
	decode(t, get(t, h, "/api/v1/health"), &resp)
	if resp["cached"] != false {
		t.Errorf("cached before any render: got %v", resp["cached"])
	}
	if resp["cache_ttl_seconds"].(float64) != 3600 {
		t.Errorf("cache_ttl_seconds: got %v", resp["cache_ttl_seconds"])
	}

	get(t, h, "/api/v1/dashboard")
	decode(t, get(t, h, "/api/v1/health"), &resp)
	if resp["cached"] != true || resp["rows"].(float64) != 3 {
		t.Errorf("after render: got cached=%v rows=%v", resp["cached"], resp["rows"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHandler(fetcher{ds: sheet()})
	get(t, h, "/api/v1/dashboard")

	rr := get(t, h, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "condensate_renders_total 1") {
		t.Errorf("metrics body missing render counter:\n%s", rr.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHandler(fetcher{ds: sheet()})
	for _, path := range []string{"/", "/api/v1/dashboard", "/api/v1/options", "/api/v1/export", "/api/v1/health", "/metrics"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got %d, want 405", path, rr.Code)
		}
	}
}

// --- middleware -------------------------------------------------------------

func TestWrap_RequestIDAndGzip(t *testing.T) {
	h := api.Wrap(newHandler(fetcher{ds: sheet()}), true)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if rr.Header().Get(api.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
	if ce := rr.Header().Get("Content-Encoding"); ce != "gzip" {
		t.Errorf("Content-Encoding: got %q, want gzip", ce)
	}
}

func TestWrap_KeepsIncomingRequestID(t *testing.T) {
	h := api.Wrap(newHandler(fetcher{ds: sheet()}), false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(api.RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get(api.RequestIDHeader); got != "abc-123" {
		t.Errorf("request id: got %q, want abc-123", got)
	}
}
