package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/common/expfmt"
)

func TestRecorder_Snapshot(t *testing.T) {
	m := New()
	m.RecordLoad(120, 3, nil)
	m.RecordLoad(0, 0, errors.New("boom"))
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordRender(false, 0.8, 0.75)
	m.RecordRender(true, 0, 0)

	s := m.Snapshot()
	if s.Loads != 2 || s.LoadFailures != 1 {
		t.Errorf("loads: got %d/%d, want 2/1", s.Loads, s.LoadFailures)
	}
	if s.RowsLoaded != 120 || s.RowsDropped != 3 {
		t.Errorf("rows: got %d/%d, want 120/3 (failed load must not reset them)", s.RowsLoaded, s.RowsDropped)
	}
	if s.CacheHits != 2 {
		t.Errorf("CacheHits: got %d, want 2", s.CacheHits)
	}
	if s.Renders != 2 || s.EmptyRenders != 1 {
		t.Errorf("renders: got %d/%d, want 2/1", s.Renders, s.EmptyRenders)
	}
	if s.AvgPct != 0.8 || s.AvgTarget != 0.75 {
		t.Errorf("averages: got %v/%v, want 0.8/0.75 (empty render must not reset them)", s.AvgPct, s.AvgTarget)
	}
}

func TestHandler_TextExposition(t *testing.T) {
	m := New()
	m.RecordLoad(10, 1, nil)
	m.RecordRender(false, 0.5, 0.6)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		t.Fatalf("parse exposition: %v", err)
	}
	if len(families) != 9 {
		t.Errorf("families: got %d, want 9", len(families))
	}

	tests := []struct {
		name string
		want float64
	}{
		{"condensate_loads_total", 1},
		{"condensate_rows_loaded", 10},
		{"condensate_rows_dropped", 1},
		{"condensate_renders_total", 1},
		{"condensate_avg_pct", 0.5},
		{"condensate_avg_target_pct", 0.6},
	}
	for _, tt := range tests {
		mf, ok := families[tt.name]
		if !ok {
			t.Errorf("%s: missing", tt.name)
			continue
		}
		m := mf.GetMetric()[0]
		got := m.GetCounter().GetValue() + m.GetGauge().GetValue()
		if got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	New().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rec.Code)
	}
}
