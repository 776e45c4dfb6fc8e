package metrics

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Recorder counts loader, cache and render activity.
type Recorder struct {
	loads        int64
	loadFailures int64
	cacheHits    int64
	rowsLoaded   int64
	rowsDropped  int64

	renders      int64
	emptyRenders int64

	// float64 bits of the most recent non-empty render
	avgPct    uint64
	avgTarget uint64
}

// Snapshot is a point-in-time copy of a Recorder.
type Snapshot struct {
	Loads        int64   `json:"loads"`
	LoadFailures int64   `json:"load_failures"`
	CacheHits    int64   `json:"cache_hits"`
	RowsLoaded   int64   `json:"rows_loaded"`
	RowsDropped  int64   `json:"rows_dropped"`
	Renders      int64   `json:"renders"`
	EmptyRenders int64   `json:"empty_renders"`
	AvgPct       float64 `json:"avg_pct"`
	AvgTarget    float64 `json:"avg_target_pct"`
}

// New creates a zeroed Recorder.
func New() *Recorder {
	return &Recorder{}
}

// RecordLoad records one completed fetch. rows and dropped describe the
// parsed dataset and are ignored when err is non-nil.
func (m *Recorder) RecordLoad(rows, dropped int, err error) {
	atomic.AddInt64(&m.loads, 1)
	if err != nil {
		atomic.AddInt64(&m.loadFailures, 1)
		return
	}
	atomic.StoreInt64(&m.rowsLoaded, int64(rows))
	atomic.StoreInt64(&m.rowsDropped, int64(dropped))
}

// RecordCacheHit records a render served from the cached dataset.
func (m *Recorder) RecordCacheHit() {
	atomic.AddInt64(&m.cacheHits, 1)
}

// RecordRender records one pipeline pass. The averages are kept only for
// non-empty renders.
func (m *Recorder) RecordRender(empty bool, avgPct, avgTarget float64) {
	atomic.AddInt64(&m.renders, 1)
	if empty {
		atomic.AddInt64(&m.emptyRenders, 1)
		return
	}
	atomic.StoreUint64(&m.avgPct, math.Float64bits(avgPct))
	atomic.StoreUint64(&m.avgTarget, math.Float64bits(avgTarget))
}

// Snapshot returns a read-only view of the counters.
func (m *Recorder) Snapshot() Snapshot {
	return Snapshot{
		Loads:        atomic.LoadInt64(&m.loads),
		LoadFailures: atomic.LoadInt64(&m.loadFailures),
		CacheHits:    atomic.LoadInt64(&m.cacheHits),
		RowsLoaded:   atomic.LoadInt64(&m.rowsLoaded),
		RowsDropped:  atomic.LoadInt64(&m.rowsDropped),
		Renders:      atomic.LoadInt64(&m.renders),
		EmptyRenders: atomic.LoadInt64(&m.emptyRenders),
		AvgPct:       math.Float64frombits(atomic.LoadUint64(&m.avgPct)),
		AvgTarget:    math.Float64frombits(atomic.LoadUint64(&m.avgTarget)),
	}
}

// Families converts the current snapshot to Prometheus metric families.
func (m *Recorder) Families() []*dto.MetricFamily {
	s := m.Snapshot()
	return []*dto.MetricFamily{
		family("condensate_loads_total", "Dataset fetches attempted.", dto.MetricType_COUNTER, float64(s.Loads)),
		family("condensate_load_failures_total", "Dataset fetches that failed.", dto.MetricType_COUNTER, float64(s.LoadFailures)),
		family("condensate_cache_hits_total", "Renders served from the cached dataset.", dto.MetricType_COUNTER, float64(s.CacheHits)),
		family("condensate_rows_loaded", "Rows in the most recently loaded dataset.", dto.MetricType_GAUGE, float64(s.RowsLoaded)),
		family("condensate_rows_dropped", "Rows skipped by the tolerant date policy in the last load.", dto.MetricType_GAUGE, float64(s.RowsDropped)),
		family("condensate_renders_total", "Dashboard pipeline passes.", dto.MetricType_COUNTER, float64(s.Renders)),
		family("condensate_empty_renders_total", "Pipeline passes that matched no rows.", dto.MetricType_COUNTER, float64(s.EmptyRenders)),
		family("condensate_avg_pct", "Average pct_condensate of the last non-empty render.", dto.MetricType_GAUGE, s.AvgPct),
		family("condensate_avg_target_pct", "Average target_pct of the last non-empty render.", dto.MetricType_GAUGE, s.AvgTarget),
	}
}

// Handler serves the families in the Prometheus text format.
func (m *Recorder) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		format := expfmt.NewFormat(expfmt.TypeTextPlain)
		w.Header().Set("Content-Type", string(format))
		enc := expfmt.NewEncoder(w, format)
		for _, mf := range m.Families() {
			if err := enc.Encode(mf); err != nil {
				slog.Warn("metrics: encode failed", "family", mf.GetName(), "err", err)
				return
			}
		}
	})
}

func family(name, help string, typ dto.MetricType, v float64) *dto.MetricFamily {
	mf := &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: typ.Enum(),
	}
	switch typ {
	case dto.MetricType_COUNTER:
		mf.Metric = []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}}
	case dto.MetricType_GAUGE:
		mf.Metric = []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}}
	default:
		panic(fmt.Sprintf("metrics: unsupported type %v", typ))
	}
	return mf
}
