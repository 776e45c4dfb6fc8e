package present

import (
	"time"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/dataset"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/pipeline"
)

// Dashboard states.
const (
	StateOK     = "ok"
	StateNoData = "no_data"
)

// NoDataMessage is shown instead of charts when the criteria match nothing.
const NoDataMessage = "No data matches the selected filters."

// YAxisFormat is the trend chart's y tick format: fractions shown as whole percents.
const YAxisFormat = ".0%"

// StatusColors maps each status to its series color.
var StatusColors = map[dataset.Status]string{
	dataset.StatusBelowTarget: "red",
	dataset.StatusOnTarget:    "green",
}

// Options controls optional presentation details.
type Options struct {
	Title      string
	TargetLine bool
}

// Dashboard is everything a renderer needs for one pass. In the no-data
// state only Title, State, Message and Criteria are set.
type Dashboard struct {
	Title       string               `json:"title"`
	State       string               `json:"state"`
	Message     string               `json:"message,omitempty"`
	Criteria    CriteriaView         `json:"criteria"`
	RowCount    int                  `json:"row_count"`
	BelowCount  int                  `json:"below_target_count"`
	Aggregates  *pipeline.Aggregates `json:"aggregates,omitempty"`
	Gauge       *Gauge               `json:"gauge,omitempty"`
	Trend       *Trend               `json:"trend,omitempty"`
	Table       *Table               `json:"table,omitempty"`
	GeneratedAt string               `json:"generated_at"` // RFC3339
}

// CriteriaView is the resolved criteria in display form.
type CriteriaView struct {
	Start    string   `json:"start,omitempty"`
	End      string   `json:"end,omitempty"`
	Boilers  []string `json:"boilers"`
	Statuses []string `json:"statuses"`
}

// Gauge is the average recovery indicator. Value and Threshold are percents.
type Gauge struct {
	Title     string     `json:"title"`
	Value     float64    `json:"value"`
	Threshold float64    `json:"threshold"`
	Range     [2]float64 `json:"range"`
}

// Below reports whether the gauge value sits in the below-threshold band.
func (g Gauge) Below() bool { return g.Value < g.Threshold }

// Trend is the recovery time series split by status.
type Trend struct {
	Series      []Series `json:"series"`
	YAxisFormat string   `json:"y_axis_format"`
	// ReferenceLine is the average target as a fraction, when enabled.
	ReferenceLine *float64 `json:"reference_line,omitempty"`
}

// Series is one status's points in row order.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Point is one (date, pct_condensate) observation.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Table is the filtered dataset in display form.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Build maps a pipeline result onto display artifacts. It never computes
// anything for an empty result.
func Build(res pipeline.Result, opts Options, now time.Time) Dashboard {
	d := Dashboard{
		Title:       opts.Title,
		Criteria:    criteriaView(res.Criteria),
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
	if res.Empty {
		d.State = StateNoData
		d.Message = NoDataMessage
		return d
	}

	agg := res.Aggregates
	recs := res.Dataset.Records
	g := BuildGauge(agg)
	tr := BuildTrend(recs, agg, opts.TargetLine)
	tb := BuildTable(res.Dataset)

	d.State = StateOK
	d.RowCount = len(recs)
	d.BelowCount = pipeline.CountBelow(recs)
	d.Aggregates = &agg
	d.Gauge = &g
	d.Trend = &tr
	d.Table = &tb
	return d
}

// BuildGauge returns the gauge for agg.
func BuildGauge(agg pipeline.Aggregates) Gauge {
	return Gauge{
		Title:     "Average % Condensate",
		Value:     agg.AvgPct * 100,
		Threshold: agg.AvgTarget * 100,
		Range:     [2]float64{0, 100},
	}
}

// BuildTrend groups recs by status in order of first appearance. Records
// without a condensate value add no point.
func BuildTrend(recs []dataset.Record, agg pipeline.Aggregates, targetLine bool) Trend {
	t := Trend{Series: make([]Series, 0, 2), YAxisFormat: YAxisFormat}
	pos := make(map[dataset.Status]int, 2)
	for _, r := range recs {
		i, ok := pos[r.Status]
		if !ok {
			i = len(t.Series)
			pos[r.Status] = i
			t.Series = append(t.Series, Series{
				Name:   string(r.Status),
				Color:  StatusColors[r.Status],
				Points: make([]Point, 0),
			})
		}
		if r.PctMissing {
			continue
		}
		t.Series[i].Points = append(t.Series[i].Points, Point{
			Date:  r.Date.Format(dataset.DateLayout),
			Value: r.PctCondensate,
		})
	}
	if targetLine {
		v := agg.AvgTarget
		t.ReferenceLine = &v
	}
	return t
}

// BuildTable renders ds in its current row order. Columns follow the source
// header with the derived status appended; a source column named "status"
// is replaced by the derived one.
func BuildTable(ds *dataset.Dataset) Table {
	cols, idx := columns(ds)
	t := Table{
		Columns: append(cols, dataset.ColStatus),
		Rows:    make([][]string, 0, ds.Len()),
	}
	view := ds
	if len(ds.Header) == 0 {
		view = &dataset.Dataset{Header: cols, HasBoiler: ds.HasBoiler}
	}
	for _, r := range ds.Records {
		row := make([]string, 0, len(t.Columns))
		for _, i := range idx {
			row = append(row, view.Cell(r, i))
		}
		row = append(row, string(r.Status))
		t.Rows = append(t.Rows, row)
	}
	return t
}

// columns returns the output column names and their header indexes.
func columns(ds *dataset.Dataset) ([]string, []int) {
	header := ds.Header
	if len(header) == 0 {
		header = []string{dataset.ColDate, dataset.ColPctCondensate, dataset.ColTargetPct}
		if ds.HasBoiler {
			header = append(header, dataset.ColBoiler)
		}
	}
	cols := make([]string, 0, len(header))
	idx := make([]int, 0, len(header))
	for i, h := range header {
		if h == dataset.ColStatus {
			continue
		}
		cols = append(cols, h)
		idx = append(idx, i)
	}
	return cols, idx
}

func criteriaView(c pipeline.Criteria) CriteriaView {
	v := CriteriaView{
		Boilers:  append([]string{}, c.Boilers...),
		Statuses: make([]string, 0, len(c.Statuses)),
	}
	if !c.Start.IsZero() {
		v.Start = c.Start.Format(dataset.DateLayout)
	}
	if !c.End.IsZero() {
		v.End = c.End.Format(dataset.DateLayout)
	}
	for _, s := range c.Statuses {
		v.Statuses = append(v.Statuses, string(s))
	}
	return v
}
