package pipeline

import (
	"errors"
	"time"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/dataset"
)

// ErrEmpty is returned by Derive when asked to aggregate zero records.
var ErrEmpty = errors.New("pipeline: no records to aggregate")

// Criteria narrows a dataset. A zero Start or End means the dataset's own
// earliest or latest date. Empty Boilers or Statuses impose no restriction.
type Criteria struct {
	Start    time.Time
	End      time.Time
	Boilers  []string
	Statuses []dataset.Status
}

// Aggregates are the means over the filtered records.
type Aggregates struct {
	AvgPct    float64 `json:"avg_pct"`
	AvgTarget float64 `json:"avg_target"`
}

// Result is the outcome of FilterAndDerive. When Empty is true no aggregates
// were computed and Aggregates is the zero value.
type Result struct {
	// Dataset holds the matching records, each with Status set.
	Dataset *dataset.Dataset

	// Criteria is the input criteria with default bounds resolved.
	Criteria Criteria

	Aggregates Aggregates
	Empty      bool
}

// StatusOf classifies one record. Equal values are on target, and so is a
// record with either value missing.
func StatusOf(r dataset.Record) dataset.Status {
	if r.PctMissing || r.TargetMissing {
		return dataset.StatusOnTarget
	}
	if r.PctCondensate < r.TargetPct {
		return dataset.StatusBelowTarget
	}
	return dataset.StatusOnTarget
}

// Resolve fills zero bounds of c from ds's date range.
func Resolve(ds *dataset.Dataset, c Criteria) Criteria {
	first, last, ok := ds.DateRange()
	if !ok {
		return c
	}
	if c.Start.IsZero() {
		c.Start = first
	}
	if c.End.IsZero() {
		c.End = last
	}
	return c
}

// FilterAndDerive is the single entry point of the filter/derive stages.
// It applies the date and boiler predicates, derives every surviving
// record's status, applies the status predicate on that fresh status, and
// finally aggregates. ds is never modified.
func FilterAndDerive(ds *dataset.Dataset, c Criteria) Result {
	c = Resolve(ds, c)

	boilers := toSet(c.Boilers)
	if !ds.HasBoiler {
		boilers = nil
	}
	statuses := make(map[dataset.Status]struct{}, len(c.Statuses))
	for _, s := range c.Statuses {
		statuses[s] = struct{}{}
	}

	out := make([]dataset.Record, 0)
	for _, r := range ds.Records {
		if r.Date.Before(c.Start) || r.Date.After(c.End) {
			continue
		}
		if len(boilers) > 0 {
			if _, ok := boilers[r.Boiler]; !ok {
				continue
			}
		}
		r.Status = StatusOf(r)
		if len(statuses) > 0 {
			if _, ok := statuses[r.Status]; !ok {
				continue
			}
		}
		out = append(out, r)
	}

	res := Result{Dataset: ds.WithRecords(out), Criteria: c}
	agg, err := Derive(out)
	if err != nil {
		res.Empty = true
		return res
	}
	res.Aggregates = agg
	return res
}

// Derive computes the aggregates over recs. It returns ErrEmpty for zero
// records. Each mean skips missing values; a column with no values at all
// averages to zero.
func Derive(recs []dataset.Record) (Aggregates, error) {
	if len(recs) == 0 {
		return Aggregates{}, ErrEmpty
	}
	var pct, target float64
	var np, nt int
	for _, r := range recs {
		if !r.PctMissing {
			pct += r.PctCondensate
			np++
		}
		if !r.TargetMissing {
			target += r.TargetPct
			nt++
		}
	}
	return Aggregates{AvgPct: mean(pct, np), AvgTarget: mean(target, nt)}, nil
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// CountBelow returns how many records are below target.
func CountBelow(recs []dataset.Record) int {
	n := 0
	for _, r := range recs {
		if r.Status == dataset.StatusBelowTarget {
			n++
		}
	}
	return n
}

func toSet(vals []string) map[string]struct{} {
	if len(vals) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}
