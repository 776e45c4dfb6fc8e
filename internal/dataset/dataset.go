// Package dataset defines the condensate-recovery records loaded from the
// measurement sheet and the status label derived for each of them.
package dataset

import (
	"strconv"
	"time"
)

// Source column names, after header trimming.
const (
	ColDate          = "date"
	ColPctCondensate = "pct_condensate"
	ColTargetPct     = "target_pct"
	ColBoiler        = "boiler"

	// ColStatus is appended to tabular output; it is never read from the source.
	ColStatus = "status"
)

// DateLayout is the day-resolution layout used whenever a date is written out.
const DateLayout = "2006-01-02"

// Status is the derived on/below-target label of a record.
type Status string

const (
	StatusBelowTarget Status = "Below Target"
	StatusOnTarget    Status = "On Target"
)

// Statuses lists every status value in display order.
var Statuses = []Status{StatusBelowTarget, StatusOnTarget}

// ParseStatus returns the Status named by s.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusBelowTarget:
		return StatusBelowTarget, true
	case StatusOnTarget:
		return StatusOnTarget, true
	}
	return "", false
}

// Record is one observation from the sheet.
type Record struct {
	Date          time.Time // UTC midnight
	PctCondensate float64   // fraction, 0.0–1.0
	TargetPct     float64   // fraction, 0.0–1.0
	Boiler        string    // empty when the dataset has no boiler column

	// PctMissing and TargetMissing mark blank source cells. A missing value
	// is left out of the means and never compares as below target.
	PctMissing    bool
	TargetMissing bool

	// Status is empty until the record has passed through derivation.
	Status Status

	// Values holds the raw source cells aligned with Dataset.Header.
	Values []string
}

// Dataset is an ordered sequence of records in source row order. A loaded
// Dataset is shared through the cache and must be treated as read-only.
type Dataset struct {
	// Header is every trimmed source column name in source order.
	Header []string

	// HasBoiler reports whether the source carries a boiler column.
	HasBoiler bool

	// Dropped counts rows excluded by the tolerant date policy.
	Dropped int

	Records []Record
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// WithRecords returns a Dataset sharing d's header metadata but holding recs.
func (d *Dataset) WithRecords(recs []Record) *Dataset {
	return &Dataset{
		Header:    d.Header,
		HasBoiler: d.HasBoiler,
		Dropped:   d.Dropped,
		Records:   recs,
	}
}

// DateRange returns the earliest and latest record dates. ok is false for an
// empty dataset.
func (d *Dataset) DateRange() (first, last time.Time, ok bool) {
	if d.Len() == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = d.Records[0].Date, d.Records[0].Date
	for _, r := range d.Records[1:] {
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return first, last, true
}

// Boilers returns the distinct boiler labels in first-seen order.
func (d *Dataset) Boilers() []string {
	if d.Len() == 0 || !d.HasBoiler {
		return []string{}
	}
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range d.Records {
		if _, ok := seen[r.Boiler]; ok {
			continue
		}
		seen[r.Boiler] = struct{}{}
		out = append(out, r.Boiler)
	}
	return out
}

// Cell returns the display value of column i for record r. Core columns are
// formatted from their typed values, everything else is the raw source cell.
func (d *Dataset) Cell(r Record, i int) string {
	switch d.Header[i] {
	case ColDate:
		return r.Date.Format(DateLayout)
	case ColPctCondensate:
		if r.PctMissing {
			return ""
		}
		return FormatFloat(r.PctCondensate)
	case ColTargetPct:
		if r.TargetMissing {
			return ""
		}
		return FormatFloat(r.TargetPct)
	case ColBoiler:
		return r.Boiler
	}
	if i < len(r.Values) {
		return r.Values[i]
	}
	return ""
}

// FormatFloat renders v in its shortest round-tripping decimal form.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Day truncates t to UTC midnight of its calendar day.
func Day(t time.Time) time.Time {
	y, m, dd := t.Date()
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}
