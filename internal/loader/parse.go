package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/config"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/dataset"
)

var (
	// ErrMissingColumn means a required column is absent from the header.
	ErrMissingColumn = errors.New("missing required column")

	// ErrBadDate means a date cell could not be parsed under the strict policy.
	ErrBadDate = errors.New("unparseable date")

	// ErrBadNumber means a percentage cell could not be parsed under the strict policy.
	ErrBadNumber = errors.New("unparseable number")
)

// tolerantLayouts are tried in order by the tolerant policy. Day-first forms
// come before the month-first ones so ambiguous dates read day-first; a date
// such as 12/31/2024 that has no day-first reading falls through to them.
var tolerantLayouts = []string{
	"2006-01-02",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"1/2/2006",
	"1-2-2006",
	"2006/01/02",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
}

// ParseOptions selects how date and number cells are parsed.
type ParseOptions struct {
	// Policy is config.DatePolicyStrict or config.DatePolicyTolerant.
	Policy string
	// Layout is the single layout accepted by the strict policy.
	Layout string
}

// OptionsFor derives ParseOptions from a source configuration.
func OptionsFor(src config.Source) ParseOptions {
	return ParseOptions{Policy: src.DatePolicy, Layout: src.DateLayout}
}

func (o ParseOptions) tolerant() bool { return o.Policy == config.DatePolicyTolerant }

// Parse decodes CSV content into a Dataset.
//
// Header names are trimmed and rows with only blank cells are skipped. A
// blank percentage cell is kept as a missing value. Under the strict policy
// the first bad date or number fails the whole parse; under the tolerant
// policy the offending row is dropped and counted in Dataset.Dropped.
func Parse(r io.Reader, opts ParseOptions) (*dataset.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s (empty input)", ErrMissingColumn, dataset.ColDate)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	for _, col := range []string{dataset.ColDate, dataset.ColPctCondensate, dataset.ColTargetPct} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	boilerIdx, hasBoiler := idx[dataset.ColBoiler]

	ds := &dataset.Dataset{
		Header:    header,
		HasBoiler: hasBoiler,
		Records:   make([]dataset.Record, 0),
	}

	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++

		// Pad short rows so every record aligns with the header.
		if len(row) < len(header) {
			row = append(row, make([]string, len(header)-len(row))...)
		}
		row = row[:len(header)]
		if blank(row) {
			continue
		}

		rec, err := parseRecord(row, idx, opts)
		if err != nil {
			if opts.tolerant() {
				ds.Dropped++
				continue
			}
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if hasBoiler {
			rec.Boiler = strings.TrimSpace(row[boilerIdx])
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

func parseRecord(row []string, idx map[string]int, opts ParseOptions) (dataset.Record, error) {
	date, err := parseDate(row[idx[dataset.ColDate]], opts)
	if err != nil {
		return dataset.Record{}, err
	}
	rec := dataset.Record{Date: date, Values: row}
	if rec.PctCondensate, rec.PctMissing, err = parseCell(row[idx[dataset.ColPctCondensate]]); err != nil {
		return dataset.Record{}, fmt.Errorf("%s: %w", dataset.ColPctCondensate, err)
	}
	if rec.TargetPct, rec.TargetMissing, err = parseCell(row[idx[dataset.ColTargetPct]]); err != nil {
		return dataset.Record{}, fmt.Errorf("%s: %w", dataset.ColTargetPct, err)
	}
	return rec, nil
}

// parseCell parses a percentage cell. A blank cell is missing, not an error.
func parseCell(s string) (v float64, missing bool, err error) {
	if strings.TrimSpace(s) == "" {
		return 0, true, nil
	}
	v, err = parseFraction(s)
	return v, false, err
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseDate parses s under the configured policy and truncates it to a day.
func parseDate(s string, opts ParseOptions) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !opts.tolerant() {
		t, err := time.Parse(opts.Layout, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w %q (want layout %q)", ErrBadDate, s, opts.Layout)
		}
		return dataset.Day(t), nil
	}
	for _, layout := range tolerantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dataset.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w %q", ErrBadDate, s)
}

// parseFraction accepts "0.8" or "80%" and returns 0.8.
func parseFraction(s string) (float64, error) {
	s = strings.TrimSpace(s)
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		scale = 100
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w %q", ErrBadNumber, s)
	}
	return v / scale, nil
}
