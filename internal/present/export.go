package present

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVContentType is the MIME type of an export download.
const CSVContentType = "text/csv; charset=utf-8"

// WriteCSV serializes t as UTF-8 CSV: the column row first, then every row
// in order. No index column is written.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("present: write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("present: write csv rows: %w", err)
	}
	return nil
}

// ContentDisposition returns the attachment header value for filename.
func ContentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
