package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVEncoder writes RFC 4180 CSV with a header row
type CSVEncoder struct{}

// ContentType returns the MIME type
func (CSVEncoder) ContentType() string { return "text/csv; charset=utf-8" }

// Extension returns the file extension without a dot
func (CSVEncoder) Extension() string { return "csv" }

// Encode writes t to w
func (CSVEncoder) Encode(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(t.Headers))
	for i, row := range t.Rows {
		for j := range record {
			record[j] = ""
			if j < len(row) {
				record[j] = cellString(row[j])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
