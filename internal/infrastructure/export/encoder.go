// Package export encodes tabular reports as CSV or XLSX files.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Table is a single sheet of rows under a header line
type Table struct {
	Sheet   string
	Title   string // optional banner row above the header, xlsx only
	Headers []string
	Rows    [][]any
}

// Encoder writes a Table in one file format
type Encoder interface {
	ContentType() string
	Extension() string
	Encode(w io.Writer, t Table) error
}

// Supported formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ForFormat returns the encoder for format. An empty format means CSV.
func ForFormat(format string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatCSV:
		return CSVEncoder{}, nil
	case FormatXLSX:
		return XLSXEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

const cellTimeLayout = "02 Jan 2006"

// cellString renders a value for text formats
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.StringFixed(2)
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format(cellTimeLayout)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
