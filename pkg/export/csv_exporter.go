package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"

	"github.com/noah-isme/sma-adp-client/pkg/config"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter writes a Dataset as a spreadsheet-friendly CSV file: one
// labelled heading row, then the records in dataset order.
type CSVExporter struct {
	comma rune
	bom   bool
}

// NewCSVExporter builds a CSV exporter from the export settings. An empty or
// unusable delimiter falls back to a comma.
func NewCSVExporter(cfg config.ExportConfig) *CSVExporter {
	comma := ','
	if r, size := utf8.DecodeRuneInString(cfg.CSVDelimiter); size == len(cfg.CSVDelimiter) && validDelimiter(r) {
		comma = r
	}
	return &CSVExporter{comma: comma, bom: cfg.CSVBOM}
}

func validDelimiter(r rune) bool {
	return r != utf8.RuneError && r != '"' && r != '\r' && r != '\n'
}

// Render encodes data. A spreadsheet opening the file with a byte order mark
// reads names with diacritics correctly.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}

	buf := &bytes.Buffer{}
	if e.bom {
		buf.Write(utf8BOM)
	}
	w := csv.NewWriter(buf)
	w.Comma = e.comma
	if err := w.WriteAll(append([][]string{data.Labels()}, data.Records()...)); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
