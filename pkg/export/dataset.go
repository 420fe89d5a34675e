package export

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Dataset defines tabular export content. Headers are the json field names
// of the exported records; Rows are keyed by them.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

var titler = cases.Title(language.English)

// Label turns a field name such as "mobile_no" into a column heading.
func Label(header string) string {
	words := strings.Fields(strings.ReplaceAll(header, "_", " "))
	for i, w := range words {
		if strings.EqualFold(w, "id") {
			words[i] = "ID"
			continue
		}
		words[i] = titler.String(w)
	}
	return strings.Join(words, " ")
}

// Labels returns the column headings of d.
func (d Dataset) Labels() []string {
	out := make([]string, len(d.Headers))
	for i, h := range d.Headers {
		out[i] = Label(h)
	}
	return out
}

// Records projects every row onto the header order. Missing cells are empty.
func (d Dataset) Records() [][]string {
	out := make([][]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		record := make([]string, len(d.Headers))
		for i, h := range d.Headers {
			record[i] = row[h]
		}
		out = append(out, record)
	}
	return out
}
