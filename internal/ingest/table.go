// Package ingest turns uploaded CSV files and saved HTML report tables into
// engine records. Share units are normalized here and nowhere else.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Format is the encoding of an uploaded dataset
type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// DetectFormat picks the format from the file extension, then the content
// type. CSV is the default.
func DetectFormat(filename, contentType string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".html", ".htm":
		return FormatHTML
	case ".csv", ".txt":
		return FormatCSV
	}
	if strings.Contains(strings.ToLower(contentType), "html") {
		return FormatHTML
	}
	return FormatCSV
}

// Table is a header row plus data rows, all cells trimmed
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable reads a table in the given format
func ReadTable(r io.Reader, format Format) (*Table, error) {
	switch format {
	case FormatHTML:
		return ReadHTML(r)
	case FormatCSV, "":
		return ReadCSV(r)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// ReadCSV reads a CSV file whose first non-empty row is the header. Rows may
// be ragged.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return newTable(records)
}

// ReadHTML reads the first table of an HTML document. The header comes from
// th cells when present, otherwise from the first row.
func ReadHTML(r io.Reader) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("HTML document contains no table")
	}

	var header []string
	var rows [][]string
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if ths := tr.Find("th"); ths.Length() > 0 && header == nil && tr.Find("td").Length() == 0 {
			header = cellTexts(ths)
			return
		}
		if tr.Find("td").Length() > 0 {
			rows = append(rows, cellTexts(tr.Find("th, td")))
		}
	})

	if header != nil {
		rows = append([][]string{header}, rows...)
	}
	return newTable(rows)
}

func cellTexts(s *goquery.Selection) []string {
	return s.Map(func(_ int, cell *goquery.Selection) string {
		return strings.Join(strings.Fields(cell.Text()), " ")
	})
}

func newTable(records [][]string) (*Table, error) {
	t := &Table{}
	for _, rec := range records {
		if isBlank(rec) {
			continue
		}
		cells := make([]string, len(rec))
		for i, c := range rec {
			cells[i] = strings.TrimSpace(c)
		}
		if t.Header == nil {
			if len(cells) > 0 {
				cells[0] = strings.TrimPrefix(cells[0], "\ufeff")
			}
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}

	if t.Header == nil {
		return nil, fmt.Errorf("table is empty")
	}
	return t, nil
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// columns maps normalized header names to their index
type columns map[string]int

func (t *Table) columns() columns {
	cols := make(columns, len(t.Header))
	for i, h := range t.Header {
		key := normalizeHeader(h)
		if _, dup := cols[key]; !dup {
			cols[key] = i
		}
	}
	return cols
}

// find returns the index of the first alias present
func (c columns) find(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if i, ok := c[a]; ok {
			return i, true
		}
	}
	return -1, false
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
