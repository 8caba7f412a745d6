package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Row is a single data row keyed by the header cell text of its column.
type Row map[string]string

// Get returns the first non-empty value among the given header names.
// Matching is case-insensitive so "Kode Buku" and "kode buku" resolve
// to the same column.
func (r Row) Get(headers ...string) string {
	for _, h := range headers {
		for key, val := range r {
			if strings.EqualFold(strings.TrimSpace(key), h) && strings.TrimSpace(val) != "" {
				return strings.TrimSpace(val)
			}
		}
	}
	return ""
}

// Headers lists the column names present in the row, for error messages.
func (r Row) Headers() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	return keys
}

// ReadRows parses the first sheet of an XLSX workbook into rows keyed by
// the first (header) row. Rows whose cells are all empty are dropped.
func ReadRows(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(raw) < 2 {
		return nil, nil
	}

	headers := raw[0]
	rows := make([]Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		row := make(Row, len(headers))
		empty := true
		for i, h := range headers {
			h = strings.TrimSpace(h)
			if h == "" {
				continue
			}
			val := ""
			if i < len(cells) {
				val = strings.TrimSpace(cells[i])
			}
			if val != "" {
				empty = false
			}
			row[h] = val
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows, nil
}
