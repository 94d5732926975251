package ingest

import (
	"bytes"
	"regexp"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roach88/listwatch/internal/record"
)

// headerRowMinCells is the threshold for header detection: the first row
// with at least this many non-empty cells is the header. The published
// sheet carries title/preamble rows above the real header.
const headerRowMinCells = 3

var whitespaceRun = regexp.MustCompile(`\s+`)

// ordinal and name column markers used for identifier synthesis. The
// publisher's column names drift between revisions; matching is by
// substring on the normalized header.
var (
	ordinalMarkers = []string{"lp", "nr", "numer"}
	nameMarkers    = []string{"nazwa", "imię", "imie", "nazwisko", "name"}
)

// ParseWorkbook flattens the first sheet of a spreadsheet into records.
//
// Row handling follows the published document's actual shape:
//   - header = first row with >= headerRowMinCells non-empty cells
//   - header names lowercased with whitespace collapsed
//   - fully empty rows skipped
//   - cell values trimmed; empty cells simply left out of the sparse map
//
// Each record's identifier is synthesized from its identifying columns:
// ordinal columns (lp/nr/numer) first, then name columns, joined with "|".
// Rows with no identifying content at all fall back to their first three
// non-empty values; rows that still produce an empty identifier are
// dropped, matching the upstream feed's own garbage rows.
func ParseWorkbook(data []byte) ([]record.Record, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Reason: "not a spreadsheet", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Reason: "reading rows", Err: err}
	}
	if len(rows) == 0 {
		return []record.Record{}, nil
	}

	headerIdx := findHeaderRow(rows)
	headers := normalizeHeaders(rows[headerIdx])

	records := []record.Record{}
	for _, row := range rows[headerIdx+1:] {
		if rowEmpty(row) {
			continue
		}

		fields := make(map[string]string)
		for j, cell := range row {
			if j >= len(headers) || headers[j] == "" {
				continue
			}
			value := strings.TrimSpace(cell)
			if value == "" {
				continue
			}
			fields[headers[j]] = value
		}
		if len(fields) == 0 {
			continue
		}

		id := synthesizeID(fields, headers, row)
		if id == "" {
			continue
		}
		records = append(records, record.Record{ID: id, Fields: fields})
	}

	return records, nil
}

// findHeaderRow returns the index of the first row that looks like a
// header. Falls back to row 0 when nothing qualifies.
func findHeaderRow(rows [][]string) int {
	for i, row := range rows {
		nonEmpty := 0
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				nonEmpty++
			}
		}
		if nonEmpty >= headerRowMinCells {
			return i
		}
	}
	return 0
}

// normalizeHeaders lowercases header cells and collapses internal runs of
// whitespace. Empty headers stay empty and their columns are ignored.
func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		h = strings.ToLower(strings.TrimSpace(h))
		headers[i] = whitespaceRun.ReplaceAllString(h, " ")
	}
	return headers
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// synthesizeID builds the record identifier from identifying columns.
func synthesizeID(fields map[string]string, headers []string, row []string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var ordinals, identifying []string
	for _, name := range names {
		switch {
		case matchesAny(name, ordinalMarkers):
			ordinals = append(ordinals, fields[name])
		case matchesAny(name, nameMarkers):
			identifying = append(identifying, fields[name])
		}
	}
	parts := append(ordinals, identifying...)

	if len(parts) == 0 {
		// Fallback: first three non-empty values in column order.
		for j, cell := range row {
			if j >= len(headers) || headers[j] == "" {
				continue
			}
			value := strings.TrimSpace(cell)
			if value == "" {
				continue
			}
			parts = append(parts, value)
			if len(parts) == 3 {
				break
			}
		}
	}

	return strings.Trim(strings.Join(parts, "|"), "|")
}

func matchesAny(name string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}
