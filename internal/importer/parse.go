// Package importer implements the bulk lead import pipeline: parsing
// delimited text, inferring a column-to-field mapping, projecting rows into
// candidate records, and executing creation against a record store with
// complete success/failure accounting.
package importer

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrEmptyInput is returned by Parse when the input has no header line or
// no data lines at all.
var ErrEmptyInput = eris.New("importer: input has no data rows")

// Row is one parsed data row: cell values keyed by header name, plus the
// 1-based line number the row occupied in the source file. Line numbers
// count every source line including blank ones, so error reports point at
// the file the operator is looking at.
type Row struct {
	Line  int               `json:"line"`
	Cells map[string]string `json:"cells"`
}

// RawTable is the parsed form of a delimited input file. Headers keep
// their original order; duplicate header names are allowed (the later
// column wins when a row map is built).
type RawTable struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Parse tokenizes comma-delimited UTF-8 text with optional double-quoted
// fields. The first non-blank line becomes the header row; every later
// non-blank line is zipped against the headers positionally. Short rows are
// padded with empty strings, cells beyond the header count are silently
// dropped, and rows whose every cell is empty after trimming are removed
// from the output. Returns ErrEmptyInput unless at least one header line
// and one data line exist.
func Parse(text string) (*RawTable, error) {
	lines := strings.Split(text, "\n")

	table := &RawTable{}
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if table.Headers == nil {
			table.Headers = tokenizeLine(line)
			continue
		}

		row := Row{Line: i + 1, Cells: zipRow(table.Headers, tokenizeLine(line))}
		if emptyRow(row.Cells) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	if table.Headers == nil || len(table.Rows) == 0 {
		return nil, ErrEmptyInput
	}
	return table, nil
}

// tokenizeLine splits one line on commas outside double quotes. A quote
// character toggles quoted state and is not part of the field; an unpaired
// quote leaves the rest of the line in the final field rather than erroring.
// Each field is trimmed of surrounding whitespace.
func tokenizeLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields
}

// zipRow pairs headers with cell values positionally. Missing trailing
// cells become empty strings; excess cells are ignored.
func zipRow(headers []string, cells []string) map[string]string {
	row := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(cells) {
			row[h] = cells[i]
		} else {
			row[h] = ""
		}
	}
	return row
}

func emptyRow(cells map[string]string) bool {
	for _, v := range cells {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
