package importer

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// LoadXLSX reads the first sheet of an XLSX workbook into a RawTable with
// the same rules as Parse: the first row is the header row, short rows are
// padded, excess cells are dropped, and rows whose every cell is empty
// after trim are removed while keeping their gap in the row numbering.
// Sheet row numbers map directly onto source line numbers (header = 1).
func LoadXLSX(path string) (*RawTable, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open xlsx %s", path)
	}
	return tableFromWorkbook(f)
}

// ParseXLSX reads an in-memory XLSX workbook, for payloads fetched from
// remote sources.
func ParseXLSX(data []byte) (*RawTable, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "importer: open xlsx payload")
	}
	return tableFromWorkbook(f)
}

func tableFromWorkbook(f *xlsx.File) (*RawTable, error) {
	if len(f.Sheets) == 0 {
		return nil, ErrEmptyInput
	}
	sheet := f.Sheets[0]

	table := &RawTable{}
	for i, sheetRow := range sheet.Rows {
		cells := make([]string, len(sheetRow.Cells))
		for j, c := range sheetRow.Cells {
			cells[j] = strings.TrimSpace(c.String())
		}

		if table.Headers == nil {
			if allEmpty(cells) {
				continue
			}
			table.Headers = cells
			continue
		}

		row := Row{Line: i + 1, Cells: zipRow(table.Headers, cells)}
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

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
