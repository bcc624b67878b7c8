package importer

import (
	"strings"

	"github.com/sells-group/leadimport-cli/internal/model"
)

// Defaults supplies fallback values for the source and status fields when
// they are unmapped or the mapped cell is empty.
type Defaults struct {
	Source string `yaml:"source" json:"source"`
	Status string `yaml:"status" json:"status"`
}

// ProjectedRow pairs a candidate record with the source line number it
// came from.
type ProjectedRow struct {
	Line      int             `json:"line"`
	Candidate model.Candidate `json:"candidate"`
}

// Project applies a confirmed mapping plus defaults to every parsed row,
// in order, producing normalized candidate records. Name, email, phone and
// organization are trimmed; source and status fall back to the defaults
// whenever the field is unmapped or the mapped cell is empty after trim.
// Projection is pure: it never mutates the table or the mapping, and is
// recomputed from scratch whenever either changes.
func Project(table *RawTable, mapping FieldMapping, defaults Defaults) []ProjectedRow {
	rows := make([]ProjectedRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, ProjectedRow{
			Line: row.Line,
			Candidate: model.Candidate{
				Name:         trimmedCell(row, mapping, FieldName),
				Email:        trimmedCell(row, mapping, FieldEmail),
				Phone:        trimmedCell(row, mapping, FieldPhone),
				Organization: trimmedCell(row, mapping, FieldOrganization),
				Source:       cellOrDefault(row, mapping, FieldSource, defaults.Source),
				Status:       cellOrDefault(row, mapping, FieldStatus, defaults.Status),
			},
		})
	}
	return rows
}

// cell reads the mapped cell for a field, or "" when the field is unmapped
// or the mapped header is absent from the row.
func cell(row Row, mapping FieldMapping, field Field) string {
	col := mapping.Column(field)
	if col == "" {
		return ""
	}
	return row.Cells[col]
}

func trimmedCell(row Row, mapping FieldMapping, field Field) string {
	return strings.TrimSpace(cell(row, mapping, field))
}

// cellOrDefault returns the mapped cell value, or fallback when the field
// is unmapped or the cell is empty after trim.
func cellOrDefault(row Row, mapping FieldMapping, field Field, fallback string) string {
	v := cell(row, mapping, field)
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
