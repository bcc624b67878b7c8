package importer

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Field is a semantic target field of the lead import mapping.
type Field string

const (
	FieldName         Field = "name"
	FieldEmail        Field = "email"
	FieldPhone        Field = "phone"
	FieldSource       Field = "source"
	FieldStatus       Field = "status"
	FieldOrganization Field = "organization"
)

// Fields lists every semantic field in inference priority order. Name and
// email are the two required fields.
var Fields = []Field{FieldName, FieldEmail, FieldPhone, FieldSource, FieldStatus, FieldOrganization}

// ErrMappingIncomplete gates the transition into the import step: both the
// name and email fields must be assigned a source column.
var ErrMappingIncomplete = eris.New("importer: mapping must assign columns for both name and email")

// FieldMapping assigns semantic target fields to source column names. A
// missing or empty entry means the field is unmapped. Manual edits are
// deliberately unconstrained: the no-reuse rule between fields is an
// inference-time tie-break only, so an operator may point two fields at
// the same source column.
type FieldMapping map[Field]string

// NewFieldMapping returns an empty mapping ready for Set calls.
func NewFieldMapping() FieldMapping {
	return make(FieldMapping, len(Fields))
}

// Set assigns a source column to a field. An empty column unmaps the field.
func (m FieldMapping) Set(field Field, column string) {
	if column == "" {
		delete(m, field)
		return
	}
	m[field] = column
}

// Column returns the source column assigned to a field, or "" if unmapped.
func (m FieldMapping) Column(field Field) string {
	return m[field]
}

// Mapped reports whether a field has a source column assigned.
func (m FieldMapping) Mapped(field Field) bool {
	return m[field] != ""
}

// IsValid reports whether import may proceed: true iff both name and email
// have a source column, regardless of the other four fields.
func (m FieldMapping) IsValid() bool {
	return m.Mapped(FieldName) && m.Mapped(FieldEmail)
}

// String renders the mapping in field priority order for logs and previews.
func (m FieldMapping) String() string {
	parts := make([]string, 0, len(Fields))
	for _, f := range Fields {
		col := m[f]
		if col == "" {
			col = "(unmapped)"
		}
		parts = append(parts, fmt.Sprintf("%s=%s", f, col))
	}
	return strings.Join(parts, " ")
}

// ParseField resolves a field name from operator input.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Fields {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Errorf("importer: unknown field %q (valid: name, email, phone, source, status, organization)", s)
}

// ApplyAssignment applies one "field=Column" override to the mapping.
// An empty column value ("field=") unmaps the field.
func (m FieldMapping) ApplyAssignment(assignment string) error {
	name, column, ok := strings.Cut(assignment, "=")
	if !ok {
		return eris.Errorf("importer: invalid assignment %q, want field=Column", assignment)
	}
	field, err := ParseField(name)
	if err != nil {
		return err
	}
	m.Set(field, strings.TrimSpace(column))
	return nil
}

// MappingPreset is a saved mapping plus default values, so a confirmed
// mapping can be replayed over repeated exports of the same source system.
type MappingPreset struct {
	Mapping  FieldMapping `yaml:"mapping"`
	Defaults Defaults     `yaml:"defaults"`
}

// LoadMappingPreset reads a MappingPreset from a YAML file.
func LoadMappingPreset(path string) (*MappingPreset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: read mapping preset %s", path)
	}

	var preset MappingPreset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return nil, eris.Wrapf(err, "importer: unmarshal mapping preset %s", path)
	}

	for field := range preset.Mapping {
		if _, err := ParseField(string(field)); err != nil {
			return nil, err
		}
	}
	return &preset, nil
}
