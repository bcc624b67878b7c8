package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serialize writes headers and rows back to CSV text. Only used to check
// the parser round-trip on values without commas or quotes.
func serialize(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(headers, ","))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, ","))
	}
	return b.String()
}

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	headers := []string{"name", "email", "phone"}
	rows := [][]string{
		{"John Smith", "john@x.com", "555-1234"},
		{"Jane Doe", "jane@x.com", "555-9876"},
	}

	table, err := Parse(serialize(headers, rows))
	require.NoError(t, err)

	assert.Equal(t, headers, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "John Smith", table.Rows[0].Cells["name"])
	assert.Equal(t, "jane@x.com", table.Rows[1].Cells["email"])
	assert.Equal(t, "555-9876", table.Rows[1].Cells["phone"])
}

func TestParseQuotedFieldContainsComma(t *testing.T) {
	t.Parallel()

	table, err := Parse("name,org\nJane,\"Acme, Inc\"")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Acme, Inc", table.Rows[0].Cells["org"])
}

func TestParseEmptyInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"blank lines only", "\n\n  \n"},
		{"header only", "name,email"},
		{"header plus blank lines", "name,email\n\n\n"},
		{"header plus all-empty row", "name,email,phone,org\n,,,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.text)
			assert.ErrorIs(t, err, ErrEmptyInput)
		})
	}
}

func TestParseDropsBlankCellRows(t *testing.T) {
	t.Parallel()

	table, err := Parse("a,b,c,d\n,,,\n1,2,3,4")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "1", table.Rows[0].Cells["a"])
}

func TestParseRowNumbersAreSourceLineNumbers(t *testing.T) {
	t.Parallel()

	// Line 3 is blank: the row on line 4 must still report 4.
	table, err := Parse("name,email\nJohn,john@x.com\n\nJane,jane@x.com\nJoe,joe@x.com")
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, 2, table.Rows[0].Line)
	assert.Equal(t, 4, table.Rows[1].Line)
	assert.Equal(t, 5, table.Rows[2].Line)
}

func TestParseShortRowsPadded(t *testing.T) {
	t.Parallel()

	table, err := Parse("name,email,phone\nJane,jane@x.com")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Rows[0].Cells["phone"])
}

func TestParseExcessCellsTruncated(t *testing.T) {
	t.Parallel()

	table, err := Parse("name,email\nJane,jane@x.com,extra,more")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Len(t, table.Rows[0].Cells, 2)
	assert.Equal(t, "jane@x.com", table.Rows[0].Cells["email"])
}

func TestParseCRLFLineEndings(t *testing.T) {
	t.Parallel()

	table, err := Parse("name,email\r\nJane,jane@x.com\r\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Jane", table.Rows[0].Cells["name"])
}

func TestParseUnpairedQuoteIsLenient(t *testing.T) {
	t.Parallel()

	// Odd quote count: the rest of the line is consumed into the field.
	table, err := Parse("name,note\nJane,\"unterminated, note")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "unterminated, note", table.Rows[0].Cells["note"])
}

func TestParseTrimsFields(t *testing.T) {
	t.Parallel()

	table, err := Parse("  name , email \n  Jane  ,  jane@x.com  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "email"}, table.Headers)
	assert.Equal(t, "Jane", table.Rows[0].Cells["name"])
}

func TestParseDuplicateHeadersLaterWins(t *testing.T) {
	t.Parallel()

	table, err := Parse("name,name\nfirst,second")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "second", table.Rows[0].Cells["name"])
}
