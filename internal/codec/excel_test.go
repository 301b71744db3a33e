package codec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robjsim/excel-csv-converter/internal/types"
)

func TestExcelWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	in := []types.Sheet{
		{Name: "First", Rows: [][]string{{"Name", "Hours"}, {"Alice", "8"}}},
		{Name: "Second", Rows: [][]string{{"hello, world", "5"}}},
	}

	e := NewExcel()
	require.NoError(t, e.Write(path, in))

	sheets, err := e.Read(path)
	require.NoError(t, err)
	require.Len(t, sheets, 2)
	assert.Equal(t, "First", sheets[0].Name)
	assert.Equal(t, "Second", sheets[1].Name)
	assert.Equal(t, [][]string{{"Name", "Hours"}, {"Alice", "8"}}, sheets[0].Rows)
	assert.Equal(t, [][]string{{"hello, world", "5"}}, sheets[1].Rows)
}

func TestExcelReadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip archive"), 0o644))

	_, err := NewExcel().Read(path)
	require.Error(t, err)
	var malformed *MalformedError
	assert.ErrorAs(t, err, &malformed)
}

func TestExcelReadMissing(t *testing.T) {
	_, err := NewExcel().Read(filepath.Join(t.TempDir(), "absent.xlsx"))
	require.Error(t, err)
	var malformed *MalformedError
	assert.False(t, errors.As(err, &malformed), "missing file should not classify as malformed")
}

func TestCellValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected interface{}
	}{
		{"Integer", "5", int64(5)},
		{"Decimal", "1.5", 1.5},
		{"Leading zeros stay text", "007", "007"},
		{"Plus sign stays text", "+5", "+5"},
		{"True token", "TRUE", true},
		{"False token", "FALSE", false},
		{"Lowercase true stays text", "true", "true"},
		{"Plain text", "hello", "hello"},
		{"Empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cellValue(tt.input))
		})
	}
}

func TestTruncateCell(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		truncated bool
	}{
		{"Short ASCII unchanged", strings.Repeat("a", 100), false},
		{"At limit unchanged", strings.Repeat("a", maxCellLen), false},
		{"Over limit ASCII", strings.Repeat("a", maxCellLen+100), true},
		{"Over limit multibyte", strings.Repeat("é", maxCellLen+1), true},
		// Many bytes but few runes: the limit is characters, not bytes.
		{"Long bytes few runes", strings.Repeat("é", 20000), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateCell(tt.input)
			if !tt.truncated {
				assert.Equal(t, tt.input, got)
				return
			}
			assert.Equal(t, maxCellLen, utf8.RuneCountInString(got))
			assert.True(t, utf8.ValidString(got), "must not split a rune")
			assert.True(t, strings.HasSuffix(got, "..."))
		})
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		index    int
		expected string
	}{
		{"Plain", "Data", 0, "Data"},
		{"Forbidden characters", "a/b:c", 0, "a_b_c"},
		{"Empty", "", 2, "Sheet3"},
		{"Too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 0, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sheetName(tt.input, tt.index))
		})
	}
}
