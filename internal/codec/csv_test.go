package codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robjsim/excel-csv-converter/internal/types"
)

func TestCSVWriteReadRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{"Plain", [][]string{{"a", "b"}, {"c", "d"}}},
		{"Embedded comma", [][]string{{"hello, world", "5"}}},
		{"Embedded quote", [][]string{{`she said "hi"`, "x"}}},
		{"Embedded newline", [][]string{{"line1\nline2", "y"}}},
		{"Ragged rows", [][]string{{"a", "b", "c"}, {"d"}}},
		{"Unicode", [][]string{{"naïve", "日本語"}}},
	}

	c := NewCSV(CSVOptions{WriteBOM: true})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.csv")
			err := c.Write(path, []types.Sheet{{Name: "out", Rows: tt.rows}})
			require.NoError(t, err)

			sheets, err := c.Read(path)
			require.NoError(t, err)
			require.Len(t, sheets, 1)
			assert.Equal(t, "out", sheets[0].Name)
			assert.Equal(t, tt.rows, sheets[0].Rows)
		})
	}
}

func TestCSVWriteBOM(t *testing.T) {
	dir := t.TempDir()

	withBOM := filepath.Join(dir, "bom.csv")
	err := NewCSV(CSVOptions{WriteBOM: true}).Write(withBOM, []types.Sheet{{Rows: [][]string{{"a"}}}})
	require.NoError(t, err)
	data, err := os.ReadFile(withBOM)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])

	withoutBOM := filepath.Join(dir, "plain.csv")
	err = NewCSV(CSVOptions{}).Write(withoutBOM, []types.Sheet{{Rows: [][]string{{"a"}}}})
	require.NoError(t, err)
	data, err = os.ReadFile(withoutBOM)
	require.NoError(t, err)
	assert.Equal(t, []byte("a\n"), data)
}

func TestCSVReadToleratesBOMAndCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\r\nc,d\r\n")...)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	sheets, err := NewCSV(CSVOptions{}).Read(path)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, sheets[0].Rows)
}

func TestCSVReadMalformedQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("\"a\"b,c\n"), 0o644))

	_, err := NewCSV(CSVOptions{}).Read(path)
	require.Error(t, err)
	var malformed *MalformedError
	assert.ErrorAs(t, err, &malformed)
}

func TestCSVWriteCRLF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crlf.csv")
	err := NewCSV(CSVOptions{CRLF: true}).Write(path, []types.Sheet{{Rows: [][]string{{"a", "b"}}}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\r\n", string(data))
}
