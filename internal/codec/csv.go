package codec

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/robjsim/excel-csv-converter/internal/types"
)

// CSVOptions controls the dialect written out. Reading always accepts
// an optional leading BOM and either CRLF or LF line endings.
type CSVOptions struct {
	// WriteBOM prepends a UTF-8 byte-order mark so Excel opens the
	// file as UTF-8. On by default to match the original product.
	WriteBOM bool
	// CRLF writes \r\n line endings instead of \n.
	CRLF bool
}

// CSV reads and writes comma-delimited, double-quote quoted text
// files. A CSV file is modeled as a single sheet named after the
// file's base name.
type CSV struct {
	Options CSVOptions
}

func NewCSV(opts CSVOptions) *CSV {
	return &CSV{Options: opts}
}

func (c *CSV) Read(path string) ([]types.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Strips a leading BOM if present, passes plain UTF-8 through.
	decoded := transform.NewReader(f, unicode.UTF8BOM.NewDecoder())

	r := csv.NewReader(decoded)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, &MalformedError{Path: path, Err: err}
		}
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []types.Sheet{{Name: name, Rows: rows}}, nil
}

// Write emits all sheets into a single file, in order. The converter
// fans multi-sheet sources out into one Write per sheet, so in
// practice the slice has length one.
func (c *CSV) Write(path string, sheets []types.Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	out := transform.NewWriter(f, c.encoder())
	w := csv.NewWriter(out)
	w.UseCRLF = c.Options.CRLF

	for _, sheet := range sheets {
		for _, row := range sheet.Rows {
			if err := w.Write(row); err != nil {
				f.Close()
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := out.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *CSV) encoder() transform.Transformer {
	if c.Options.WriteBOM {
		return unicode.UTF8BOM.NewEncoder()
	}
	return unicode.UTF8.NewEncoder()
}
