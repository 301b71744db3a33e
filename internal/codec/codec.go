// Package codec reads and writes the tabular file formats the
// converter understands: CSV, xlsx workbooks, and legacy xls
// workbooks (read only).
package codec

import (
	"fmt"

	"github.com/robjsim/excel-csv-converter/internal/types"
)

// Codec is the narrow surface the converter calls. Read returns every
// sheet in the file in document order; Write creates or overwrites
// path with the given sheets.
type Codec interface {
	Read(path string) ([]types.Sheet, error)
	Write(path string, sheets []types.Sheet) error
}

// MalformedError marks a file whose body could not be parsed, as
// opposed to one that could not be reached at all.
type MalformedError struct {
	Path string
	Err  error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed content in %s: %v", e.Path, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}
