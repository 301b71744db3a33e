package codec

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/robjsim/excel-csv-converter/internal/types"
)

// Excel maxima enforced on write.
const (
	maxSheetNameLen = 31
	maxCellLen      = 32767
)

// Excel reads and writes xlsx workbooks through excelize. Formula
// cells read back as their last computed value.
type Excel struct{}

func NewExcel() *Excel {
	return &Excel{}
}

func (e *Excel) Read(path string) ([]types.Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, err
		}
		// excelize failed past the open: corrupt or non-zip container.
		return nil, &MalformedError{Path: path, Err: err}
	}
	defer f.Close()

	var sheets []types.Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, &MalformedError{Path: path, Err: err}
		}
		sheets = append(sheets, types.Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

func (e *Excel) Write(path string, sheets []types.Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		name := sheetName(sheet.Name, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return err
			}
		}

		for r, row := range sheet.Rows {
			if len(row) == 0 {
				continue
			}
			cells := make([]interface{}, len(row))
			for c, val := range row {
				cells[c] = cellValue(val)
			}
			anchor, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, anchor, &cells); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}

// cellValue types a CSV field for the workbook: canonical integers and
// decimals become numbers, TRUE/FALSE become booleans, everything else
// stays text. Non-canonical numerics ("007", "1e99x") stay text so a
// round trip reproduces the field byte for byte.
func cellValue(s string) interface{} {
	switch s {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		if strconv.FormatInt(i, 10) == s {
			return i
		}
		return s
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if strconv.FormatFloat(v, 'f', -1, 64) == s {
			return v
		}
		return s
	}
	if len(s) > maxCellLen {
		return truncateCell(s)
	}
	return s
}

// truncateCell caps a value at Excel's per-cell character limit,
// cutting on a rune boundary and ending with "..." so the truncation
// is visible in the workbook instead of silent.
func truncateCell(s string) string {
	if utf8.RuneCountInString(s) <= maxCellLen {
		return s
	}
	runes := 0
	for i := range s {
		if runes == maxCellLen-3 {
			return s[:i] + "..."
		}
		runes++
	}
	return s
}

// sheetName sanitizes a name to something excelize accepts: the
// characters : \ / ? * [ ] are forbidden and length is capped at 31.
func sheetName(name string, index int) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		clean = "Sheet" + strconv.Itoa(index+1)
	}
	if len(clean) > maxSheetNameLen {
		clean = clean[:maxSheetNameLen]
	}
	return clean
}
