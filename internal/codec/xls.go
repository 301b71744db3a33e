package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/yamitzky/xlrd-go/xlrd"

	"github.com/robjsim/excel-csv-converter/internal/types"
)

// XLS reads legacy BIFF workbooks through xlrd. Writing the legacy
// format is not supported; conversions always produce xlsx.
type XLS struct{}

func NewXLS() *XLS {
	return &XLS{}
}

func (x *XLS) Read(path string) ([]types.Sheet, error) {
	book, err := xlrd.OpenWorkbook(path, &xlrd.OpenWorkbookOptions{})
	if err != nil {
		return nil, &MalformedError{Path: path, Err: err}
	}

	sheets := make([]types.Sheet, 0, book.NSheets)
	for i := 0; i < book.NSheets; i++ {
		sheet, err := book.SheetByIndex(i)
		if err != nil {
			return nil, &MalformedError{Path: path, Err: err}
		}
		rows := make([][]string, sheet.NRows)
		for r := 0; r < sheet.NRows; r++ {
			row := make([]string, sheet.NCols)
			for c := 0; c < sheet.NCols; c++ {
				row[c] = formatXLSCell(book, sheet, r, c)
			}
			rows[r] = row
		}
		sheets = append(sheets, types.Sheet{Name: sheet.Name, Rows: rows})
	}
	return sheets, nil
}

func (x *XLS) Write(path string, sheets []types.Sheet) error {
	return errors.New("writing legacy xls workbooks is not supported")
}

func formatXLSCell(book *xlrd.Book, sheet *xlrd.Sheet, rowx, colx int) string {
	ctype := sheet.CellType(rowx, colx)
	value := sheet.CellValue(rowx, colx)

	switch ctype {
	case xlrd.XL_CELL_TEXT:
		return asString(value)
	case xlrd.XL_CELL_NUMBER:
		v, ok := asFloat(value)
		if !ok {
			return asString(value)
		}
		if isDateCell(book, sheet.CellXFIndex(rowx, colx)) {
			if text, ok := formatSerialDate(v, book.Datemode); ok {
				return text
			}
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case xlrd.XL_CELL_BOOLEAN:
		return formatXLSBool(value)
	case xlrd.XL_CELL_ERROR:
		return formatXLSError(value)
	case xlrd.XL_CELL_EMPTY, xlrd.XL_CELL_BLANK:
		return ""
	default:
		return asString(value)
	}
}

func formatXLSBool(value interface{}) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case int:
		if v != 0 {
			return "TRUE"
		}
		return "FALSE"
	}
	return asString(value)
}

func formatXLSError(value interface{}) string {
	switch v := value.(type) {
	case byte:
		if text, ok := xlrd.ErrorTextFromCode[v]; ok {
			return text
		}
	case int:
		if text, ok := xlrd.ErrorTextFromCode[byte(v)]; ok {
			return text
		}
	}
	return "#ERROR"
}

func isDateCell(book *xlrd.Book, xfIndex int) bool {
	if xfIndex < 0 || xfIndex >= len(book.XFList) {
		return false
	}
	key := book.XFList[xfIndex].FormatKey
	switch key {
	case 14, 15, 16, 17, 18, 19, 20, 21, 22, 27, 30, 36, 50, 57, 58:
		return true
	}
	if book.FormatMap == nil {
		return false
	}
	format := book.FormatMap[key]
	if format == nil || format.FormatString == "" {
		return false
	}
	return xlrd.IsDateFormatString(book, format.FormatString)
}

// formatSerialDate renders an Excel date serial as ISO-8601 text:
// time-only below day one, date-only for whole days.
func formatSerialDate(value float64, datemode int) (string, bool) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "", false
	}
	t, err := xlrd.XldateAsDatetime(value, datemode)
	if err != nil {
		return "", false
	}
	if value < 1 {
		return t.Format("15:04:05"), true
	}
	if value != math.Floor(value) {
		return t.Format("2006-01-02 15:04:05"), true
	}
	return t.Format("2006-01-02"), true
}

func asString(value interface{}) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
