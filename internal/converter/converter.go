// Package converter turns one spreadsheet or CSV file into its
// opposite format and reports the outcome without ever panicking or
// touching the source file.
package converter

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robjsim/excel-csv-converter/internal/codec"
	"github.com/robjsim/excel-csv-converter/internal/types"
)

// Extension sets accepted per direction. xlsm workbooks open fine
// through excelize, txt files are read as CSV, matching the original
// product's file pickers.
var (
	spreadsheetExts = map[string]bool{".xlsx": true, ".xlsm": true, ".xls": true}
	csvExts         = map[string]bool{".csv": true, ".txt": true}
)

// SourceAccepted reports whether a file's extension qualifies it as a
// source for the given direction.
func SourceAccepted(path string, direction types.Direction) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if direction == types.SpreadsheetToCSV {
		return spreadsheetExts[ext]
	}
	return csvExts[ext]
}

// TargetExt returns the extension jobs for the direction produce.
func TargetExt(direction types.Direction) string {
	if direction == types.SpreadsheetToCSV {
		return ".csv"
	}
	return ".xlsx"
}

// Converter converts single files. Safe for concurrent use: all state
// lives in the job.
type Converter struct {
	csv   *codec.CSV
	excel *codec.Excel
	xls   *codec.XLS
}

func New(opts codec.CSVOptions) *Converter {
	return &Converter{
		csv:   codec.NewCSV(opts),
		excel: codec.NewExcel(),
		xls:   codec.NewXLS(),
	}
}

// Convert runs one job. Every failure mode comes back as a result
// with StatusFailure and a classified reason; it never returns early
// through a panic or stray error.
func (c *Converter) Convert(job types.ConversionJob) types.ConversionResult {
	if !SourceAccepted(job.Source, job.Direction) {
		return failure(job, types.ReasonUnsupportedFormat,
			filepath.Ext(job.Source)+" is not a valid source for "+job.Direction.String())
	}

	info, err := os.Stat(job.Source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return failure(job, types.ReasonSourceNotFound, err.Error())
		}
		return failure(job, types.ReasonSourceUnreadable, err.Error())
	}
	if info.IsDir() {
		return failure(job, types.ReasonSourceUnreadable, job.Source+" is a directory")
	}

	sheets, err := c.reader(job).Read(job.Source)
	if err != nil {
		return failure(job, readReason(err), err.Error())
	}

	outputs, err := c.write(job, sheets)
	if err != nil {
		return types.ConversionResult{
			Job:     job,
			Status:  types.StatusFailure,
			Reason:  writeReason(err),
			Detail:  err.Error(),
			Outputs: outputs,
		}
	}

	return types.ConversionResult{Job: job, Status: types.StatusSuccess, Outputs: outputs}
}

func (c *Converter) reader(job types.ConversionJob) codec.Codec {
	if job.Direction == types.CSVToSpreadsheet {
		return c.csv
	}
	if strings.ToLower(filepath.Ext(job.Source)) == ".xls" {
		return c.xls
	}
	return c.excel
}

// write fans a multi-sheet spreadsheet out into one CSV per sheet;
// everything else goes to the job's destination as-is. Returned paths
// include any file written before a failure, so the caller knows a
// partial output may exist on disk.
func (c *Converter) write(job types.ConversionJob, sheets []types.Sheet) ([]string, error) {
	if job.Direction == types.CSVToSpreadsheet {
		if err := c.excel.Write(job.Destination, sheets); err != nil {
			return nil, err
		}
		return []string{job.Destination}, nil
	}

	if len(sheets) <= 1 {
		if err := c.csv.Write(job.Destination, sheets); err != nil {
			return nil, err
		}
		return []string{job.Destination}, nil
	}

	base := strings.TrimSuffix(job.Destination, filepath.Ext(job.Destination))
	used := make(map[string]bool, len(sheets))
	var written []string
	for _, sheet := range sheets {
		// Distinct sheet names can sanitize to the same string; suffix
		// a counter so every sheet keeps its own file.
		name := fileSafe(sheet.Name)
		candidate := name
		for n := 2; used[candidate]; n++ {
			candidate = name + "_" + strconv.Itoa(n)
		}
		used[candidate] = true

		path := base + "__" + candidate + ".csv"
		if err := c.csv.Write(path, []types.Sheet{sheet}); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func readReason(err error) types.FailureReason {
	var malformed *codec.MalformedError
	switch {
	case errors.As(err, &malformed):
		return types.ReasonMalformedContent
	case errors.Is(err, fs.ErrNotExist):
		return types.ReasonSourceNotFound
	case errors.Is(err, fs.ErrPermission):
		return types.ReasonSourceUnreadable
	default:
		return types.ReasonIOError
	}
}

func writeReason(err error) types.FailureReason {
	if errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
		return types.ReasonDestNotWritable
	}
	return types.ReasonIOError
}

func failure(job types.ConversionJob, reason types.FailureReason, detail string) types.ConversionResult {
	return types.ConversionResult{Job: job, Status: types.StatusFailure, Reason: reason, Detail: detail}
}

// fileSafe replaces path separators and other filesystem-hostile
// characters in a sheet name destined for a file name.
func fileSafe(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if clean == "" {
		return "sheet"
	}
	return clean
}
