package types

// Direction selects which way a conversion runs.
type Direction int

const (
	SpreadsheetToCSV Direction = iota
	CSVToSpreadsheet
)

func (d Direction) String() string {
	switch d {
	case SpreadsheetToCSV:
		return "spreadsheet-to-csv"
	case CSVToSpreadsheet:
		return "csv-to-spreadsheet"
	}
	return "unknown"
}

// ConversionJob is one source-file-to-destination-file request.
// Destination is the base output path; a multi-sheet source fans out
// into one file per sheet derived from it.
type ConversionJob struct {
	Source      string
	Destination string
	Direction   Direction
}

// Sheet holds one named grid of cell text. Rows may be ragged; short
// rows are padded with empty cells on write.
type Sheet struct {
	Name string
	Rows [][]string
}

type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
)

// FailureReason classifies why a single job failed.
type FailureReason string

const (
	ReasonNone                 FailureReason = ""
	ReasonSourceNotFound       FailureReason = "source not found"
	ReasonSourceUnreadable     FailureReason = "source unreadable"
	ReasonUnsupportedFormat    FailureReason = "unsupported format"
	ReasonDestNotWritable      FailureReason = "destination not writable"
	ReasonMalformedContent     FailureReason = "malformed content"
	ReasonIOError              FailureReason = "i/o error"
	ReasonDestinationCollision FailureReason = "destination collision"
)

// ConversionResult is the outcome of one job. Outputs lists the files
// actually written on success.
type ConversionResult struct {
	Job     ConversionJob
	Status  Status
	Reason  FailureReason
	Detail  string
	Outputs []string
}

func (r ConversionResult) Failed() bool {
	return r.Status == StatusFailure
}
