// Package dataset holds the decoded, not-yet-mapped representation of an
// uploaded file: the ordered header columns and one flat record per row.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RawRecord maps a source column name to the raw decoded value. Values are
// string, float64, bool, time.Time or nil.
type RawRecord map[string]any

type Dataset struct {
	Columns []string
	Records []RawRecord
}

type FileKind string

const (
	KindDelimited   FileKind = "delimited"
	KindSpreadsheet FileKind = "spreadsheet"
	KindJSON        FileKind = "json"
)

// KindFromFilename resolves the file kind from the extension. Only .csv,
// .xlsx, .xls and .json are accepted.
func KindFromFilename(filename string) (FileKind, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return KindDelimited, nil
	case ".xlsx", ".xls":
		return KindSpreadsheet, nil
	case ".json":
		return KindJSON, nil
	default:
		return "", &DecodeError{Cause: fmt.Sprintf("unsupported file type %q", filepath.Ext(filename))}
	}
}

// DecodeError is fatal to the whole import; nothing is submitted after one.
type DecodeError struct {
	Cause string
}

func (e *DecodeError) Error() string {
	return "decode failed: " + e.Cause
}
