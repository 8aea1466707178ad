package decode

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/dataset"
)

func decodeCSV(data []byte) (*dataset.Dataset, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	// Rows may be ragged; short rows are padded with nil below.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &dataset.DecodeError{Cause: "file is empty"}
		}
		return nil, &dataset.DecodeError{Cause: "unreadable header row: " + err.Error()}
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = trimBOM(name)
	}

	var records []dataset.RawRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &dataset.DecodeError{Cause: "unreadable row: " + err.Error()}
		}
		record := make(dataset.RawRecord, len(columns))
		for i, column := range columns {
			if i < len(row) {
				record[column] = inferScalar(row[i])
			} else {
				record[column] = nil
			}
		}
		records = append(records, record)
	}

	return &dataset.Dataset{Columns: columns, Records: records}, nil
}

func trimBOM(s string) string {
	if len(s) >= 3 && s[0] == 0xEF && s[1] == 0xBB && s[2] == 0xBF {
		return s[3:]
	}
	return s
}
