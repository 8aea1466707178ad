package decode

import (
	"bytes"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/dataset"
)

// excelDateLayouts cover the display formats excelize renders date cells in,
// plus ISO dates typed as text.
var excelDateLayouts = []string{
	"2006-01-02",
	"01-02-06",
	"1/2/06 15:04",
	"01/02/2006",
	"2006-01-02 15:04:05",
}

func decodeExcel(data []byte) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &dataset.DecodeError{Cause: "unreadable workbook: " + err.Error()}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &dataset.DecodeError{Cause: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &dataset.DecodeError{Cause: "unreadable sheet: " + err.Error()}
	}
	if len(rows) == 0 {
		return nil, &dataset.DecodeError{Cause: "sheet is empty"}
	}

	columns := make([]string, len(rows[0]))
	for i, name := range rows[0] {
		columns[i] = strings.TrimSpace(name)
	}

	records := make([]dataset.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(dataset.RawRecord, len(columns))
		for i, column := range columns {
			if i < len(row) {
				record[column] = inferCell(row[i])
			} else {
				record[column] = nil
			}
		}
		records = append(records, record)
	}

	return &dataset.Dataset{Columns: columns, Records: records}, nil
}

// inferCell extends scalar inference with date detection, since spreadsheet
// date cells arrive as formatted strings.
func inferCell(v string) any {
	trimmed := strings.TrimSpace(v)
	for _, layout := range excelDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t
		}
	}
	return inferScalar(v)
}
