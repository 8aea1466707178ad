package excel

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// DataSource feeds tabular data to the exporter row by row.
type DataSource interface {
	SheetName() string
	Headers() []string
	// Next returns the next row, or (nil, nil) when exhausted.
	Next(ctx context.Context) ([]any, error)
}

type ExportOptions struct {
	DateFormat  string
	BoldHeaders bool
}

func DefaultOptions() ExportOptions {
	return ExportOptions{
		DateFormat:  "2006-01-02",
		BoldHeaders: true,
	}
}

type ExcelExporter struct {
	opts ExportOptions
}

func NewExcelExporter(opts ExportOptions) *ExcelExporter {
	if opts.DateFormat == "" {
		opts.DateFormat = "2006-01-02"
	}
	return &ExcelExporter{opts: opts}
}

// Export writes the data source into a single-sheet workbook and returns the
// encoded file.
func (e *ExcelExporter) Export(ctx context.Context, ds DataSource) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := ds.SheetName()
	if sheet == "" {
		sheet = "Sheet1"
	}
	if len(sheet) > 31 { // Excel sheet name limit
		sheet = sheet[:31]
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	// Pull the first row before reading headers so query-backed sources have
	// executed and know their column set.
	firstRow, err := ds.Next(ctx)
	if err != nil {
		return nil, err
	}

	headers := ds.Headers()
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}
	if e.opts.BoldHeaders && len(headers) > 0 {
		styleID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err == nil {
			last, _ := excelize.CoordinatesToCellName(len(headers), 1)
			_ = f.SetCellStyle(sheet, "A1", last, styleID)
		}
	}

	rowIdx := 2
	row := firstRow
	for row != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx)
			if err != nil {
				return nil, err
			}
			if t, ok := value.(time.Time); ok {
				value = t.Format(e.opts.DateFormat)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
		rowIdx++
		row, err = ds.Next(ctx)
		if err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
