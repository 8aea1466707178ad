package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
	"github.com/nordwell/desk-sdk/pkg/composables"
	"github.com/nordwell/desk-sdk/pkg/excel"
	"github.com/nordwell/desk-sdk/pkg/serrors"
)

type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
)

var ErrUnknownFormat = serrors.NewError("EXPORT_UNKNOWN_FORMAT", "unknown export format")

// RowSource yields the rows of one export target as a streaming data source.
type RowSource interface {
	Rows(ctx context.Context, target mapping.Target) (excel.DataSource, error)
}

const (
	customerExportQuery = `SELECT email, name, phone, company, external_id, address,
			city, zip, country, notes, vip, customer_since
		FROM customers WHERE tenant_id = $1 ORDER BY email`
	ticketExportQuery = `SELECT id, customer_id::text AS customer_id, title, description,
			status, priority, ticket_type AS type, reference, assignee, due_date, closed
		FROM tickets WHERE tenant_id = $1 ORDER BY id`
)

// NewPgxRowSource streams export rows straight from Postgres, tenant-scoped.
func NewPgxRowSource(pool *pgxpool.Pool) RowSource {
	return &pgxRowSource{pool: pool}
}

type pgxRowSource struct {
	pool *pgxpool.Pool
}

func (s *pgxRowSource) Rows(ctx context.Context, target mapping.Target) (excel.DataSource, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	query := customerExportQuery
	if target == mapping.TargetTicket {
		query = ticketExportQuery
	}
	return excel.NewPgxDataSource(s.pool, query, tenantID).WithSheetName(string(target) + "s"), nil
}

// ExportService writes the tenant's customers or tickets to a downloadable
// file, the mirror image of the import path.
type ExportService struct {
	rows     RowSource
	exporter *excel.ExcelExporter
}

func NewExportService(rows RowSource) *ExportService {
	return &ExportService{
		rows:     rows,
		exporter: excel.NewExcelExporter(excel.DefaultOptions()),
	}
}

// Export returns the encoded file and a suggested filename.
func (s *ExportService) Export(ctx context.Context, target mapping.Target, format ExportFormat) ([]byte, string, error) {
	if format != FormatXLSX && format != FormatCSV {
		return nil, "", ErrUnknownFormat
	}

	ds, err := s.rows.Rows(ctx, target)
	if err != nil {
		return nil, "", err
	}

	name := fmt.Sprintf("%s-export-%s.%s", target, time.Now().Format("2006-01-02"), format)
	if format == FormatXLSX {
		data, err := s.exporter.Export(ctx, ds)
		return data, name, err
	}
	data, err := encodeCSV(ctx, ds)
	return data, name, err
}

// encodeCSV pulls the first row before the headers, the same order the excel
// exporter uses, so query-backed sources have executed and know their columns.
func encodeCSV(ctx context.Context, ds excel.DataSource) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	row, err := ds.Next(ctx)
	if err != nil {
		return nil, err
	}
	headers := ds.Headers()
	if err := w.Write(headers); err != nil {
		return nil, err
	}

	record := make([]string, len(headers))
	for row != nil {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i] != nil {
				record[i] = renderValue(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
		if row, err = ds.Next(ctx); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
