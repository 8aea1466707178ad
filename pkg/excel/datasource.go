package excel

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxDataSource streams the rows of a SQL query.
type PgxDataSource struct {
	pool      *pgxpool.Pool
	sql       string
	args      []any
	sheetName string

	rows    pgx.Rows
	headers []string
}

func NewPgxDataSource(pool *pgxpool.Pool, sql string, args ...any) *PgxDataSource {
	return &PgxDataSource{pool: pool, sql: sql, args: args}
}

func (d *PgxDataSource) WithSheetName(name string) *PgxDataSource {
	d.sheetName = name
	return d
}

func (d *PgxDataSource) SheetName() string { return d.sheetName }

func (d *PgxDataSource) Headers() []string {
	if d.headers == nil && d.rows != nil {
		descs := d.rows.FieldDescriptions()
		d.headers = make([]string, 0, len(descs))
		for _, desc := range descs {
			d.headers = append(d.headers, desc.Name)
		}
	}
	return d.headers
}

func (d *PgxDataSource) Next(ctx context.Context) ([]any, error) {
	if d.rows == nil {
		rows, err := d.pool.Query(ctx, d.sql, d.args...)
		if err != nil {
			return nil, err
		}
		d.rows = rows
		descs := rows.FieldDescriptions()
		d.headers = make([]string, 0, len(descs))
		for _, desc := range descs {
			d.headers = append(d.headers, desc.Name)
		}
	}
	if !d.rows.Next() {
		err := d.rows.Err()
		d.rows.Close()
		return nil, err
	}
	return d.rows.Values()
}

// SliceDataSource serves pre-computed rows, used by services that already
// hold domain objects in memory.
type SliceDataSource struct {
	Sheet   string
	Columns []string
	Data    [][]any
	pos     int
}

func (d *SliceDataSource) SheetName() string { return d.Sheet }
func (d *SliceDataSource) Headers() []string { return d.Columns }

func (d *SliceDataSource) Next(_ context.Context) ([]any, error) {
	if d.pos >= len(d.Data) {
		return nil, nil
	}
	row := d.Data[d.pos]
	d.pos++
	return row, nil
}
