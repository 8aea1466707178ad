package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
	"github.com/nordwell/desk-sdk/pkg/composables"
	"github.com/nordwell/desk-sdk/pkg/excel"
)

type stubRowSource struct {
	sources map[mapping.Target]*excel.SliceDataSource
	err     error
}

func (s *stubRowSource) Rows(_ context.Context, target mapping.Target) (excel.DataSource, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.sources[target], nil
}

func customerRows() *excel.SliceDataSource {
	return &excel.SliceDataSource{
		Sheet:   "customers",
		Columns: []string{"email", "name", "vip", "customer_since"},
		Data: [][]any{
			{"a@b.se", "Anna", true, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)},
			{"b@c.se", "Bo", false, nil},
		},
	}
}

func TestExport_CustomersToCSV(t *testing.T) {
	src := &stubRowSource{sources: map[mapping.Target]*excel.SliceDataSource{
		mapping.TargetCustomer: customerRows(),
	}}
	s := NewExportService(src)

	data, filename, err := s.Export(context.Background(), mapping.TargetCustomer, FormatCSV)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(filename, "customer-export-"))
	require.True(t, strings.HasSuffix(filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "email,name,vip,customer_since", lines[0])
	require.Equal(t, "a@b.se,Anna,true,2022-03-01", lines[1])
	// NULLs come out as empty cells.
	require.Equal(t, "b@c.se,Bo,false,", lines[2])
}

func TestExport_TicketsToXLSX(t *testing.T) {
	src := &stubRowSource{sources: map[mapping.Target]*excel.SliceDataSource{
		mapping.TargetTicket: {
			Sheet:   "tickets",
			Columns: []string{"id", "customer_id", "title"},
			Data: [][]any{
				{int64(7), "5f1c3b9a-0000-0000-0000-000000000000", "Printer broken"},
			},
		},
	}}
	s := NewExportService(src)

	data, filename, err := s.Export(context.Background(), mapping.TargetTicket, FormatXLSX)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(filename, ".xlsx"))

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("tickets")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "id", rows[0][0])
	require.Equal(t, "Printer broken", rows[1][2])
}

func TestExport_UnknownFormat(t *testing.T) {
	s := NewExportService(&stubRowSource{})

	_, _, err := s.Export(context.Background(), mapping.TargetCustomer, ExportFormat("pdf"))
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestPgxRowSource_RequiresTenant(t *testing.T) {
	src := NewPgxRowSource(nil)

	_, err := src.Rows(context.Background(), mapping.TargetCustomer)
	require.ErrorIs(t, err, composables.ErrNoTenant)
}
