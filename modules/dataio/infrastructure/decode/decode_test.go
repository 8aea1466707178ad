package decode_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/dataset"
	"github.com/nordwell/desk-sdk/modules/dataio/infrastructure/decode"
)

func TestDecode_CSV(t *testing.T) {
	d := decode.NewDecoder()

	data := []byte("Email,Name,Age\na@b.se,Anna,34\nb@c.se,Bo\n")
	ds, err := d.Decode("customers.csv", data)
	require.NoError(t, err)
	require.Equal(t, []string{"Email", "Name", "Age"}, ds.Columns)
	require.Len(t, ds.Records, 2)

	require.Equal(t, "a@b.se", ds.Records[0]["Email"])
	require.Equal(t, float64(34), ds.Records[0]["Age"])

	// Short rows are padded with nil, not dropped.
	require.Equal(t, "Bo", ds.Records[1]["Name"])
	require.Nil(t, ds.Records[1]["Age"])
}

func TestDecode_CSVEmptyFile(t *testing.T) {
	d := decode.NewDecoder()

	_, err := d.Decode("empty.csv", nil)
	var decodeErr *dataset.DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestDecode_UnsupportedExtension(t *testing.T) {
	d := decode.NewDecoder()

	_, err := d.Decode("customers.txt", []byte("a,b\n1,2\n"))
	var decodeErr *dataset.DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestDecode_JSONArray(t *testing.T) {
	d := decode.NewDecoder()

	data := []byte(`[{"email":"a@b.se","vip":true,"score":7},{"email":"b@c.se","city":"Malmö"}]`)
	ds, err := d.Decode("customers.json", data)
	require.NoError(t, err)
	require.Equal(t, []string{"email", "vip", "score", "city"}, ds.Columns)
	require.Len(t, ds.Records, 2)
	require.Equal(t, true, ds.Records[0]["vip"])
	require.Equal(t, float64(7), ds.Records[0]["score"])
	require.Equal(t, "Malmö", ds.Records[1]["city"])
}

func TestDecode_JSONObjectWrapper(t *testing.T) {
	d := decode.NewDecoder()

	// The first array-valued property carries the records; everything else in
	// the wrapper is ignored.
	data := []byte(`{"meta":{"page":1},"items":[{"email":"a@b.se"}],"other":[{"email":"x@y.se"}]}`)
	ds, err := d.Decode("export.json", data)
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	require.Equal(t, "a@b.se", ds.Records[0]["email"])
}

func TestDecode_JSONNestedValueFlattened(t *testing.T) {
	d := decode.NewDecoder()

	data := []byte(`[{"email":"a@b.se","tags":["vip","new"]}]`)
	ds, err := d.Decode("customers.json", data)
	require.NoError(t, err)
	require.Equal(t, `["vip","new"]`, ds.Records[0]["tags"])
}

func TestDecode_JSONInvalid(t *testing.T) {
	d := decode.NewDecoder()

	_, err := d.Decode("bad.json", []byte(`{"items": [`))
	var decodeErr *dataset.DecodeError
	require.ErrorAs(t, err, &decodeErr)

	_, err = d.Decode("bad.json", []byte(`"just a string"`))
	require.ErrorAs(t, err, &decodeErr)
}

func TestDecode_Excel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Email", "Customer Since", "Orders"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"a@b.se", "2024-05-01", 3}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	d := decode.NewDecoder()
	ds, err := d.Decode("customers.xlsx", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, []string{"Email", "Customer Since", "Orders"}, ds.Columns)
	require.Len(t, ds.Records, 1)
	require.Equal(t, "a@b.se", ds.Records[0]["Email"])
	require.Equal(t, float64(3), ds.Records[0]["Orders"])

	since, ok := ds.Records[0]["Customer Since"].(time.Time)
	require.True(t, ok)
	require.Equal(t, 2024, since.Year())
}
