// Package decode turns uploaded files into datasets. Decoding is
// all-or-nothing: any parse failure surfaces as a dataset.DecodeError and no
// partial result is returned.
package decode

import (
	"strconv"
	"strings"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/dataset"
)

type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode picks the format from the file extension and produces the ordered
// column list plus one RawRecord per row.
func (d *Decoder) Decode(filename string, data []byte) (*dataset.Dataset, error) {
	kind, err := dataset.KindFromFilename(filename)
	if err != nil {
		return nil, err
	}
	switch kind {
	case dataset.KindDelimited:
		return decodeCSV(data)
	case dataset.KindSpreadsheet:
		return decodeExcel(data)
	default:
		return decodeJSON(data)
	}
}

// inferScalar applies best-effort type inference to a cell: numeric strings
// become float64, everything else stays a string. Empty cells stay "".
func inferScalar(v string) any {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return v
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return n
	}
	return v
}
