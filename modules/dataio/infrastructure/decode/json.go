package decode

import (
	"bytes"
	"encoding/json"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/dataset"
)

// decodeJSON accepts either a top-level array of objects or a single object
// whose first array-valued property (in document order) holds the records.
func decodeJSON(data []byte) (*dataset.Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil, &dataset.DecodeError{Cause: "top-level value is not an array or object"}
	}

	switch delim {
	case '[':
		return decodeJSONArray(dec)
	case '{':
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
			}
			vt, err := dec.Token()
			if err != nil {
				return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
			}
			if d, ok := vt.(json.Delim); ok {
				if d == '[' {
					return decodeJSONArray(dec)
				}
				if err := skipJSONValue(dec); err != nil {
					return nil, err
				}
			}
		}
		return nil, &dataset.DecodeError{Cause: "object has no array-valued property"}
	default:
		return nil, &dataset.DecodeError{Cause: "top-level value is not an array or object"}
	}
}

// decodeJSONArray consumes array elements up to the closing bracket. Key order
// within each object is preserved so column order matches the document.
func decodeJSONArray(dec *json.Decoder) (*dataset.Dataset, error) {
	var (
		columns []string
		seen    = map[string]bool{}
		records []dataset.RawRecord
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, &dataset.DecodeError{Cause: "array element is not an object"}
		}
		record := dataset.RawRecord{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
			}
			key := keyTok.(string)
			value, err := readJSONValue(dec)
			if err != nil {
				return nil, err
			}
			record[key] = value
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
		if _, err := dec.Token(); err != nil { // closing '}'
			return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
		}
		records = append(records, record)
	}
	if _, err := dec.Token(); err != nil { // closing ']'
		return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
	}
	return &dataset.Dataset{Columns: columns, Records: records}, nil
}

// readJSONValue reads one value. Scalars keep their type (numbers as float64),
// nested composites are re-serialized to a compact string since records are
// flat.
func readJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
	}
	switch t := tok.(type) {
	case json.Delim:
		nested, err := collectJSONComposite(dec, t)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(nested)
		if err != nil {
			return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
		}
		return string(raw), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String(), nil
		}
		return f, nil
	default:
		return t, nil // string, bool or nil
	}
}

func collectJSONComposite(dec *json.Decoder, open json.Delim) (any, error) {
	if open == '[' {
		var items []any
		for dec.More() {
			v, err := readJSONValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
		}
		return items, nil
	}
	obj := map[string]any{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
		}
		v, err := readJSONValue(dec)
		if err != nil {
			return nil, err
		}
		obj[keyTok.(string)] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
	}
	return obj, nil
}

func skipJSONValue(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return &dataset.DecodeError{Cause: "invalid json: " + err.Error()}
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
