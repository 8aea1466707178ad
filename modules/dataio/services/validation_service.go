package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/importrun"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// dateLayouts are tried in order for date fields arriving as strings.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"2006-01-02T15:04:05",
}

// trueTokens are the accepted truthy spellings (Swedish "ja" kept for legacy
// exports). false/0/no/nej and every unknown token all coerce to false
// without an error.
var trueTokens = map[string]bool{"true": true, "1": true, "yes": true, "ja": true}

// ValidationService checks mapped records against the target schema and
// coerces values to their declared kinds in place: dates become time.Time,
// bools become bool, numbers float64, everything string-like a string.
type ValidationService struct{}

func NewValidationService() *ValidationService {
	return &ValidationService{}
}

// Validate runs before any submission. A record failing a required-field or
// email check is marked unusable; a bad value on an optional date or number
// field drops only that field. The whole run is invalid only when no usable
// record remains.
func (s *ValidationService) Validate(target mapping.Target, records []importrun.MappedRecord) importrun.ValidationResult {
	schema := mapping.SchemaFor(target)
	result := importrun.ValidationResult{Valid: true}

	for i, rec := range records {
		usable := true
		for _, field := range schema.Fields {
			value, present := rec.Fields[field.Name]

			if field.Required && (!present || emptyValue(value)) {
				result.RecordErrors = append(result.RecordErrors, importrun.RecordError{
					Index:   i,
					Field:   field.Name,
					Message: fmt.Sprintf("required field %q is missing", field.Name),
				})
				usable = false
				continue
			}
			if !present || value == nil {
				continue
			}

			coerced, err := coerceValue(field.Kind, value)
			if err != nil {
				result.RecordErrors = append(result.RecordErrors, importrun.RecordError{
					Index:   i,
					Field:   field.Name,
					Message: err.Error(),
				})
				if field.Required {
					usable = false
				} else {
					// Bad optional value invalidates the field, not the record.
					delete(rec.Fields, field.Name)
				}
				continue
			}
			rec.Fields[field.Name] = coerced
		}
		if !usable {
			result.Unusable = append(result.Unusable, i)
		}
	}

	if len(result.Unusable) == len(records) {
		result.Valid = false
		if len(records) == 0 {
			result.Message = "no records to import"
		} else {
			result.Message = "no valid records to import"
		}
	}
	return result
}

func coerceValue(kind mapping.FieldKind, value any) (any, error) {
	switch kind {
	case mapping.KindEmail:
		email := strings.ToLower(strings.TrimSpace(asString(value)))
		if !emailPattern.MatchString(email) {
			return nil, fmt.Errorf("invalid email %q", asString(value))
		}
		return email, nil
	case mapping.KindDate:
		return coerceDate(value)
	case mapping.KindBool:
		return coerceBool(value), nil
	case mapping.KindNumber:
		return coerceNumber(value)
	default:
		return asString(value), nil
	}
}

func coerceDate(value any) (any, error) {
	if t, ok := value.(time.Time); ok {
		return t, nil
	}
	raw := strings.TrimSpace(asString(value))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unparseable date %q", raw)
}

func coerceBool(value any) bool {
	switch t := value.(type) {
	case bool:
		return t
	case float64:
		return t == 1
	case string:
		return trueTokens[strings.ToLower(strings.TrimSpace(t))]
	default:
		return false
	}
}

func coerceNumber(value any) (any, error) {
	switch t := value.(type) {
	case float64:
		return t, nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("invalid number %v", value)
	}
}

func asString(value any) string {
	switch t := value.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return fmt.Sprint(t)
	}
}
