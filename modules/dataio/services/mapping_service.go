package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/dataset"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/importrun"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
)

// commitThreshold is the minimum similarity score for an automatic mapping.
const commitThreshold = 70.0

// MappingService proposes column-to-field mappings and applies them to decoded
// records. The proposal is a starting point; callers may edit it before
// mapping records.
type MappingService struct{}

func NewMappingService() *MappingService {
	return &MappingService{}
}

// ProposeMapping walks source columns in order and greedily assigns each the
// best-scoring unclaimed target field. Exact normalized match scores 100,
// containment scores proportionally to the length ratio, anything else 0; a
// column stays unmapped below the threshold. Equal scores resolve to the
// field declared first in the schema.
func (s *MappingService) ProposeMapping(columns []string, target mapping.Target) mapping.FieldMapping {
	schema := mapping.SchemaFor(target)
	result := make(mapping.FieldMapping, len(columns))
	claimed := map[string]bool{}

	for _, column := range columns {
		best := mapping.Ignored
		bestScore := 0.0
		for _, field := range schema.Fields {
			if claimed[field.Name] {
				continue
			}
			if score := matchScore(column, field.Name); score > bestScore {
				best = field.Name
				bestScore = score
			}
		}
		if bestScore > commitThreshold {
			result[column] = best
			claimed[best] = true
		} else {
			result[column] = mapping.Ignored
		}
	}
	return result
}

// Suggestions ranks target fields for the columns the proposal left unmapped.
// Purely advisory: nothing here is ever committed automatically.
func (s *MappingService) Suggestions(columns []string, proposal mapping.FieldMapping, target mapping.Target) map[string][]string {
	schema := mapping.SchemaFor(target)
	names := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		names[i] = f.Name
	}

	out := map[string][]string{}
	for _, column := range columns {
		if proposal[column] != mapping.Ignored {
			continue
		}
		ranks := fuzzy.RankFindNormalizedFold(normalizeFieldName(column), names)
		sort.Sort(ranks)
		for _, r := range ranks {
			out[column] = append(out[column], r.Target)
		}
	}
	return out
}

// MapRecords applies the mapping to every record. Ignored columns are dropped.
// When several columns map to the same target, the last mapped column in
// column order wins. Unmapped columns are folded verbatim into the dynamic map
// when includeAll is set, otherwise discarded.
func (s *MappingService) MapRecords(ds *dataset.Dataset, fm mapping.FieldMapping, includeAll bool) []importrun.MappedRecord {
	out := make([]importrun.MappedRecord, 0, len(ds.Records))
	for _, raw := range ds.Records {
		rec := importrun.MappedRecord{
			Fields:  map[string]any{},
			Dynamic: map[string]string{},
		}
		for _, column := range ds.Columns {
			value, present := raw[column]
			if !present {
				continue
			}
			field, mapped := fm[column]
			if mapped && field != mapping.Ignored {
				rec.Fields[field] = value
				continue
			}
			if includeAll && value != nil {
				rec.Dynamic[column] = renderValue(value)
			}
		}
		out = append(out, rec)
	}
	return out
}

// matchScore compares a source column to a target field on their normalized
// forms: 100 for equality, min/max length ratio scaled by 90 when one contains
// the other, 0 otherwise.
func matchScore(column, field string) float64 {
	a := normalizeFieldName(column)
	b := normalizeFieldName(field)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter, longer := len(a), len(b)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return float64(shorter) / float64(longer) * 90
	}
	return 0
}

// normalizeFieldName lowercases and strips everything outside [a-z0-9], so
// "E-Mail Address", "email_address" and "EmailAddress" normalize identically.
func normalizeFieldName(v string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(v) {
		if unicode.IsLower(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func renderValue(v any) string {
	switch t := v.(type) {
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
