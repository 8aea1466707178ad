// Package importrun holds the record, option and result types that flow
// through an import run, plus the persisted run log.
package importrun

import (
	"time"

	"github.com/google/uuid"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
)

// MappedRecord is one source row transformed through a FieldMapping. Fields
// holds declared schema fields; Dynamic holds unmapped columns folded in
// verbatim when IncludeAll is set. A field absent from Fields is semantically
// different from one present with nil or "".
type MappedRecord struct {
	Fields  map[string]any
	Dynamic map[string]string
}

// Has reports whether the field is present at all, regardless of emptiness.
func (r MappedRecord) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

type Options struct {
	// SkipExisting and UpdateExisting are mutually exclusive for callers, but
	// the engine does not rely on that: SkipExisting wins when both are set.
	SkipExisting   bool
	UpdateExisting bool
	// IncludeAll folds unmapped source columns into the dynamic-field map.
	IncludeAll bool
	BatchSize  int
}

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	// OutcomeSkipped covers matched records left untouched; it counts as a
	// success in the summary.
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

type RecordResult struct {
	Index   int
	Outcome Outcome
	Err     string
}

type RecordError struct {
	Index   int
	Field   string
	Message string
}

type ValidationResult struct {
	Valid        bool
	Message      string
	RecordErrors []RecordError
	// Unusable holds the indexes of records that must not be submitted. A
	// record can carry RecordErrors (a dropped optional field) and still be
	// usable.
	Unusable []int
}

// Usable reports whether the record at index survived validation.
func (v ValidationResult) Usable(index int) bool {
	for _, i := range v.Unusable {
		if i == index {
			return false
		}
	}
	return true
}

// ErrorsForRecord returns the validation errors of one record index.
func (v ValidationResult) ErrorsForRecord(index int) []RecordError {
	var out []RecordError
	for _, e := range v.RecordErrors {
		if e.Index == index {
			out = append(out, e)
		}
	}
	return out
}

type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int
	Created   int
	Updated   int
	Skipped   int
	Errors    []string
}

func (s *BatchSummary) Add(result RecordResult) {
	switch result.Outcome {
	case OutcomeCreated:
		s.Created++
		s.Succeeded++
	case OutcomeUpdated:
		s.Updated++
		s.Succeeded++
	case OutcomeSkipped:
		s.Skipped++
		s.Succeeded++
	case OutcomeFailed:
		s.Failed++
		if result.Err != "" {
			s.Errors = append(s.Errors, result.Err)
		}
	}
}

// ImportCompleted is published on the event bus after every finished run.
type ImportCompleted struct {
	TenantID uuid.UUID
	Target   mapping.Target
	Summary  BatchSummary
	Duration time.Duration
}
