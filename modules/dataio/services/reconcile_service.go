package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/importrun"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
)

// externalIDAliases are the dynamic-field keys checked, in order, when a
// customer record carries no mapped externalId. Legacy exports disagree on the
// column name, so all known spellings are accepted.
var externalIDAliases = []string{"externalId", "external_id", "customer_id", "kundnummer"}

// EntityGateway is the engine's port to the stored customers and tickets.
// Lookups return (nil, nil) when nothing matches; an error means the lookup
// itself failed and the record should be marked failed, not created.
type EntityGateway interface {
	CustomerByEmail(ctx context.Context, email string) (*importrun.Entity, error)
	CustomerByExternalID(ctx context.Context, externalID string) (*importrun.Entity, error)
	TicketByID(ctx context.Context, id int64) (*importrun.Entity, error)
	TicketByReference(ctx context.Context, reference string) (*importrun.Entity, error)
	TicketByCustomerAndTitle(ctx context.Context, customerEmail, referenceOrTitle string) (*importrun.Entity, error)
	CreateCustomer(ctx context.Context, e *importrun.Entity) error
	UpdateCustomer(ctx context.Context, e *importrun.Entity) error
	CreateTicket(ctx context.Context, e *importrun.Entity) error
	UpdateTicket(ctx context.Context, e *importrun.Entity) error
}

// ReconcileService decides, per record, whether to create, update or skip, and
// performs the non-destructive merge against the matched entity. It holds no
// per-run state; all persistence goes through the gateway.
type ReconcileService struct {
	gateway EntityGateway
}

func NewReconcileService(gateway EntityGateway) *ReconcileService {
	return &ReconcileService{gateway: gateway}
}

// Reconcile processes one record and never returns an error: every failure is
// folded into the RecordResult so the batch keeps going.
func (s *ReconcileService) Reconcile(
	ctx context.Context,
	target mapping.Target,
	index int,
	rec importrun.MappedRecord,
	opts importrun.Options,
) importrun.RecordResult {
	existing, err := s.resolveExisting(ctx, target, rec)
	if err != nil {
		return failed(index, fmt.Sprintf("lookup failed: %v", err))
	}

	if existing == nil {
		entity := entityFromRecord(rec)
		if err := s.create(ctx, target, entity); err != nil {
			return failed(index, fmt.Sprintf("create failed: %v", err))
		}
		return importrun.RecordResult{Index: index, Outcome: importrun.OutcomeCreated}
	}

	// skipExisting takes precedence when both flags are set.
	if opts.SkipExisting || !opts.UpdateExisting {
		return importrun.RecordResult{Index: index, Outcome: importrun.OutcomeSkipped}
	}

	merged := mergeRecord(existing, rec)
	if err := s.update(ctx, target, merged); err != nil {
		return failed(index, fmt.Sprintf("update failed: %v", err))
	}
	return importrun.RecordResult{Index: index, Outcome: importrun.OutcomeUpdated}
}

// resolveExisting walks the identity chain of the target: customers match on
// email then external id (mapped field or dynamic alias); tickets on numeric
// id, then reference, then the customer's ticket with the same reference or
// title.
func (s *ReconcileService) resolveExisting(
	ctx context.Context,
	target mapping.Target,
	rec importrun.MappedRecord,
) (*importrun.Entity, error) {
	if target == mapping.TargetCustomer {
		if email := stringField(rec, "email"); email != "" {
			entity, err := s.gateway.CustomerByEmail(ctx, email)
			if err != nil || entity != nil {
				return entity, err
			}
		}
		if externalID := customerExternalID(rec); externalID != "" {
			return s.gateway.CustomerByExternalID(ctx, externalID)
		}
		return nil, nil
	}

	if id, ok := numericField(rec, "id"); ok && id > 0 {
		entity, err := s.gateway.TicketByID(ctx, id)
		if err != nil || entity != nil {
			return entity, err
		}
	}
	if reference := stringField(rec, "reference"); reference != "" {
		entity, err := s.gateway.TicketByReference(ctx, reference)
		if err != nil || entity != nil {
			return entity, err
		}
	}
	email := stringField(rec, "customerEmail")
	refOrTitle := stringField(rec, "reference")
	if refOrTitle == "" {
		refOrTitle = stringField(rec, "title")
	}
	if email != "" && refOrTitle != "" {
		return s.gateway.TicketByCustomerAndTitle(ctx, email, refOrTitle)
	}
	return nil, nil
}

func (s *ReconcileService) create(ctx context.Context, target mapping.Target, e *importrun.Entity) error {
	if target == mapping.TargetCustomer {
		return s.gateway.CreateCustomer(ctx, e)
	}
	return s.gateway.CreateTicket(ctx, e)
}

func (s *ReconcileService) update(ctx context.Context, target mapping.Target, e *importrun.Entity) error {
	if target == mapping.TargetCustomer {
		return s.gateway.UpdateCustomer(ctx, e)
	}
	return s.gateway.UpdateTicket(ctx, e)
}

// mergeRecord folds the incoming record into a copy of the stored entity.
// Only non-empty incoming values overwrite; dynamic fields merge per key, so
// an empty or absent incoming key never deletes stored data.
func mergeRecord(existing *importrun.Entity, rec importrun.MappedRecord) *importrun.Entity {
	merged := existing.Clone()
	for field, value := range rec.Fields {
		if !emptyValue(value) {
			merged.Fields[field] = value
		}
	}
	for key, value := range rec.Dynamic {
		if value != "" {
			merged.Dynamic[key] = value
		}
	}
	return merged
}

func entityFromRecord(rec importrun.MappedRecord) *importrun.Entity {
	entity := importrun.NewEntity("")
	for field, value := range rec.Fields {
		if !emptyValue(value) {
			entity.Fields[field] = value
		}
	}
	for key, value := range rec.Dynamic {
		if value != "" {
			entity.Dynamic[key] = value
		}
	}
	return entity
}

func customerExternalID(rec importrun.MappedRecord) string {
	if v := stringField(rec, "externalId"); v != "" {
		return v
	}
	for _, alias := range externalIDAliases {
		if v := strings.TrimSpace(rec.Dynamic[alias]); v != "" {
			return v
		}
	}
	return ""
}

func stringField(rec importrun.MappedRecord, field string) string {
	v, ok := rec.Fields[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func numericField(rec importrun.MappedRecord, field string) (int64, bool) {
	v, ok := rec.Fields[field]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case int64:
		return t, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func emptyValue(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func failed(index int, reason string) importrun.RecordResult {
	return importrun.RecordResult{
		Index:   index,
		Outcome: importrun.OutcomeFailed,
		Err:     reason,
	}
}
