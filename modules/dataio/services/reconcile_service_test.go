package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/importrun"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
)

type mockGateway struct {
	customersByEmail    map[string]*importrun.Entity
	customersByExternal map[string]*importrun.Entity
	ticketsByID         map[int64]*importrun.Entity
	ticketsByRef        map[string]*importrun.Entity
	ticketsByCustomer   map[string]*importrun.Entity

	created []*importrun.Entity
	updated []*importrun.Entity

	lookupErr        error
	createErr        error
	createErrByEmail map[string]error
	updateErr        error
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		customersByEmail:    map[string]*importrun.Entity{},
		customersByExternal: map[string]*importrun.Entity{},
		ticketsByID:         map[int64]*importrun.Entity{},
		ticketsByRef:        map[string]*importrun.Entity{},
		ticketsByCustomer:   map[string]*importrun.Entity{},
	}
}

func (g *mockGateway) CustomerByEmail(_ context.Context, email string) (*importrun.Entity, error) {
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	return g.customersByEmail[email], nil
}

func (g *mockGateway) CustomerByExternalID(_ context.Context, externalID string) (*importrun.Entity, error) {
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	return g.customersByExternal[externalID], nil
}

func (g *mockGateway) TicketByID(_ context.Context, id int64) (*importrun.Entity, error) {
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	return g.ticketsByID[id], nil
}

func (g *mockGateway) TicketByReference(_ context.Context, ref string) (*importrun.Entity, error) {
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	return g.ticketsByRef[ref], nil
}

func (g *mockGateway) TicketByCustomerAndTitle(_ context.Context, email, refOrTitle string) (*importrun.Entity, error) {
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	return g.ticketsByCustomer[email+"|"+refOrTitle], nil
}

func (g *mockGateway) CreateCustomer(_ context.Context, e *importrun.Entity) error {
	if g.createErr != nil {
		return g.createErr
	}
	if email, _ := e.Fields["email"].(string); email != "" {
		if err := g.createErrByEmail[email]; err != nil {
			return err
		}
	}
	g.created = append(g.created, e)
	return nil
}

func (g *mockGateway) UpdateCustomer(_ context.Context, e *importrun.Entity) error {
	if g.updateErr != nil {
		return g.updateErr
	}
	g.updated = append(g.updated, e)
	return nil
}

func (g *mockGateway) CreateTicket(_ context.Context, e *importrun.Entity) error {
	if g.createErr != nil {
		return g.createErr
	}
	g.created = append(g.created, e)
	return nil
}

func (g *mockGateway) UpdateTicket(_ context.Context, e *importrun.Entity) error {
	if g.updateErr != nil {
		return g.updateErr
	}
	g.updated = append(g.updated, e)
	return nil
}

func existingCustomer(id string, fields map[string]any, dynamic map[string]string) *importrun.Entity {
	e := importrun.NewEntity(id)
	for k, v := range fields {
		e.Fields[k] = v
	}
	for k, v := range dynamic {
		e.Dynamic[k] = v
	}
	return e
}

func TestReconcile_CreatesWhenNoMatch(t *testing.T) {
	g := newMockGateway()
	s := NewReconcileService(g)

	rec := mappedRecord(map[string]any{"email": "a@b.se", "name": "Anna", "notes": ""})
	result := s.Reconcile(context.Background(), mapping.TargetCustomer, 0, rec, importrun.Options{})

	require.Equal(t, importrun.OutcomeCreated, result.Outcome)
	require.Len(t, g.created, 1)
	require.Equal(t, "Anna", g.created[0].Fields["name"])
	// Empty values are not carried into new entities.
	require.NotContains(t, g.created[0].Fields, "notes")
}

func TestReconcile_SkipExistingWins(t *testing.T) {
	g := newMockGateway()
	g.customersByEmail["a@b.se"] = existingCustomer("id-1", map[string]any{"email": "a@b.se"}, nil)
	s := NewReconcileService(g)

	rec := mappedRecord(map[string]any{"email": "a@b.se", "name": "Anna"})
	result := s.Reconcile(context.Background(), mapping.TargetCustomer, 0, rec, importrun.Options{
		SkipExisting:   true,
		UpdateExisting: true,
	})

	require.Equal(t, importrun.OutcomeSkipped, result.Outcome)
	require.Empty(t, g.updated)
}

func TestReconcile_MatchWithoutFlagsIsSkipped(t *testing.T) {
	g := newMockGateway()
	g.customersByEmail["a@b.se"] = existingCustomer("id-1", map[string]any{"email": "a@b.se"}, nil)
	s := NewReconcileService(g)

	rec := mappedRecord(map[string]any{"email": "a@b.se"})
	result := s.Reconcile(context.Background(), mapping.TargetCustomer, 0, rec, importrun.Options{})

	require.Equal(t, importrun.OutcomeSkipped, result.Outcome)
}

func TestReconcile_UpdateMergesNonEmptyOnly(t *testing.T) {
	g := newMockGateway()
	g.customersByEmail["a@b.se"] = existingCustomer("id-1",
		map[string]any{"email": "a@b.se", "name": "Anna Andersson", "phone": "070-1"},
		map[string]string{"segment": "gold", "region": "north"},
	)
	s := NewReconcileService(g)

	rec := importrun.MappedRecord{
		Fields:  map[string]any{"email": "a@b.se", "name": "", "phone": "070-2"},
		Dynamic: map[string]string{"segment": "", "region": "south", "channel": "web"},
	}
	result := s.Reconcile(context.Background(), mapping.TargetCustomer, 0, rec, importrun.Options{
		UpdateExisting: true,
	})

	require.Equal(t, importrun.OutcomeUpdated, result.Outcome)
	require.Len(t, g.updated, 1)
	merged := g.updated[0]
	require.Equal(t, "id-1", merged.ID)
	// Empty incoming values never overwrite or delete.
	require.Equal(t, "Anna Andersson", merged.Fields["name"])
	require.Equal(t, "070-2", merged.Fields["phone"])
	require.Equal(t, "gold", merged.Dynamic["segment"])
	require.Equal(t, "south", merged.Dynamic["region"])
	require.Equal(t, "web", merged.Dynamic["channel"])

	// The gateway snapshot itself stays untouched.
	require.Equal(t, "north", g.customersByEmail["a@b.se"].Dynamic["region"])
}

func TestReconcile_UpdateTwiceIsIdempotent(t *testing.T) {
	g := newMockGateway()
	g.customersByEmail["a@b.se"] = existingCustomer("id-1",
		map[string]any{"email": "a@b.se", "name": "Anna", "phone": "070-1"},
		map[string]string{"segment": "gold"},
	)
	s := NewReconcileService(g)

	rec := importrun.MappedRecord{
		Fields:  map[string]any{"email": "a@b.se", "name": "Maria", "phone": ""},
		Dynamic: map[string]string{"region": "south"},
	}
	opts := importrun.Options{UpdateExisting: true}

	first := s.Reconcile(context.Background(), mapping.TargetCustomer, 0, rec, opts)
	require.Equal(t, importrun.OutcomeUpdated, first.Outcome)
	require.Len(t, g.updated, 1)
	afterFirst := g.updated[0]

	// Second pass runs against the state the first pass produced.
	g.customersByEmail["a@b.se"] = afterFirst
	second := s.Reconcile(context.Background(), mapping.TargetCustomer, 0, rec, opts)
	require.Equal(t, importrun.OutcomeUpdated, second.Outcome)
	require.Len(t, g.updated, 2)

	afterSecond := g.updated[1]
	require.Equal(t, afterFirst.Fields, afterSecond.Fields)
	require.Equal(t, afterFirst.Dynamic, afterSecond.Dynamic)
	require.Equal(t, "Maria", afterSecond.Fields["name"])
	require.Equal(t, "070-1", afterSecond.Fields["phone"])
	require.Equal(t, "gold", afterSecond.Dynamic["segment"])
}

func TestReconcile_CustomerExternalIDFallback(t *testing.T) {
	g := newMockGateway()
	g.customersByExternal["K-1042"] = existingCustomer("id-9", map[string]any{"externalId": "K-1042"}, nil)
	s := NewReconcileService(g)

	// No email mapped; the external id comes from a dynamic alias column.
	rec := importrun.MappedRecord{
		Fields:  map[string]any{},
		Dynamic: map[string]string{"kundnummer": "K-1042"},
	}
	result := s.Reconcile(context.Background(), mapping.TargetCustomer, 0, rec, importrun.Options{})

	require.Equal(t, importrun.OutcomeSkipped, result.Outcome)
}

func TestReconcile_TicketIdentityChain(t *testing.T) {
	g := newMockGateway()
	g.ticketsByID[7] = existingCustomer("7", map[string]any{"title": "by id"}, nil)
	g.ticketsByRef["REF-1"] = existingCustomer("8", map[string]any{"title": "by ref"}, nil)
	g.ticketsByCustomer["a@b.se|Printer broken"] = existingCustomer("9", map[string]any{"title": "Printer broken"}, nil)
	s := NewReconcileService(g)

	byID := s.Reconcile(context.Background(), mapping.TargetTicket, 0,
		mappedRecord(map[string]any{"id": float64(7), "customerEmail": "a@b.se"}), importrun.Options{})
	require.Equal(t, importrun.OutcomeSkipped, byID.Outcome)

	byRef := s.Reconcile(context.Background(), mapping.TargetTicket, 1,
		mappedRecord(map[string]any{"reference": "REF-1", "customerEmail": "a@b.se"}), importrun.Options{})
	require.Equal(t, importrun.OutcomeSkipped, byRef.Outcome)

	byTitle := s.Reconcile(context.Background(), mapping.TargetTicket, 2,
		mappedRecord(map[string]any{"customerEmail": "a@b.se", "title": "Printer broken"}), importrun.Options{})
	require.Equal(t, importrun.OutcomeSkipped, byTitle.Outcome)

	noMatch := s.Reconcile(context.Background(), mapping.TargetTicket, 3,
		mappedRecord(map[string]any{"customerEmail": "a@b.se", "title": "Brand new"}), importrun.Options{})
	require.Equal(t, importrun.OutcomeCreated, noMatch.Outcome)
}

func TestReconcile_LookupErrorFailsRecord(t *testing.T) {
	g := newMockGateway()
	g.lookupErr = errors.New("connection reset")
	s := NewReconcileService(g)

	rec := mappedRecord(map[string]any{"email": "a@b.se"})
	result := s.Reconcile(context.Background(), mapping.TargetCustomer, 4, rec, importrun.Options{})

	require.Equal(t, importrun.OutcomeFailed, result.Outcome)
	require.Contains(t, result.Err, "lookup failed")
	require.Equal(t, 4, result.Index)
	require.Empty(t, g.created)
}

func TestReconcile_CreateErrorFailsRecord(t *testing.T) {
	g := newMockGateway()
	g.createErr = errors.New("no customer with email \"x@y.se\"")
	s := NewReconcileService(g)

	rec := mappedRecord(map[string]any{"customerEmail": "x@y.se", "title": "Help"})
	result := s.Reconcile(context.Background(), mapping.TargetTicket, 0, rec, importrun.Options{})

	require.Equal(t, importrun.OutcomeFailed, result.Outcome)
	require.Contains(t, result.Err, "create failed")
}
