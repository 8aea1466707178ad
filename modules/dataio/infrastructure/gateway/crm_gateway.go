// Package gateway adapts the crm repositories to the import engine's
// EntityGateway port. Every call runs under a configurable timeout so one
// stuck statement cannot stall a whole run.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nordwell/desk-sdk/modules/crm/domain/aggregates/customer"
	"github.com/nordwell/desk-sdk/modules/crm/domain/aggregates/ticket"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/importrun"
	"github.com/nordwell/desk-sdk/modules/dataio/services"
	"github.com/nordwell/desk-sdk/pkg/composables"
)

type CRMGateway struct {
	customers customer.Repository
	tickets   ticket.Repository
	timeout   time.Duration
}

func NewCRMGateway(
	customers customer.Repository,
	tickets ticket.Repository,
	timeout time.Duration,
) services.EntityGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CRMGateway{
		customers: customers,
		tickets:   tickets,
		timeout:   timeout,
	}
}

func (g *CRMGateway) CustomerByEmail(ctx context.Context, email string) (*importrun.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	c, err := g.customers.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return customerToEntity(c), nil
}

func (g *CRMGateway) CustomerByExternalID(ctx context.Context, externalID string) (*importrun.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	c, err := g.customers.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return customerToEntity(c), nil
}

func (g *CRMGateway) TicketByID(ctx context.Context, id int64) (*importrun.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	t, err := g.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ticketToEntity(t), nil
}

func (g *CRMGateway) TicketByReference(ctx context.Context, reference string) (*importrun.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	t, err := g.tickets.GetByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ticketToEntity(t), nil
}

func (g *CRMGateway) TicketByCustomerAndTitle(ctx context.Context, customerEmail, referenceOrTitle string) (*importrun.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	c, err := g.customers.GetByEmail(ctx, customerEmail)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t, err := g.tickets.GetByCustomerAndTitle(ctx, c.ID(), referenceOrTitle)
	if err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return ticketToEntity(t), nil
}

func (g *CRMGateway) CreateCustomer(ctx context.Context, e *importrun.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	c, err := entityToCustomer(ctx, e)
	if err != nil {
		return err
	}
	_, err = g.customers.Create(ctx, c)
	return err
}

func (g *CRMGateway) UpdateCustomer(ctx context.Context, e *importrun.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	c, err := entityToCustomer(ctx, e)
	if err != nil {
		return err
	}
	_, err = g.customers.Update(ctx, c)
	return err
}

func (g *CRMGateway) CreateTicket(ctx context.Context, e *importrun.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	t, err := g.entityToTicket(ctx, e)
	if err != nil {
		return err
	}
	_, err = g.tickets.Create(ctx, t)
	return err
}

func (g *CRMGateway) UpdateTicket(ctx context.Context, e *importrun.Entity) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	t, err := g.entityToTicket(ctx, e)
	if err != nil {
		return err
	}
	_, err = g.tickets.Update(ctx, t)
	return err
}

func customerToEntity(c customer.Customer) *importrun.Entity {
	e := importrun.NewEntity(c.ID().String())
	e.Fields["email"] = c.Email()
	e.Fields["name"] = c.Name()
	e.Fields["phone"] = c.Phone()
	e.Fields["company"] = c.Company()
	e.Fields["externalId"] = c.ExternalID()
	e.Fields["address"] = c.Address()
	e.Fields["city"] = c.City()
	e.Fields["zip"] = c.Zip()
	e.Fields["country"] = c.Country()
	e.Fields["notes"] = c.Notes()
	e.Fields["vip"] = c.VIP()
	if !c.CustomerSince().IsZero() {
		e.Fields["customerSince"] = c.CustomerSince()
	}
	e.Dynamic = c.DynamicFields()
	return e
}

func ticketToEntity(t ticket.Ticket) *importrun.Entity {
	e := importrun.NewEntity(strconv.FormatInt(t.ID(), 10))
	// customerId is carried so updates keep the linkage when no customerEmail
	// comes in with the merge.
	e.Fields["customerId"] = t.CustomerID().String()
	e.Fields["title"] = t.Title()
	e.Fields["description"] = t.Description()
	e.Fields["status"] = string(t.Status())
	e.Fields["priority"] = t.Priority()
	e.Fields["type"] = t.TicketType()
	e.Fields["reference"] = t.Reference()
	e.Fields["assignee"] = t.Assignee()
	if !t.DueDate().IsZero() {
		e.Fields["dueDate"] = t.DueDate()
	}
	e.Fields["closed"] = t.Closed()
	e.Dynamic = t.DynamicFields()
	return e
}

func entityToCustomer(ctx context.Context, e *importrun.Entity) (customer.Customer, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return customer.Customer{}, err
	}
	id := uuid.Nil
	if e.ID != "" {
		parsed, err := uuid.Parse(e.ID)
		if err != nil {
			return customer.Customer{}, fmt.Errorf("invalid customer id %q: %w", e.ID, err)
		}
		id = parsed
	}
	return customer.Hydrate(
		tenantID,
		id,
		str(e.Fields, "email"),
		str(e.Fields, "name"),
		str(e.Fields, "phone"),
		str(e.Fields, "company"),
		str(e.Fields, "externalId"),
		str(e.Fields, "address"),
		str(e.Fields, "city"),
		str(e.Fields, "zip"),
		str(e.Fields, "country"),
		str(e.Fields, "notes"),
		boolean(e.Fields, "vip"),
		date(e.Fields, "customerSince"),
		e.Dynamic,
		time.Time{},
		time.Time{},
	), nil
}

func (g *CRMGateway) entityToTicket(ctx context.Context, e *importrun.Entity) (ticket.Ticket, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return ticket.Ticket{}, err
	}

	var id int64
	if e.ID != "" {
		id, err = strconv.ParseInt(e.ID, 10, 64)
		if err != nil {
			return ticket.Ticket{}, fmt.Errorf("invalid ticket id %q: %w", e.ID, err)
		}
	}

	customerID, err := g.resolveTicketCustomer(ctx, e)
	if err != nil {
		return ticket.Ticket{}, err
	}

	return ticket.Hydrate(
		tenantID,
		id,
		customerID,
		str(e.Fields, "title"),
		str(e.Fields, "description"),
		ticket.Status(str(e.Fields, "status")),
		str(e.Fields, "priority"),
		str(e.Fields, "type"),
		str(e.Fields, "reference"),
		str(e.Fields, "assignee"),
		date(e.Fields, "dueDate"),
		boolean(e.Fields, "closed"),
		e.Dynamic,
		time.Time{},
		time.Time{},
	), nil
}

// resolveTicketCustomer prefers an incoming customerEmail over the stored
// customerId, so an update can move a ticket to another customer.
func (g *CRMGateway) resolveTicketCustomer(ctx context.Context, e *importrun.Entity) (uuid.UUID, error) {
	if email := str(e.Fields, "customerEmail"); email != "" {
		c, err := g.customers.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, customer.ErrNotFound) {
				return uuid.Nil, fmt.Errorf("no customer with email %q", email)
			}
			return uuid.Nil, err
		}
		return c.ID(), nil
	}
	if raw := str(e.Fields, "customerId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid customer id %q: %w", raw, err)
		}
		return id, nil
	}
	return uuid.Nil, errors.New("ticket has no customer email")
}

func str(fields map[string]any, name string) string {
	v, ok := fields[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format("2006-01-02")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func boolean(fields map[string]any, name string) bool {
	v, ok := fields[name].(bool)
	return ok && v
}

func date(fields map[string]any, name string) time.Time {
	if t, ok := fields[name].(time.Time); ok {
		return t
	}
	return time.Time{}
}
