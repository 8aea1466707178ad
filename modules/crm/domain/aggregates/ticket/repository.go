package ticket

import (
	"context"

	"github.com/google/uuid"

	"github.com/nordwell/desk-sdk/pkg/serrors"
)

var ErrNotFound = serrors.NewError("CRM_TICKET_NOT_FOUND", "ticket not found")

type FindParams struct {
	Q          string
	CustomerID uuid.UUID
	Status     Status
	Limit      int
	Offset     int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Ticket, int64, error)
	GetByID(ctx context.Context, id int64) (Ticket, error)
	GetByReference(ctx context.Context, reference string) (Ticket, error)
	// GetByCustomerAndTitle matches on reference first, then title, within one
	// customer's tickets.
	GetByCustomerAndTitle(ctx context.Context, customerID uuid.UUID, referenceOrTitle string) (Ticket, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, t Ticket) (Ticket, error)
	Update(ctx context.Context, t Ticket) (Ticket, error)
}
