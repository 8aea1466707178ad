package customer

import (
	"context"

	"github.com/google/uuid"

	"github.com/nordwell/desk-sdk/pkg/serrors"
)

var (
	ErrNotFound   = serrors.NewError("CRM_CUSTOMER_NOT_FOUND", "customer not found")
	ErrEmailTaken = serrors.NewError("CRM_CUSTOMER_EMAIL_TAKEN", "customer email already exists")
)

type FindParams struct {
	Q      string
	Limit  int
	Offset int
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]Customer, int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (Customer, error)
	GetByEmail(ctx context.Context, email string) (Customer, error)
	GetByExternalID(ctx context.Context, externalID string) (Customer, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
}
