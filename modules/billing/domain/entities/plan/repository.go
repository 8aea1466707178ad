package plan

import (
	"context"

	"github.com/nordwell/desk-sdk/pkg/serrors"
)

var ErrNotFound = serrors.NewError("BILLING_PLAN_NOT_FOUND", "plan not found")

type Repository interface {
	GetByCode(ctx context.Context, code string) (Plan, error)
	// GetForTenant resolves the context tenant's assigned plan; ErrNotFound
	// when the tenant has no assignment.
	GetForTenant(ctx context.Context) (Plan, error)
	AssignToTenant(ctx context.Context, code string) error
}
