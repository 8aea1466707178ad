package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nordwell/desk-sdk/modules/billing/domain/entities/plan"
	"github.com/nordwell/desk-sdk/pkg/serrors"
)

var ErrQuotaExceeded = serrors.NewError("BILLING_QUOTA_EXCEEDED", "subscription plan limit reached")

// UsageCounter reports how many entities of one kind the tenant already has.
// The crm repositories satisfy it.
type UsageCounter interface {
	Count(ctx context.Context) (int64, error)
}

// PlanService gates writes against the tenant's subscription plan.
type PlanService struct {
	plans     plan.Repository
	customers UsageCounter
	tickets   UsageCounter
}

func NewPlanService(plans plan.Repository, customers, tickets UsageCounter) *PlanService {
	return &PlanService{
		plans:     plans,
		customers: customers,
		tickets:   tickets,
	}
}

func (s *PlanService) GetPlan(ctx context.Context) (plan.Plan, error) {
	p, err := s.plans.GetForTenant(ctx)
	if err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			return plan.Free(), nil
		}
		return plan.Plan{}, err
	}
	return p, nil
}

func (s *PlanService) AssignPlan(ctx context.Context, code string) error {
	if _, err := s.plans.GetByCode(ctx, code); err != nil {
		return err
	}
	return s.plans.AssignToTenant(ctx, code)
}

// EnsureImportCapacity rejects a run whose usable rows exceed the per-run
// limit or would push the tenant over its entity limit. Called before any
// record is submitted.
func (s *PlanService) EnsureImportCapacity(ctx context.Context, target string, incoming int) error {
	p, err := s.GetPlan(ctx)
	if err != nil {
		return err
	}

	if limit := p.MaxImportRows(); limit > 0 && int64(incoming) > limit {
		return ErrQuotaExceeded.Wrap(fmt.Errorf(
			"%d rows exceed the %q plan's per-import limit of %d", incoming, p.Code(), limit,
		))
	}

	counter, limit := s.customers, p.MaxCustomers()
	if target == "ticket" {
		counter, limit = s.tickets, p.MaxTickets()
	}
	if limit <= 0 || counter == nil {
		return nil
	}

	current, err := counter.Count(ctx)
	if err != nil {
		return err
	}
	if current+int64(incoming) > limit {
		return ErrQuotaExceeded.Wrap(fmt.Errorf(
			"%d existing plus %d incoming %ss exceed the %q plan's limit of %d",
			current, incoming, target, p.Code(), limit,
		))
	}
	return nil
}
