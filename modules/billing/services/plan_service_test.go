package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordwell/desk-sdk/modules/billing/domain/entities/plan"
)

type mockPlanRepo struct {
	assigned plan.Plan
	err      error
}

func (r *mockPlanRepo) GetByCode(_ context.Context, code string) (plan.Plan, error) {
	if r.assigned.Code() == code {
		return r.assigned, nil
	}
	return plan.Plan{}, plan.ErrNotFound
}

func (r *mockPlanRepo) GetForTenant(_ context.Context) (plan.Plan, error) {
	if r.err != nil {
		return plan.Plan{}, r.err
	}
	if r.assigned.IsZero() {
		return plan.Plan{}, plan.ErrNotFound
	}
	return r.assigned, nil
}

func (r *mockPlanRepo) AssignToTenant(_ context.Context, _ string) error { return nil }

type fixedCount int64

func (c fixedCount) Count(_ context.Context) (int64, error) { return int64(c), nil }

func TestEnsureImportCapacity_WithinLimits(t *testing.T) {
	s := NewPlanService(&mockPlanRepo{assigned: plan.Free()}, fixedCount(10), fixedCount(0))

	require.NoError(t, s.EnsureImportCapacity(context.Background(), "customer", 50))
}

func TestEnsureImportCapacity_PerImportLimit(t *testing.T) {
	s := NewPlanService(&mockPlanRepo{assigned: plan.Free()}, fixedCount(0), fixedCount(0))

	err := s.EnsureImportCapacity(context.Background(), "customer", 201)
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestEnsureImportCapacity_EntityLimit(t *testing.T) {
	s := NewPlanService(&mockPlanRepo{assigned: plan.Free()}, fixedCount(90), fixedCount(0))

	err := s.EnsureImportCapacity(context.Background(), "customer", 20)
	require.ErrorIs(t, err, ErrQuotaExceeded)
	require.Contains(t, err.Error(), "free")
}

func TestEnsureImportCapacity_TicketsUseTicketLimit(t *testing.T) {
	s := NewPlanService(&mockPlanRepo{assigned: plan.Free()}, fixedCount(100), fixedCount(490))

	require.NoError(t, s.EnsureImportCapacity(context.Background(), "ticket", 10))
	require.ErrorIs(t, s.EnsureImportCapacity(context.Background(), "ticket", 11), ErrQuotaExceeded)
}

func TestEnsureImportCapacity_NoAssignmentFallsBackToFree(t *testing.T) {
	s := NewPlanService(&mockPlanRepo{}, fixedCount(0), fixedCount(0))

	require.NoError(t, s.EnsureImportCapacity(context.Background(), "customer", 100))
	require.ErrorIs(t, s.EnsureImportCapacity(context.Background(), "customer", 201), ErrQuotaExceeded)
}

func TestGetPlan_RepositoryErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	s := NewPlanService(&mockPlanRepo{err: boom}, nil, nil)

	_, err := s.GetPlan(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestEnsureImportCapacity_UnlimitedPlan(t *testing.T) {
	unlimited := plan.New("business", "Business", plan.Free().MonthlyPrice(), 0, 0, 0)
	s := NewPlanService(&mockPlanRepo{assigned: unlimited}, fixedCount(1_000_000), fixedCount(0))

	require.NoError(t, s.EnsureImportCapacity(context.Background(), "customer", 100_000))
}
