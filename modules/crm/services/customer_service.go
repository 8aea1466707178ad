package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/nordwell/desk-sdk/modules/crm/domain/aggregates/customer"
	"github.com/nordwell/desk-sdk/pkg/composables"
)

type CustomerService struct {
	repo customer.Repository
}

func NewCustomerService(repo customer.Repository) *CustomerService {
	return &CustomerService{repo: repo}
}

func (s *CustomerService) GetPaginated(ctx context.Context, params *customer.FindParams) ([]customer.Customer, int64, error) {
	if params != nil {
		params.Q = strings.TrimSpace(params.Q)
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (customer.Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CustomerService) GetByEmail(ctx context.Context, email string) (customer.Customer, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *CustomerService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *CustomerService) Create(ctx context.Context, dto *customer.CreateDTO) (customer.Customer, error) {
	if dto == nil {
		return customer.Customer{}, errors.New("missing dto")
	}
	if err := dto.Ok(); err != nil {
		return customer.Customer{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return customer.Customer{}, err
	}
	return s.repo.Create(ctx, dto.ToEntity(tenantID))
}
