package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nordwell/desk-sdk/modules/crm/domain/aggregates/customer"
	"github.com/nordwell/desk-sdk/pkg/composables"
)

type mockCustomerRepo struct {
	byEmail map[string]customer.Customer
	created []customer.Customer
}

func newMockCustomerRepo() *mockCustomerRepo {
	return &mockCustomerRepo{byEmail: map[string]customer.Customer{}}
}

func (r *mockCustomerRepo) GetPaginated(_ context.Context, _ *customer.FindParams) ([]customer.Customer, int64, error) {
	out := make([]customer.Customer, 0, len(r.byEmail))
	for _, c := range r.byEmail {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

func (r *mockCustomerRepo) GetByID(_ context.Context, _ uuid.UUID) (customer.Customer, error) {
	return customer.Customer{}, customer.ErrNotFound
}

func (r *mockCustomerRepo) GetByEmail(_ context.Context, email string) (customer.Customer, error) {
	c, ok := r.byEmail[email]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

func (r *mockCustomerRepo) GetByExternalID(_ context.Context, _ string) (customer.Customer, error) {
	return customer.Customer{}, customer.ErrNotFound
}

func (r *mockCustomerRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.byEmail)), nil
}

func (r *mockCustomerRepo) Create(_ context.Context, c customer.Customer) (customer.Customer, error) {
	if _, exists := r.byEmail[c.Email()]; exists {
		return customer.Customer{}, customer.ErrEmailTaken
	}
	r.byEmail[c.Email()] = c
	r.created = append(r.created, c)
	return c, nil
}

func (r *mockCustomerRepo) Update(_ context.Context, c customer.Customer) (customer.Customer, error) {
	r.byEmail[c.Email()] = c
	return c, nil
}

func tenantContext() context.Context {
	return composables.WithTenantID(context.Background(), uuid.New())
}

func TestCustomerService_Create(t *testing.T) {
	repo := newMockCustomerRepo()
	s := NewCustomerService(repo)

	created, err := s.Create(tenantContext(), &customer.CreateDTO{
		Email: " Anna@Example.SE ",
		Name:  "Anna",
	})
	require.NoError(t, err)
	require.Equal(t, "anna@example.se", created.Email())
	require.Len(t, repo.created, 1)
}

func TestCustomerService_CreateRejectsInvalidEmail(t *testing.T) {
	s := NewCustomerService(newMockCustomerRepo())

	_, err := s.Create(tenantContext(), &customer.CreateDTO{Email: "not-an-email"})
	require.Error(t, err)
}

func TestCustomerService_CreateRequiresTenant(t *testing.T) {
	s := NewCustomerService(newMockCustomerRepo())

	_, err := s.Create(context.Background(), &customer.CreateDTO{Email: "a@b.se"})
	require.ErrorIs(t, err, composables.ErrNoTenant)
}

func TestCustomerService_CreateDuplicateEmail(t *testing.T) {
	repo := newMockCustomerRepo()
	s := NewCustomerService(repo)

	_, err := s.Create(tenantContext(), &customer.CreateDTO{Email: "a@b.se"})
	require.NoError(t, err)
	_, err = s.Create(tenantContext(), &customer.CreateDTO{Email: "a@b.se"})
	require.ErrorIs(t, err, customer.ErrEmailTaken)
}
