package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nordwell/desk-sdk/modules/crm/domain/aggregates/customer"
	"github.com/nordwell/desk-sdk/modules/crm/infrastructure/persistence/models"
	"github.com/nordwell/desk-sdk/pkg/composables"
	"github.com/nordwell/desk-sdk/pkg/repo"
)

const customerColumns = `id, tenant_id, email, name, phone, company, external_id,
	address, city, zip, country, notes, vip, customer_since, dynamic_fields,
	created_at, updated_at`

type CustomerRepository struct{}

func NewCustomerRepository() customer.Repository {
	return &CustomerRepository{}
}

func (r *CustomerRepository) GetPaginated(ctx context.Context, params *customer.FindParams) ([]customer.Customer, int64, error) {
	if params == nil {
		params = &customer.FindParams{}
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if q := strings.TrimSpace(params.Q); q != "" {
		where = append(where, "(email ILIKE $2 OR name ILIKE $2 OR company ILIKE $2)")
		args = append(args, "%"+q+"%")
	}

	query := `SELECT ` + customerColumns + `
		FROM customers
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC, id
		` + repo.FormatLimitOffset(limit, offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]customer.Customer, 0, limit)
	for rows.Next() {
		row, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, toDomainCustomer(row))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM customers WHERE `+strings.Join(where, " AND "),
		args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (customer.Customer, error) {
	return r.getOne(ctx, "id = $2", id)
}

func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (customer.Customer, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($2)", strings.TrimSpace(email))
}

func (r *CustomerRepository) GetByExternalID(ctx context.Context, externalID string) (customer.Customer, error) {
	return r.getOne(ctx, "external_id = $2 AND external_id <> ''", strings.TrimSpace(externalID))
}

func (r *CustomerRepository) getOne(ctx context.Context, predicate string, arg any) (customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return customer.Customer{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return customer.Customer{}, err
	}

	row, err := scanCustomer(tx.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE tenant_id = $1 AND `+predicate,
		tenantID, arg,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return customer.Customer{}, customer.ErrNotFound
		}
		return customer.Customer{}, err
	}
	return toDomainCustomer(row), nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM customers WHERE tenant_id = $1`, tenantID,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return customer.Customer{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return customer.Customer{}, err
	}

	row, err := scanCustomer(tx.QueryRow(ctx, `
		INSERT INTO customers (
			tenant_id, email, name, phone, company, external_id, address, city,
			zip, country, notes, vip, customer_since, dynamic_fields
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+customerColumns,
		tenantID,
		c.Email(),
		c.Name(),
		c.Phone(),
		c.Company(),
		c.ExternalID(),
		c.Address(),
		c.City(),
		c.Zip(),
		c.Country(),
		c.Notes(),
		c.VIP(),
		nullableTime(c.CustomerSince()),
		marshalDynamicFields(c.DynamicFields()),
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return customer.Customer{}, customer.ErrEmailTaken
		}
		return customer.Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return toDomainCustomer(row), nil
}

func (r *CustomerRepository) Update(ctx context.Context, c customer.Customer) (customer.Customer, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return customer.Customer{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return customer.Customer{}, err
	}

	row, err := scanCustomer(tx.QueryRow(ctx, `
		UPDATE customers SET
			email = $3, name = $4, phone = $5, company = $6, external_id = $7,
			address = $8, city = $9, zip = $10, country = $11, notes = $12,
			vip = $13, customer_since = $14, dynamic_fields = $15,
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+customerColumns,
		tenantID,
		c.ID(),
		c.Email(),
		c.Name(),
		c.Phone(),
		c.Company(),
		c.ExternalID(),
		c.Address(),
		c.City(),
		c.Zip(),
		c.Country(),
		c.Notes(),
		c.VIP(),
		nullableTime(c.CustomerSince()),
		marshalDynamicFields(c.DynamicFields()),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return customer.Customer{}, customer.ErrNotFound
		}
		return customer.Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return toDomainCustomer(row), nil
}

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var m models.Customer
	if err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.Email,
		&m.Name,
		&m.Phone,
		&m.Company,
		&m.ExternalID,
		&m.Address,
		&m.City,
		&m.Zip,
		&m.Country,
		&m.Notes,
		&m.VIP,
		&m.CustomerSince,
		&m.DynamicFields,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
