package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nordwell/desk-sdk/modules/billing/domain/entities/plan"
	"github.com/nordwell/desk-sdk/pkg/composables"
)

const planColumns = `code, name, monthly_price, max_customers, max_tickets, max_import_rows`

type PlanRepository struct{}

func NewPlanRepository() plan.Repository {
	return &PlanRepository{}
}

func (r *PlanRepository) GetByCode(ctx context.Context, code string) (plan.Plan, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return plan.Plan{}, err
	}
	return scanPlan(tx.QueryRow(ctx,
		`SELECT `+planColumns+` FROM plans WHERE code = $1`, code,
	))
}

func (r *PlanRepository) GetForTenant(ctx context.Context) (plan.Plan, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return plan.Plan{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return plan.Plan{}, err
	}
	return scanPlan(tx.QueryRow(ctx, `
		SELECT `+planColumns+`
		FROM plans p
		JOIN tenant_plans tp ON tp.plan_code = p.code
		WHERE tp.tenant_id = $1`,
		tenantID,
	))
}

func (r *PlanRepository) AssignToTenant(ctx context.Context, code string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO tenant_plans (tenant_id, plan_code)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id) DO UPDATE SET plan_code = $2, assigned_at = now()`,
		tenantID, code,
	)
	return err
}

func scanPlan(row pgx.Row) (plan.Plan, error) {
	var (
		code, name    string
		price         decimal.Decimal
		maxCustomers  int64
		maxTickets    int64
		maxImportRows int64
	)
	if err := row.Scan(&code, &name, &price, &maxCustomers, &maxTickets, &maxImportRows); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return plan.Plan{}, plan.ErrNotFound
		}
		return plan.Plan{}, err
	}
	return plan.New(code, name, price, maxCustomers, maxTickets, maxImportRows), nil
}
