package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nordwell/desk-sdk/modules/crm/domain/aggregates/ticket"
	"github.com/nordwell/desk-sdk/modules/crm/infrastructure/persistence/models"
	"github.com/nordwell/desk-sdk/pkg/composables"
	"github.com/nordwell/desk-sdk/pkg/repo"
)

const ticketColumns = `id, tenant_id, customer_id, title, description, status,
	priority, ticket_type, reference, assignee, due_date, closed,
	dynamic_fields, created_at, updated_at`

type TicketRepository struct{}

func NewTicketRepository() ticket.Repository {
	return &TicketRepository{}
}

func (r *TicketRepository) GetPaginated(ctx context.Context, params *ticket.FindParams) ([]ticket.Ticket, int64, error) {
	if params == nil {
		params = &ticket.FindParams{}
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
	argPos := 2
	if q := strings.TrimSpace(params.Q); q != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR reference ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+q+"%")
		argPos++
	}
	if params.CustomerID != uuid.Nil {
		where = append(where, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, params.CustomerID)
		argPos++
	}
	if params.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(params.Status))
	}

	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC, id
		` + repo.FormatLimitOffset(limit, offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]ticket.Ticket, 0, limit)
	for rows.Next() {
		row, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, toDomainTicket(row))
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE `+strings.Join(where, " AND "),
		args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (ticket.Ticket, error) {
	return r.getOne(ctx, "id = $2", id)
}

func (r *TicketRepository) GetByReference(ctx context.Context, reference string) (ticket.Ticket, error) {
	return r.getOne(ctx, "reference = $2 AND reference <> ''", strings.TrimSpace(reference))
}

func (r *TicketRepository) GetByCustomerAndTitle(ctx context.Context, customerID uuid.UUID, referenceOrTitle string) (ticket.Ticket, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return ticket.Ticket{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return ticket.Ticket{}, err
	}

	row, err := scanTicket(tx.QueryRow(ctx, `
		SELECT `+ticketColumns+`
		FROM tickets
		WHERE tenant_id = $1 AND customer_id = $2
		  AND (reference = $3 OR title = $3)
		ORDER BY (reference = $3) DESC, id
		LIMIT 1`,
		tenantID, customerID, strings.TrimSpace(referenceOrTitle),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ticket.Ticket{}, ticket.ErrNotFound
		}
		return ticket.Ticket{}, err
	}
	return toDomainTicket(row), nil
}

func (r *TicketRepository) getOne(ctx context.Context, predicate string, arg any) (ticket.Ticket, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return ticket.Ticket{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return ticket.Ticket{}, err
	}

	row, err := scanTicket(tx.QueryRow(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE tenant_id = $1 AND `+predicate,
		tenantID, arg,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ticket.Ticket{}, ticket.ErrNotFound
		}
		return ticket.Ticket{}, err
	}
	return toDomainTicket(row), nil
}

func (r *TicketRepository) Count(ctx context.Context) (int64, error) {
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
		`SELECT COUNT(*) FROM tickets WHERE tenant_id = $1`, tenantID,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TicketRepository) Create(ctx context.Context, t ticket.Ticket) (ticket.Ticket, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return ticket.Ticket{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return ticket.Ticket{}, err
	}

	row, err := scanTicket(tx.QueryRow(ctx, `
		INSERT INTO tickets (
			tenant_id, customer_id, title, description, status, priority,
			ticket_type, reference, assignee, due_date, closed, dynamic_fields
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+ticketColumns,
		tenantID,
		t.CustomerID(),
		t.Title(),
		t.Description(),
		string(t.Status()),
		t.Priority(),
		t.TicketType(),
		t.Reference(),
		t.Assignee(),
		nullableTime(t.DueDate()),
		t.Closed(),
		marshalDynamicFields(t.DynamicFields()),
	))
	if err != nil {
		return ticket.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}
	return toDomainTicket(row), nil
}

func (r *TicketRepository) Update(ctx context.Context, t ticket.Ticket) (ticket.Ticket, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return ticket.Ticket{}, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return ticket.Ticket{}, err
	}

	row, err := scanTicket(tx.QueryRow(ctx, `
		UPDATE tickets SET
			customer_id = $3, title = $4, description = $5, status = $6,
			priority = $7, ticket_type = $8, reference = $9, assignee = $10,
			due_date = $11, closed = $12, dynamic_fields = $13,
			updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+ticketColumns,
		tenantID,
		t.ID(),
		t.CustomerID(),
		t.Title(),
		t.Description(),
		string(t.Status()),
		t.Priority(),
		t.TicketType(),
		t.Reference(),
		t.Assignee(),
		nullableTime(t.DueDate()),
		t.Closed(),
		marshalDynamicFields(t.DynamicFields()),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ticket.Ticket{}, ticket.ErrNotFound
		}
		return ticket.Ticket{}, fmt.Errorf("update ticket: %w", err)
	}
	return toDomainTicket(row), nil
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var m models.Ticket
	if err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.CustomerID,
		&m.Title,
		&m.Description,
		&m.Status,
		&m.Priority,
		&m.TicketType,
		&m.Reference,
		&m.Assignee,
		&m.DueDate,
		&m.Closed,
		&m.DynamicFields,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
