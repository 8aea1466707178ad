package persistence

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nordwell/desk-sdk/modules/crm/domain/aggregates/customer"
	"github.com/nordwell/desk-sdk/modules/crm/domain/aggregates/ticket"
	"github.com/nordwell/desk-sdk/modules/crm/infrastructure/persistence/models"
)

func toDomainCustomer(row *models.Customer) customer.Customer {
	var dynamicFields map[string]string
	if len(row.DynamicFields) > 0 {
		_ = json.Unmarshal(row.DynamicFields, &dynamicFields)
	}
	var since time.Time
	if row.CustomerSince != nil {
		since = *row.CustomerSince
	}
	return customer.Hydrate(
		parseUUID(row.TenantID),
		parseUUID(row.ID),
		row.Email,
		row.Name,
		row.Phone,
		row.Company,
		row.ExternalID,
		row.Address,
		row.City,
		row.Zip,
		row.Country,
		row.Notes,
		row.VIP,
		since,
		dynamicFields,
		row.CreatedAt,
		row.UpdatedAt,
	)
}

func toDomainTicket(row *models.Ticket) ticket.Ticket {
	var dynamicFields map[string]string
	if len(row.DynamicFields) > 0 {
		_ = json.Unmarshal(row.DynamicFields, &dynamicFields)
	}
	var due time.Time
	if row.DueDate != nil {
		due = *row.DueDate
	}
	return ticket.Hydrate(
		parseUUID(row.TenantID),
		row.ID,
		parseUUID(row.CustomerID),
		row.Title,
		row.Description,
		ticket.Status(row.Status),
		row.Priority,
		row.TicketType,
		row.Reference,
		row.Assignee,
		due,
		row.Closed,
		dynamicFields,
		row.CreatedAt,
		row.UpdatedAt,
	)
}

func marshalDynamicFields(fields map[string]string) []byte {
	if len(fields) == 0 {
		return []byte("{}")
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return []byte("{}")
	}
	return data
}

func parseUUID(v string) uuid.UUID {
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
