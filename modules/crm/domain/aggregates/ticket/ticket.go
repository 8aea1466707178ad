package ticket

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen    Status = "open"
	StatusPending Status = "pending"
	StatusClosed  Status = "closed"
)

type Ticket struct {
	tenantID      uuid.UUID
	id            int64
	customerID    uuid.UUID
	title         string
	description   string
	status        Status
	priority      string
	ticketType    string
	reference     string
	assignee      string
	dueDate       time.Time
	closed        bool
	dynamicFields map[string]string
	createdAt     time.Time
	updatedAt     time.Time
}

func New(tenantID uuid.UUID, customerID uuid.UUID, title string) Ticket {
	return Ticket{
		tenantID:      tenantID,
		customerID:    customerID,
		title:         strings.TrimSpace(title),
		status:        StatusOpen,
		dynamicFields: map[string]string{},
	}
}

func Hydrate(
	tenantID uuid.UUID,
	id int64,
	customerID uuid.UUID,
	title string,
	description string,
	status Status,
	priority string,
	ticketType string,
	reference string,
	assignee string,
	dueDate time.Time,
	closed bool,
	dynamicFields map[string]string,
	createdAt time.Time,
	updatedAt time.Time,
) Ticket {
	if dynamicFields == nil {
		dynamicFields = map[string]string{}
	}
	if status == "" {
		status = StatusOpen
	}
	return Ticket{
		tenantID:      tenantID,
		id:            id,
		customerID:    customerID,
		title:         strings.TrimSpace(title),
		description:   description,
		status:        status,
		priority:      priority,
		ticketType:    ticketType,
		reference:     strings.TrimSpace(reference),
		assignee:      assignee,
		dueDate:       dueDate,
		closed:        closed,
		dynamicFields: dynamicFields,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (t Ticket) TenantID() uuid.UUID   { return t.tenantID }
func (t Ticket) ID() int64             { return t.id }
func (t Ticket) CustomerID() uuid.UUID { return t.customerID }
func (t Ticket) Title() string         { return t.title }
func (t Ticket) Description() string   { return t.description }
func (t Ticket) Status() Status        { return t.status }
func (t Ticket) Priority() string      { return t.priority }
func (t Ticket) TicketType() string    { return t.ticketType }
func (t Ticket) Reference() string     { return t.reference }
func (t Ticket) Assignee() string      { return t.assignee }
func (t Ticket) DueDate() time.Time    { return t.dueDate }
func (t Ticket) Closed() bool          { return t.closed }
func (t Ticket) CreatedAt() time.Time  { return t.createdAt }
func (t Ticket) UpdatedAt() time.Time  { return t.updatedAt }
func (t Ticket) IsZero() bool          { return t.id == 0 && t.title == "" }

func (t Ticket) DynamicFields() map[string]string {
	out := make(map[string]string, len(t.dynamicFields))
	maps.Copy(out, t.dynamicFields)
	return out
}
