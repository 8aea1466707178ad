package customer

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	tenantID      uuid.UUID
	id            uuid.UUID
	email         string
	name          string
	phone         string
	company       string
	externalID    string
	address       string
	city          string
	zip           string
	country       string
	notes         string
	vip           bool
	customerSince time.Time
	dynamicFields map[string]string
	createdAt     time.Time
	updatedAt     time.Time
}

func New(tenantID uuid.UUID, email string) Customer {
	return Customer{
		tenantID:      tenantID,
		email:         normalizeEmail(email),
		dynamicFields: map[string]string{},
	}
}

func Hydrate(
	tenantID uuid.UUID,
	id uuid.UUID,
	email string,
	name string,
	phone string,
	company string,
	externalID string,
	address string,
	city string,
	zip string,
	country string,
	notes string,
	vip bool,
	customerSince time.Time,
	dynamicFields map[string]string,
	createdAt time.Time,
	updatedAt time.Time,
) Customer {
	if dynamicFields == nil {
		dynamicFields = map[string]string{}
	}
	return Customer{
		tenantID:      tenantID,
		id:            id,
		email:         normalizeEmail(email),
		name:          strings.TrimSpace(name),
		phone:         strings.TrimSpace(phone),
		company:       company,
		externalID:    strings.TrimSpace(externalID),
		address:       address,
		city:          city,
		zip:           zip,
		country:       country,
		notes:         notes,
		vip:           vip,
		customerSince: customerSince,
		dynamicFields: dynamicFields,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (c Customer) TenantID() uuid.UUID       { return c.tenantID }
func (c Customer) ID() uuid.UUID             { return c.id }
func (c Customer) Email() string             { return c.email }
func (c Customer) Name() string              { return c.name }
func (c Customer) Phone() string             { return c.phone }
func (c Customer) Company() string           { return c.company }
func (c Customer) ExternalID() string        { return c.externalID }
func (c Customer) Address() string           { return c.address }
func (c Customer) City() string              { return c.city }
func (c Customer) Zip() string               { return c.zip }
func (c Customer) Country() string           { return c.country }
func (c Customer) Notes() string             { return c.notes }
func (c Customer) VIP() bool                 { return c.vip }
func (c Customer) CustomerSince() time.Time  { return c.customerSince }
func (c Customer) CreatedAt() time.Time      { return c.createdAt }
func (c Customer) UpdatedAt() time.Time      { return c.updatedAt }
func (c Customer) IsZero() bool              { return c.id == uuid.Nil && c.email == "" }

// DynamicFields returns a copy; mutations go through Hydrate.
func (c Customer) DynamicFields() map[string]string {
	out := make(map[string]string, len(c.dynamicFields))
	maps.Copy(out, c.dynamicFields)
	return out
}

func normalizeEmail(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
