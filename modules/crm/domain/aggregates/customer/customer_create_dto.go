package customer

import (
	"strings"

	"github.com/google/uuid"

	"github.com/nordwell/desk-sdk/pkg/constants"
)

type CreateDTO struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	ExternalID string `json:"external_id"`
	Address    string `json:"address"`
	City       string `json:"city"`
	Zip        string `json:"zip"`
	Country    string `json:"country"`
	Notes      string `json:"notes"`
}

func (d *CreateDTO) Normalize() {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = strings.TrimSpace(d.Phone)
	d.ExternalID = strings.TrimSpace(d.ExternalID)
}

func (d *CreateDTO) Ok() error {
	d.Normalize()
	return constants.Validate.Struct(d)
}

func (d *CreateDTO) ToEntity(tenantID uuid.UUID) Customer {
	c := New(tenantID, d.Email)
	c.name = d.Name
	c.phone = d.Phone
	c.company = d.Company
	c.externalID = d.ExternalID
	c.address = d.Address
	c.city = d.City
	c.zip = d.Zip
	c.country = d.Country
	c.notes = d.Notes
	return c
}
