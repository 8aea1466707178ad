package models

import "time"

type Customer struct {
	ID            string
	TenantID      string
	Email         string
	Name          string
	Phone         string
	Company       string
	ExternalID    string
	Address       string
	City          string
	Zip           string
	Country       string
	Notes         string
	VIP           bool
	CustomerSince *time.Time
	DynamicFields []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Ticket struct {
	ID            int64
	TenantID      string
	CustomerID    string
	Title         string
	Description   string
	Status        string
	Priority      string
	TicketType    string
	Reference     string
	Assignee      string
	DueDate       *time.Time
	Closed        bool
	DynamicFields []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
