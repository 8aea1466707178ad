package services

import (
	"context"
	"strings"

	"github.com/nordwell/desk-sdk/modules/crm/domain/aggregates/ticket"
)

type TicketService struct {
	repo ticket.Repository
}

func NewTicketService(repo ticket.Repository) *TicketService {
	return &TicketService{repo: repo}
}

func (s *TicketService) GetPaginated(ctx context.Context, params *ticket.FindParams) ([]ticket.Ticket, int64, error) {
	if params != nil {
		params.Q = strings.TrimSpace(params.Q)
	}
	return s.repo.GetPaginated(ctx, params)
}

func (s *TicketService) GetByID(ctx context.Context, id int64) (ticket.Ticket, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TicketService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
