package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/nordwell/desk-sdk/modules/crm/domain/aggregates/ticket"
	"github.com/nordwell/desk-sdk/modules/crm/services"
	"github.com/nordwell/desk-sdk/pkg/application"
	"github.com/nordwell/desk-sdk/pkg/httpapi"
	"github.com/nordwell/desk-sdk/pkg/middleware"
)

type TicketsAPIController struct {
	app      application.Application
	tickets  *services.TicketService
	basePath string
}

func NewTicketsAPIController(app application.Application) application.Controller {
	return &TicketsAPIController{
		app:      app,
		tickets:  app.Service(services.TicketService{}).(*services.TicketService),
		basePath: "/crm/api/tickets",
	}
}

func (c *TicketsAPIController) Key() string {
	return c.basePath
}

func (c *TicketsAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvideTenant())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)
}

func (c *TicketsAPIController) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	status := ticket.Status(strings.TrimSpace(r.URL.Query().Get("status")))

	items, total, err := c.tickets.GetPaginated(r.Context(), &ticket.FindParams{Q: q, Status: status, Limit: limit})
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "CRM_INTERNAL", "internal error", nil)
		return
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, ticketToJSON(item))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}

func (c *TicketsAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_ID", "invalid ticket id", nil)
		return
	}
	item, err := c.tickets.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "CRM_TICKET_NOT_FOUND", "ticket not found", nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "CRM_INTERNAL", "internal error", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, ticketToJSON(item))
}

func ticketToJSON(t ticket.Ticket) map[string]any {
	out := map[string]any{
		"id":          t.ID(),
		"customer_id": t.CustomerID().String(),
		"title":       t.Title(),
		"description": t.Description(),
		"status":      string(t.Status()),
		"priority":    t.Priority(),
		"ticket_type": t.TicketType(),
		"reference":   t.Reference(),
		"assignee":    t.Assignee(),
		"closed":      t.Closed(),
	}
	if !t.DueDate().IsZero() {
		out["due_date"] = t.DueDate().Format("2006-01-02")
	}
	if dynamic := t.DynamicFields(); len(dynamic) > 0 {
		out["dynamic_fields"] = dynamic
	}
	return out
}
