package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nordwell/desk-sdk/modules/crm/domain/aggregates/customer"
	"github.com/nordwell/desk-sdk/modules/crm/services"
	"github.com/nordwell/desk-sdk/pkg/application"
	"github.com/nordwell/desk-sdk/pkg/httpapi"
	"github.com/nordwell/desk-sdk/pkg/middleware"
)

type CustomersAPIController struct {
	app       application.Application
	customers *services.CustomerService
	basePath  string
}

func NewCustomersAPIController(app application.Application) application.Controller {
	return &CustomersAPIController{
		app:       app,
		customers: app.Service(services.CustomerService{}).(*services.CustomerService),
		basePath:  "/crm/api/customers",
	}
}

func (c *CustomersAPIController) Key() string {
	return c.basePath
}

func (c *CustomersAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.ProvideTenant())
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Get).Methods(http.MethodGet)

	writeRouter := r.PathPrefix(c.basePath).Subrouter()
	writeRouter.Use(middleware.ProvideTenant(), middleware.WithTransaction())
	writeRouter.HandleFunc("", c.Create).Methods(http.MethodPost)
}

func (c *CustomersAPIController) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	offset := 0
	if v := strings.TrimSpace(r.URL.Query().Get("offset")); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))

	items, total, err := c.customers.GetPaginated(r.Context(), &customer.FindParams{Q: q, Limit: limit, Offset: offset})
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "CRM_INTERNAL", "internal error", nil)
		return
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, customerToJSON(item))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"items": out,
		"total": total,
	})
}

func (c *CustomersAPIController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_ID", "invalid customer id", nil)
		return
	}
	item, err := c.customers.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "CRM_CUSTOMER_NOT_FOUND", "customer not found", nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "CRM_INTERNAL", "internal error", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, customerToJSON(item))
}

func (c *CustomersAPIController) Create(w http.ResponseWriter, r *http.Request) {
	var dto customer.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "CRM_INVALID_JSON", "invalid json", nil)
		return
	}

	created, err := c.customers.Create(r.Context(), &dto)
	if err != nil {
		if errors.Is(err, customer.ErrEmailTaken) {
			_ = httpapi.WriteError(w, http.StatusConflict, "CRM_EMAIL_TAKEN", "customer email already exists", nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusUnprocessableEntity, "CRM_VALIDATION_FAILED", err.Error(), nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, customerToJSON(created))
}

func customerToJSON(c customer.Customer) map[string]any {
	out := map[string]any{
		"id":          c.ID().String(),
		"email":       c.Email(),
		"name":        c.Name(),
		"phone":       c.Phone(),
		"company":     c.Company(),
		"external_id": c.ExternalID(),
		"address":     c.Address(),
		"city":        c.City(),
		"zip":         c.Zip(),
		"country":     c.Country(),
		"notes":       c.Notes(),
		"vip":         c.VIP(),
	}
	if !c.CustomerSince().IsZero() {
		out["customer_since"] = c.CustomerSince().Format("2006-01-02")
	}
	if dynamic := c.DynamicFields(); len(dynamic) > 0 {
		out["dynamic_fields"] = dynamic
	}
	return out
}
