package billing

import (
	"embed"

	"github.com/nordwell/desk-sdk/modules/billing/infrastructure/persistence"
	"github.com/nordwell/desk-sdk/modules/billing/services"
	crmpersistence "github.com/nordwell/desk-sdk/modules/crm/infrastructure/persistence"
	"github.com/nordwell/desk-sdk/pkg/application"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles, "infrastructure/persistence/schema")
	app.RegisterServices(
		services.NewPlanService(
			persistence.NewPlanRepository(),
			crmpersistence.NewCustomerRepository(),
			crmpersistence.NewTicketRepository(),
		),
	)
	return nil
}

func (m *Module) Name() string {
	return "billing"
}
