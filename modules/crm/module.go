package crm

import (
	"embed"

	"github.com/nordwell/desk-sdk/modules/crm/infrastructure/persistence"
	"github.com/nordwell/desk-sdk/modules/crm/presentation/controllers"
	"github.com/nordwell/desk-sdk/modules/crm/services"
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
		services.NewCustomerService(persistence.NewCustomerRepository()),
		services.NewTicketService(persistence.NewTicketRepository()),
	)
	app.RegisterControllers(
		controllers.NewCustomersAPIController(app),
		controllers.NewTicketsAPIController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "crm"
}
