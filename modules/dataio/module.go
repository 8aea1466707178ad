package dataio

import (
	"embed"

	billingservices "github.com/nordwell/desk-sdk/modules/billing/services"
	crmpersistence "github.com/nordwell/desk-sdk/modules/crm/infrastructure/persistence"
	"github.com/nordwell/desk-sdk/modules/dataio/handlers"
	"github.com/nordwell/desk-sdk/modules/dataio/infrastructure/gateway"
	"github.com/nordwell/desk-sdk/modules/dataio/infrastructure/persistence"
	"github.com/nordwell/desk-sdk/modules/dataio/presentation/controllers"
	"github.com/nordwell/desk-sdk/modules/dataio/services"
	"github.com/nordwell/desk-sdk/pkg/application"
	"github.com/nordwell/desk-sdk/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/*.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct {
}

// Register wires the import engine. Depends on crm (repositories behind the
// gateway) and billing (capacity guard), so those modules load first.
func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	app.Migrations().RegisterSchema(&migrationFiles, "infrastructure/persistence/schema")

	customers := crmpersistence.NewCustomerRepository()
	tickets := crmpersistence.NewTicketRepository()
	guard := app.Service(billingservices.PlanService{}).(*billingservices.PlanService)

	reconciler := services.NewReconcileService(
		gateway.NewCRMGateway(customers, tickets, conf.Import.GatewayTimeout),
	)

	app.RegisterServices(
		services.NewMappingService(),
		services.NewValidationService(),
		services.NewImportService(
			services.NewValidationService(),
			reconciler,
			guard,
			persistence.NewImportLogRepository(),
			app.EventBus(),
			conf.Import.BatchSize,
			conf.Import.MaxErrors,
		),
		services.NewExportService(services.NewPgxRowSource(app.Pool())),
	)
	app.RegisterControllers(
		controllers.NewImportAPIController(app),
	)
	handlers.RegisterImportEventHandlers(app)
	return nil
}

func (m *Module) Name() string {
	return "dataio"
}
