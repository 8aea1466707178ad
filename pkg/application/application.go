package application

import (
	"context"
	"embed"
	"fmt"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/nordwell/desk-sdk/pkg/eventbus"
)

// Controller is registered on the root router by its module.
type Controller interface {
	Key() string
	Register(r *mux.Router)
}

// Module wires a business area into the application.
type Module interface {
	Name() string
	Register(app Application) error
}

type Application interface {
	Pool() *pgxpool.Pool
	EventBus() eventbus.EventBus
	Logger() *logrus.Logger

	RegisterServices(services ...any)
	// Service returns the registered service matching the sample's type.
	// Panics when the service is missing, which is a wiring bug.
	Service(sample any) any

	RegisterControllers(controllers ...Controller)
	Controllers() []Controller

	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	Middleware() []mux.MiddlewareFunc

	Migrations() *MigrationRegistry
}

type ApplicationOptions struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
	Logger   *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	return &application{
		pool:       opts.Pool,
		eventBus:   opts.EventBus,
		logger:     opts.Logger,
		services:   map[reflect.Type]any{},
		migrations: &MigrationRegistry{},
	}
}

type application struct {
	pool        *pgxpool.Pool
	eventBus    eventbus.EventBus
	logger      *logrus.Logger
	services    map[reflect.Type]any
	controllers []Controller
	middleware  []mux.MiddlewareFunc
	migrations  *MigrationRegistry
}

func (a *application) Pool() *pgxpool.Pool            { return a.pool }
func (a *application) EventBus() eventbus.EventBus    { return a.eventBus }
func (a *application) Logger() *logrus.Logger         { return a.logger }
func (a *application) Migrations() *MigrationRegistry { return a.migrations }

func (a *application) RegisterServices(services ...any) {
	for _, service := range services {
		a.services[reflect.TypeOf(service).Elem()] = service
	}
}

func (a *application) Service(sample any) any {
	service, ok := a.services[reflect.TypeOf(sample)]
	if !ok {
		panic(fmt.Sprintf("service %s is not registered", reflect.TypeOf(sample).Name()))
	}
	return service
}

func (a *application) RegisterControllers(controllers ...Controller) {
	a.controllers = append(a.controllers, controllers...)
}

func (a *application) Controllers() []Controller {
	return a.controllers
}

func (a *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	a.middleware = append(a.middleware, middleware...)
}

func (a *application) Middleware() []mux.MiddlewareFunc {
	return a.middleware
}

// MigrationRegistry collects embedded goose migrations from modules and
// applies them in registration order. Version numbers must be unique across
// modules since they share one goose version table.
type MigrationRegistry struct {
	schemas []moduleSchema
}

type moduleSchema struct {
	fsys *embed.FS
	dir  string
}

func (m *MigrationRegistry) RegisterSchema(fsys *embed.FS, dir string) {
	m.schemas = append(m.schemas, moduleSchema{fsys: fsys, dir: dir})
}

// Schemas returns the registered migration directories in order.
func (m *MigrationRegistry) Schemas() []string {
	dirs := make([]string, 0, len(m.schemas))
	for _, schema := range m.schemas {
		dirs = append(dirs, schema.dir)
	}
	return dirs
}

func (m *MigrationRegistry) Apply(ctx context.Context, pool *pgxpool.Pool) error {
	if len(m.schemas) == 0 {
		return nil
	}

	// goose wants database/sql; closing this DB releases its connections back
	// to the pool without closing the pool itself.
	db := stdlib.OpenDBFromPool(pool)
	defer func() { _ = db.Close() }()

	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	defer goose.SetBaseFS(nil)
	for _, schema := range m.schemas {
		goose.SetBaseFS(schema.fsys)
		if err := goose.UpContext(ctx, db, schema.dir); err != nil {
			return fmt.Errorf("apply migrations in %s: %w", schema.dir, err)
		}
	}
	return nil
}
