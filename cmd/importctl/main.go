// importctl drives the import engine from the command line: preview a file's
// proposed mapping, run an import, or export existing data.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/nordwell/desk-sdk/modules"
	"github.com/nordwell/desk-sdk/modules/billing/domain/entities/plan"
	billingservices "github.com/nordwell/desk-sdk/modules/billing/services"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/importrun"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
	"github.com/nordwell/desk-sdk/modules/dataio/infrastructure/decode"
	"github.com/nordwell/desk-sdk/modules/dataio/services"
	"github.com/nordwell/desk-sdk/pkg/application"
	"github.com/nordwell/desk-sdk/pkg/composables"
	"github.com/nordwell/desk-sdk/pkg/configuration"
	"github.com/nordwell/desk-sdk/pkg/constants"
	"github.com/nordwell/desk-sdk/pkg/eventbus"
	"github.com/nordwell/desk-sdk/pkg/logging"
)

var (
	flagTenant  string
	flagTarget  string
	flagFormat  string
	flagMapping string
	flagOutput  string

	flagSkipExisting   bool
	flagUpdateExisting bool
	flagIncludeAll     bool
	flagBatchSize      int
)

func main() {
	root := &cobra.Command{
		Use:           "importctl",
		Short:         "Import and export customers and tickets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagTenant, "tenant", "", "tenant uuid (required)")
	root.PersistentFlags().StringVar(&flagTarget, "target", "customer", "import target: customer or ticket")

	preview := &cobra.Command{
		Use:   "preview <file>",
		Short: "Decode a file and print the proposed field mapping",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}

	run := &cobra.Command{
		Use:   "run <file>",
		Short: "Run an import and print the summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	run.Flags().BoolVar(&flagSkipExisting, "skip-existing", false, "leave matched records untouched")
	run.Flags().BoolVar(&flagUpdateExisting, "update-existing", false, "merge into matched records")
	run.Flags().BoolVar(&flagIncludeAll, "include-all", false, "keep unmapped columns as dynamic fields")
	run.Flags().IntVar(&flagBatchSize, "batch-size", 0, "records per batch (0 = configured default)")
	run.Flags().StringVar(&flagMapping, "mapping", "", "json file overriding the proposed mapping")

	export := &cobra.Command{
		Use:   "export",
		Short: "Export existing records to a file",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	export.Flags().StringVar(&flagFormat, "format", "xlsx", "output format: xlsx or csv")
	export.Flags().StringVarP(&flagOutput, "output", "o", "", "output path (default <target>-export-<date>.<format>)")

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage the tenant's subscription plan",
	}
	planCmd.AddCommand(&cobra.Command{
		Use:   "assign <code>",
		Short: "Assign a subscription plan to the tenant",
		Args:  cobra.ExactArgs(1),
		RunE:  runAssignPlan,
	})

	root.AddCommand(preview, run, export, planCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	target, ok := mapping.ParseTarget(flagTarget)
	if !ok {
		return fmt.Errorf("invalid target %q", flagTarget)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	ds, err := decode.NewDecoder().Decode(args[0], data)
	if err != nil {
		return err
	}

	mapper := services.NewMappingService()
	proposal := mapper.ProposeMapping(ds.Columns, target)
	suggestions := mapper.Suggestions(ds.Columns, proposal, target)

	fmt.Printf("%d records, %d columns\n\n", len(ds.Records), len(ds.Columns))
	for _, column := range ds.Columns {
		field := proposal[column]
		switch {
		case field != mapping.Ignored:
			fmt.Printf("  %-30s -> %s\n", column, field)
		case len(suggestions[column]) > 0:
			fmt.Printf("  %-30s    (unmapped; maybe %s?)\n", column, suggestions[column][0])
		default:
			fmt.Printf("  %-30s    (unmapped)\n", column)
		}
	}

	mapped := map[string]bool{}
	for _, field := range proposal {
		if field != mapping.Ignored {
			mapped[field] = true
		}
	}
	for _, f := range mapping.SchemaFor(target).RequiredFields() {
		if !mapped[f.Name] {
			fmt.Printf("\nwarning: required field %q is not mapped\n", f.Name)
		}
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	target, ok := mapping.ParseTarget(flagTarget)
	if !ok {
		return fmt.Errorf("invalid target %q", flagTarget)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	ds, err := decode.NewDecoder().Decode(args[0], data)
	if err != nil {
		return err
	}

	ctx, app, cleanup, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	mapper := app.Service(services.MappingService{}).(*services.MappingService)
	fm := mapper.ProposeMapping(ds.Columns, target)
	if flagMapping != "" {
		raw, err := os.ReadFile(flagMapping)
		if err != nil {
			return err
		}
		fm = mapping.FieldMapping{}
		if err := json.Unmarshal(raw, &fm); err != nil {
			return fmt.Errorf("parse mapping file: %w", err)
		}
	}

	opts := importrun.Options{
		SkipExisting:   flagSkipExisting,
		UpdateExisting: flagUpdateExisting,
		IncludeAll:     flagIncludeAll,
		BatchSize:      flagBatchSize,
	}

	importer := app.Service(services.ImportService{}).(*services.ImportService)
	summary, err := importer.Run(ctx, services.RunParams{
		Target:   target,
		Filename: args[0],
		Records:  mapper.MapRecords(ds, fm, opts.IncludeAll),
		Options:  opts,
		Progress: func(percent int) {
			fmt.Printf("\rimporting... %3d%%", percent)
		},
	})
	fmt.Println()
	if err != nil {
		return err
	}

	fmt.Printf("total %d: %d created, %d updated, %d skipped, %d failed\n",
		summary.Total, summary.Created, summary.Updated, summary.Skipped, summary.Failed)
	for _, msg := range summary.Errors {
		fmt.Println("  -", msg)
	}
	return nil
}

func runAssignPlan(cmd *cobra.Command, args []string) error {
	ctx, app, cleanup, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	plans := app.Service(billingservices.PlanService{}).(*billingservices.PlanService)
	assigned, err := composables.InTxResult(ctx, func(txCtx context.Context) (plan.Plan, error) {
		if err := plans.AssignPlan(txCtx, args[0]); err != nil {
			return plan.Plan{}, err
		}
		return plans.GetPlan(txCtx)
	})
	if err != nil {
		return err
	}

	fmt.Printf("tenant is now on the %q plan (%s)\n", assigned.Code(), assigned.Name())
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	target, ok := mapping.ParseTarget(flagTarget)
	if !ok {
		return fmt.Errorf("invalid target %q", flagTarget)
	}

	ctx, app, cleanup, err := setup(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	exporter := app.Service(services.ExportService{}).(*services.ExportService)
	data, filename, err := exporter.Export(ctx, target, services.ExportFormat(flagFormat))
	if err != nil {
		return err
	}
	if flagOutput != "" {
		filename = flagOutput
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return err
	}
	fmt.Println("wrote", filename)
	return nil
}

// setup builds the application the same way the server does, minus HTTP, and
// returns a context carrying the pool, tenant and logger.
func setup(ctx context.Context) (context.Context, application.Application, func(), error) {
	tenantID, err := uuid.Parse(flagTenant)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("--tenant must be a valid uuid: %w", err)
	}

	conf := configuration.Use()
	logger := logging.ConsoleLogger(conf.LogrusLogLevel())

	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, nil, nil, err
	}

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	if err := app.Migrations().Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	ctx = composables.WithPool(ctx, pool)
	ctx = composables.WithTenantID(ctx, tenantID)
	ctx = context.WithValue(ctx, constants.LoggerKey, logger)

	return ctx, app, func() { pool.Close(); conf.Unload() }, nil
}
