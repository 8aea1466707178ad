package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/importrun"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
	"github.com/nordwell/desk-sdk/pkg/composables"
	"github.com/nordwell/desk-sdk/pkg/constants"
	"github.com/nordwell/desk-sdk/pkg/eventbus"
	"github.com/nordwell/desk-sdk/pkg/serrors"
)

type mockLogRepo struct {
	created []*importrun.Log
	ctxErr  error
}

func (r *mockLogRepo) List(_ context.Context, _ *importrun.LogFindParams) ([]*importrun.Log, error) {
	return r.created, nil
}

func (r *mockLogRepo) Create(ctx context.Context, log *importrun.Log) error {
	r.ctxErr = ctx.Err()
	r.created = append(r.created, log)
	return nil
}

type mockGuard struct {
	err      error
	incoming int
}

func (g *mockGuard) EnsureImportCapacity(_ context.Context, _ string, incoming int) error {
	g.incoming = incoming
	return g.err
}

func runContext(t *testing.T) context.Context {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	ctx := context.WithValue(context.Background(), constants.LoggerKey, logrus.FieldLogger(logger))
	return composables.WithTenantID(ctx, uuid.New())
}

func newTestImportService(g *mockGateway, guard *mockGuard, logs *mockLogRepo, bus eventbus.EventBus, batchSize int) *ImportService {
	// A typed nil stored in an interface is not nil; wrap only real mocks.
	var guardIface CapacityGuard
	if guard != nil {
		guardIface = guard
	}
	var logsIface importrun.LogRepository
	if logs != nil {
		logsIface = logs
	}
	s := NewImportService(NewValidationService(), NewReconcileService(g), guardIface, logsIface, bus, batchSize, 0)
	s.runInTx = func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}
	return s
}

func TestRun_GuardAndLogAreOptional(t *testing.T) {
	s := newTestImportService(newMockGateway(), nil, nil, nil, 20)

	summary, err := s.Run(runContext(t), RunParams{
		Target:  mapping.TargetCustomer,
		Records: []importrun.MappedRecord{mappedRecord(map[string]any{"email": "a@b.se"})},
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Created)
}

func TestRun_CreatesUpdatesAndSkips(t *testing.T) {
	g := newMockGateway()
	g.customersByEmail["old@b.se"] = existingCustomer("id-1", map[string]any{"email": "old@b.se"}, nil)
	logs := &mockLogRepo{}
	s := newTestImportService(g, nil, logs, nil, 2)

	var percents []int
	summary, err := s.Run(runContext(t), RunParams{
		Target:   mapping.TargetCustomer,
		Filename: "customers.csv",
		Records: []importrun.MappedRecord{
			mappedRecord(map[string]any{"email": "new1@b.se"}),
			mappedRecord(map[string]any{"email": "old@b.se", "name": "Updated"}),
			mappedRecord(map[string]any{"email": "new2@b.se"}),
		},
		Options:  importrun.Options{},
		Progress: func(p int) { percents = append(percents, p) },
	})
	require.NoError(t, err)

	require.Equal(t, 3, summary.Total)
	require.Equal(t, 3, summary.Succeeded)
	require.Equal(t, 2, summary.Created)
	require.Equal(t, 1, summary.Skipped)
	require.Zero(t, summary.Failed)
	require.Equal(t, []int{50, 100}, percents)

	require.Len(t, logs.created, 1)
	require.Equal(t, "customers.csv", logs.created[0].Filename)
	require.Equal(t, 3, logs.created[0].Succeeded)
}

func TestRun_InvalidRecordCountedFailed(t *testing.T) {
	g := newMockGateway()
	s := newTestImportService(g, nil, nil, nil, 20)

	summary, err := s.Run(runContext(t), RunParams{
		Target: mapping.TargetCustomer,
		Records: []importrun.MappedRecord{
			mappedRecord(map[string]any{"email": "a@b.se"}),
			mappedRecord(map[string]any{"name": "no email"}),
		},
	})
	require.NoError(t, err)

	require.Equal(t, 2, summary.Total)
	require.Equal(t, 1, summary.Succeeded)
	require.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Errors, 1)
	require.Contains(t, summary.Errors[0], "email")
}

func TestRun_NoUsableRecordsIsFatal(t *testing.T) {
	g := newMockGateway()
	s := newTestImportService(g, nil, nil, nil, 20)

	summary, err := s.Run(runContext(t), RunParams{
		Target: mapping.TargetCustomer,
		Records: []importrun.MappedRecord{
			mappedRecord(map[string]any{"name": "no email"}),
		},
	})
	require.Nil(t, summary)
	var coded *serrors.BaseError
	require.ErrorAs(t, err, &coded)
	require.Equal(t, "IMPORT_VALIDATION_FAILED", coded.Code)
	require.Empty(t, g.created)
}

func TestRun_QuotaExceededIsFatal(t *testing.T) {
	g := newMockGateway()
	guard := &mockGuard{err: serrors.NewError("BILLING_QUOTA_EXCEEDED", "plan limit reached")}
	s := newTestImportService(g, guard, nil, nil, 20)

	summary, err := s.Run(runContext(t), RunParams{
		Target: mapping.TargetCustomer,
		Records: []importrun.MappedRecord{
			mappedRecord(map[string]any{"email": "a@b.se"}),
			mappedRecord(map[string]any{"email": "b@c.se"}),
		},
	})
	require.Nil(t, summary)
	require.ErrorIs(t, err, guard.err)
	require.Equal(t, 2, guard.incoming)
	require.Empty(t, g.created)
}

func TestRun_FailedBatchDoesNotStopTheRun(t *testing.T) {
	g := newMockGateway()
	logs := &mockLogRepo{}
	s := newTestImportService(g, nil, logs, nil, 2)

	calls := 0
	s.runInTx = func(ctx context.Context, fn func(context.Context) error) error {
		calls++
		if calls == 1 {
			return errors.New("deadlock detected")
		}
		return fn(ctx)
	}

	summary, err := s.Run(runContext(t), RunParams{
		Target: mapping.TargetCustomer,
		Records: []importrun.MappedRecord{
			mappedRecord(map[string]any{"email": "a@b.se"}),
			mappedRecord(map[string]any{"email": "b@c.se"}),
			mappedRecord(map[string]any{"email": "c@d.se"}),
		},
	})
	require.NoError(t, err)

	require.Equal(t, 2, summary.Failed)
	require.Equal(t, 1, summary.Created)
	require.Contains(t, summary.Errors[0], "batch failed")
}

func TestRun_FailedRecordDoesNotPoisonItsBatch(t *testing.T) {
	g := newMockGateway()
	g.createErrByEmail = map[string]error{
		"bad@b.se": errors.New(`duplicate key value violates unique constraint "customers_tenant_email_unique"`),
	}
	s := newTestImportService(g, nil, nil, nil, 3)

	summary, err := s.Run(runContext(t), RunParams{
		Target: mapping.TargetCustomer,
		Records: []importrun.MappedRecord{
			mappedRecord(map[string]any{"email": "a@b.se"}),
			mappedRecord(map[string]any{"email": "bad@b.se"}),
			mappedRecord(map[string]any{"email": "c@d.se"}),
		},
	})
	require.NoError(t, err)

	require.Equal(t, 2, summary.Created)
	require.Equal(t, 1, summary.Failed)
	require.Contains(t, summary.Errors[0], "create failed")
}

func TestRun_ErrorListIsBounded(t *testing.T) {
	g := newMockGateway()
	s := newTestImportService(g, nil, nil, nil, 20)
	s.maxErrors = 2

	records := []importrun.MappedRecord{mappedRecord(map[string]any{"email": "ok@b.se"})}
	for i := 0; i < 5; i++ {
		records = append(records, mappedRecord(map[string]any{"name": "no email"}))
	}

	summary, err := s.Run(runContext(t), RunParams{
		Target:  mapping.TargetCustomer,
		Records: records,
	})
	require.NoError(t, err)

	require.Equal(t, 5, summary.Failed)
	require.Len(t, summary.Errors, 3)
	require.Equal(t, "3 more errors omitted", summary.Errors[2])
}

func TestRun_CancellationBetweenBatches(t *testing.T) {
	g := newMockGateway()
	logs := &mockLogRepo{}
	s := newTestImportService(g, nil, logs, nil, 1)

	ctx, cancel := context.WithCancel(runContext(t))
	summary, err := s.Run(ctx, RunParams{
		Target: mapping.TargetCustomer,
		Records: []importrun.MappedRecord{
			mappedRecord(map[string]any{"email": "a@b.se"}),
			mappedRecord(map[string]any{"email": "b@c.se"}),
			mappedRecord(map[string]any{"email": "c@d.se"}),
		},
		Progress: func(int) { cancel() },
	})
	require.NoError(t, err)

	require.Equal(t, 1, summary.Created)
	require.Equal(t, 2, summary.Failed)
	for _, msg := range summary.Errors {
		require.Equal(t, "import canceled", msg)
	}

	// The audit row is still written, on a detached context.
	require.Len(t, logs.created, 1)
	require.NoError(t, logs.ctxErr)
}

func TestRun_PublishesImportCompleted(t *testing.T) {
	g := newMockGateway()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	bus := eventbus.NewEventPublisher(logger)

	var received []importrun.ImportCompleted
	bus.Subscribe(func(event importrun.ImportCompleted) {
		received = append(received, event)
	})

	s := newTestImportService(g, nil, nil, bus, 20)
	_, err := s.Run(runContext(t), RunParams{
		Target: mapping.TargetTicket,
		Records: []importrun.MappedRecord{
			mappedRecord(map[string]any{"customerEmail": "a@b.se", "title": "Help"}),
		},
	})
	require.NoError(t, err)

	require.Len(t, received, 1)
	require.Equal(t, mapping.TargetTicket, received[0].Target)
	require.Equal(t, 1, received[0].Summary.Created)
	require.NotEqual(t, uuid.Nil, received[0].TenantID)
}
