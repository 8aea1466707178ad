package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/importrun"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
	"github.com/nordwell/desk-sdk/pkg/composables"
	"github.com/nordwell/desk-sdk/pkg/eventbus"
	"github.com/nordwell/desk-sdk/pkg/metrics"
	"github.com/nordwell/desk-sdk/pkg/serrors"
)

// CapacityGuard gates a run against the tenant's plan before anything is
// submitted. Implemented by the billing module.
type CapacityGuard interface {
	EnsureImportCapacity(ctx context.Context, target string, incoming int) error
}

// RunParams carries one import run. Progress, when set, is called with a
// 0-100 percentage after every finished batch.
type RunParams struct {
	Target   mapping.Target
	Filename string
	Records  []importrun.MappedRecord
	Options  importrun.Options
	Progress func(percent int)
}

// ImportService drives a full run: validation gate, plan-quota gate, then
// sequential batches, each in its own transaction. Fatal failures (invalid
// input, quota) return an error before any submission; everything after that
// point is folded into the summary.
type ImportService struct {
	validator  *ValidationService
	reconciler *ReconcileService
	guard      CapacityGuard
	logs       importrun.LogRepository
	publisher  eventbus.EventBus
	batchSize  int
	maxErrors  int
	runInTx    func(ctx context.Context, fn func(context.Context) error) error
}

func NewImportService(
	validator *ValidationService,
	reconciler *ReconcileService,
	guard CapacityGuard,
	logs importrun.LogRepository,
	publisher eventbus.EventBus,
	batchSize int,
	maxErrors int,
) *ImportService {
	if batchSize <= 0 {
		batchSize = 20
	}
	if maxErrors <= 0 {
		maxErrors = 200
	}
	return &ImportService{
		validator:  validator,
		reconciler: reconciler,
		guard:      guard,
		logs:       logs,
		publisher:  publisher,
		batchSize:  batchSize,
		maxErrors:  maxErrors,
		runInTx:    composables.InTx,
	}
}

// errRecordFailed rolls a record's savepoint back without failing its batch.
var errRecordFailed = errors.New("record failed")

func (s *ImportService) Run(ctx context.Context, params RunParams) (*importrun.BatchSummary, error) {
	logger := composables.UseLogger(ctx).WithFields(map[string]any{
		"target":  params.Target,
		"records": len(params.Records),
	})
	started := time.Now()

	validation := s.validator.Validate(params.Target, params.Records)
	if !validation.Valid {
		return nil, serrors.NewError("IMPORT_VALIDATION_FAILED", validation.Message)
	}

	var usable []int
	for i := range params.Records {
		if validation.Usable(i) {
			usable = append(usable, i)
		}
	}

	if s.guard != nil {
		if err := s.guard.EnsureImportCapacity(ctx, string(params.Target), len(usable)); err != nil {
			return nil, err
		}
	}

	summary := &importrun.BatchSummary{Total: len(params.Records)}
	for _, i := range validation.Unusable {
		summary.Add(importrun.RecordResult{
			Index:   i,
			Outcome: importrun.OutcomeFailed,
			Err:     recordErrorMessage(validation, i),
		})
	}

	batchSize := params.Options.BatchSize
	if batchSize <= 0 {
		batchSize = s.batchSize
	}

	totalBatches := (len(usable) + batchSize - 1) / batchSize
	batchesDone := 0
	canceled := false
	for start := 0; start < len(usable); start += batchSize {
		if err := ctx.Err(); err != nil {
			// Cancellation is honored between batches; in-flight batches
			// always finish or roll back whole.
			for _, i := range usable[start:] {
				summary.Add(importrun.RecordResult{
					Index:   i,
					Outcome: importrun.OutcomeFailed,
					Err:     "import canceled",
				})
			}
			canceled = true
			break
		}

		end := min(start+batchSize, len(usable))
		batch := usable[start:end]

		results := make([]importrun.RecordResult, 0, len(batch))
		err := s.runInTx(ctx, func(txCtx context.Context) error {
			for _, i := range batch {
				// Each record gets its own savepoint: a statement failing
				// server-side must not abort the rest of the batch.
				var result importrun.RecordResult
				nestedErr := composables.InNestedTx(txCtx, func(recCtx context.Context) error {
					result = s.reconciler.Reconcile(
						recCtx, params.Target, i, params.Records[i], params.Options,
					)
					if result.Outcome == importrun.OutcomeFailed {
						return errRecordFailed
					}
					return nil
				})
				if nestedErr != nil && !errors.Is(nestedErr, errRecordFailed) {
					result = importrun.RecordResult{
						Index:   i,
						Outcome: importrun.OutcomeFailed,
						Err:     nestedErr.Error(),
					}
				}
				results = append(results, result)
			}
			return nil
		})
		if err != nil {
			// The whole batch rolled back; the run keeps going.
			logger.WithError(err).Warn("import batch failed")
			for _, i := range batch {
				summary.Add(importrun.RecordResult{
					Index:   i,
					Outcome: importrun.OutcomeFailed,
					Err:     "batch failed: " + err.Error(),
				})
			}
		} else {
			for _, r := range results {
				summary.Add(r)
			}
		}

		batchesDone++
		if params.Progress != nil {
			params.Progress(int(math.Round(100 * float64(batchesDone) / float64(totalBatches))))
		}
	}

	if len(summary.Errors) > s.maxErrors {
		omitted := len(summary.Errors) - s.maxErrors
		summary.Errors = append(
			summary.Errors[:s.maxErrors:s.maxErrors],
			fmt.Sprintf("%d more errors omitted", omitted),
		)
	}

	duration := time.Since(started)
	s.observe(params.Target, summary, duration)
	s.record(ctx, logger, params, summary, started)

	if s.publisher != nil {
		event := importrun.ImportCompleted{
			Target:   params.Target,
			Summary:  *summary,
			Duration: duration,
		}
		if tenantID, err := composables.UseTenantID(ctx); err == nil {
			event.TenantID = tenantID
		}
		s.publisher.Publish(event)
	}

	logger.WithFields(map[string]any{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"canceled":  canceled,
		"took":      duration,
	}).Info("import run finished")

	return summary, nil
}

// History returns the tenant's persisted runs, newest first.
func (s *ImportService) History(ctx context.Context, params *importrun.LogFindParams) ([]*importrun.Log, error) {
	if s.logs == nil {
		return nil, nil
	}
	return s.logs.List(ctx, params)
}

func (s *ImportService) observe(target mapping.Target, summary *importrun.BatchSummary, duration time.Duration) {
	t := string(target)
	metrics.ImportRunsTotal.WithLabelValues(t).Inc()
	metrics.ImportRunDuration.WithLabelValues(t).Observe(duration.Seconds())
	metrics.ImportRecordsTotal.WithLabelValues(t, string(importrun.OutcomeCreated)).Add(float64(summary.Created))
	metrics.ImportRecordsTotal.WithLabelValues(t, string(importrun.OutcomeUpdated)).Add(float64(summary.Updated))
	metrics.ImportRecordsTotal.WithLabelValues(t, string(importrun.OutcomeSkipped)).Add(float64(summary.Skipped))
	metrics.ImportRecordsTotal.WithLabelValues(t, string(importrun.OutcomeFailed)).Add(float64(summary.Failed))
}

// record persists the run log. Failing to write history never fails the run.
func (s *ImportService) record(
	ctx context.Context,
	logger logrus.FieldLogger,
	params RunParams,
	summary *importrun.BatchSummary,
	started time.Time,
) {
	if s.logs == nil {
		return
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return
	}
	// Canceled runs still get their history written.
	ctx = context.WithoutCancel(ctx)
	log := &importrun.Log{
		TenantID:   tenantID,
		Target:     params.Target,
		Filename:   params.Filename,
		Total:      summary.Total,
		Succeeded:  summary.Succeeded,
		Failed:     summary.Failed,
		Created:    summary.Created,
		Updated:    summary.Updated,
		Skipped:    summary.Skipped,
		Errors:     summary.Errors,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err := s.logs.Create(ctx, log); err != nil {
		logger.WithError(err).Warn("failed to persist import log")
	}
}

func recordErrorMessage(validation importrun.ValidationResult, index int) string {
	errs := validation.ErrorsForRecord(index)
	if len(errs) == 0 {
		return "validation failed"
	}
	return errs[0].Message
}
