package persistence

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/importrun"
	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
	"github.com/nordwell/desk-sdk/pkg/composables"
	"github.com/nordwell/desk-sdk/pkg/repo"
)

const importLogColumns = `id, tenant_id, target, filename, total, succeeded,
	failed, created, updated, skipped, errors, started_at, finished_at`

type ImportLogRepository struct{}

func NewImportLogRepository() importrun.LogRepository {
	return &ImportLogRepository{}
}

func (r *ImportLogRepository) List(ctx context.Context, params *importrun.LogFindParams) ([]*importrun.Log, error) {
	if params == nil {
		params = &importrun.LogFindParams{}
	}

	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	if params.Target != "" {
		where = append(where, "target = $2")
		args = append(args, string(params.Target))
	}

	query := `SELECT ` + importLogColumns + `
		FROM import_logs
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY started_at DESC, id DESC
		` + repo.FormatLimitOffset(limit, offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*importrun.Log
	for rows.Next() {
		var (
			log       importrun.Log
			tenant    uuid.UUID
			target    string
			rawErrors []byte
		)
		if err := rows.Scan(
			&log.ID,
			&tenant,
			&target,
			&log.Filename,
			&log.Total,
			&log.Succeeded,
			&log.Failed,
			&log.Created,
			&log.Updated,
			&log.Skipped,
			&rawErrors,
			&log.StartedAt,
			&log.FinishedAt,
		); err != nil {
			return nil, err
		}
		log.TenantID = tenant
		log.Target = mapping.Target(target)
		if len(rawErrors) > 0 {
			if err := json.Unmarshal(rawErrors, &log.Errors); err != nil {
				return nil, errors.Wrap(err, "unmarshal import log errors")
			}
		}
		out = append(out, &log)
	}
	return out, rows.Err()
}

func (r *ImportLogRepository) Create(ctx context.Context, log *importrun.Log) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}

	rawErrors, err := json.Marshal(log.Errors)
	if err != nil {
		return errors.Wrap(err, "marshal import log errors")
	}
	if log.Errors == nil {
		rawErrors = []byte("[]")
	}

	started := log.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	finished := log.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	return tx.QueryRow(ctx, `
		INSERT INTO import_logs (
			tenant_id, target, filename, total, succeeded, failed,
			created, updated, skipped, errors, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		tenantID,
		string(log.Target),
		log.Filename,
		log.Total,
		log.Succeeded,
		log.Failed,
		log.Created,
		log.Updated,
		log.Skipped,
		rawErrors,
		started,
		finished,
	).Scan(&log.ID)
}
