package importrun

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nordwell/desk-sdk/modules/dataio/domain/entities/mapping"
)

// Log is one persisted import run, kept for the tenant's import history.
type Log struct {
	ID         int64
	TenantID   uuid.UUID
	Target     mapping.Target
	Filename   string
	Total      int
	Succeeded  int
	Failed     int
	Created    int
	Updated    int
	Skipped    int
	Errors     []string
	StartedAt  time.Time
	FinishedAt time.Time
}

type LogFindParams struct {
	Target mapping.Target
	Limit  int
	Offset int
}

type LogRepository interface {
	List(ctx context.Context, params *LogFindParams) ([]*Log, error)
	Create(ctx context.Context, log *Log) error
}
