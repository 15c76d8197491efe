package store

import (
	"context"

	"github.com/sells-group/dashboard-fill/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for fill run history.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, template, output string, dryRun bool) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, status model.RunStatus) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Periods and the records extracted for them
	SavePeriod(ctx context.Context, runID string, period model.PeriodResult, records []model.Record) error
	ListRecords(ctx context.Context, runID string, round int) ([]model.Record, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
