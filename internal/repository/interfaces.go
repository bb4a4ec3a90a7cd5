package repository

import (
	"context"

	"github.com/freeeve/polite-betrayal/planner/internal/importance"
	"github.com/freeeve/polite-betrayal/planner/internal/model"
)

// PlanCache holds live plan job status (Redis).
type PlanCache interface {
	SetJob(ctx context.Context, job *model.PlanJob) error
	GetJob(ctx context.Context, id string) (*model.PlanJob, error)
	SetProgress(ctx context.Context, id string, fraction float64) error
}

// ImportanceCache stores importance tables by their key (Redis).
type ImportanceCache interface {
	GetImportance(ctx context.Context, key string) (importance.Table, error)
	SetImportance(ctx context.Context, key string, t importance.Table) error
}

// RunRepository defines finished plan persistence (Postgres).
type RunRepository interface {
	Save(ctx context.Context, run *model.PlanRun) error
	FindByID(ctx context.Context, id string) (*model.PlanRun, error)
	ListRecent(ctx context.Context, power string, limit int) ([]model.PlanRun, error)
}
