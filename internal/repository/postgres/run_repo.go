package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/polite-betrayal/planner/internal/model"
)

const runColumns = `id, client_id, power, phase, strategy, dfen, orders, score, baseline_score,
	evaluations, aborted, duration_ms, created_at`

// RunRepo implements repository.RunRepository with PostgreSQL.
type RunRepo struct {
	db *sql.DB
}

// NewRunRepo creates a new RunRepo.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Save inserts a finished run and fills in its creation time.
func (r *RunRepo) Save(ctx context.Context, run *model.PlanRun) error {
	orders := run.Orders
	if len(orders) == 0 {
		orders = []byte("[]")
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO plan_runs (id, client_id, power, phase, strategy, dfen, orders, score,
			baseline_score, evaluations, aborted, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING created_at`,
		run.ID, run.ClientID, run.Power, run.Phase, run.Strategy, run.DFEN, string(orders),
		run.Score, run.BaselineScore, run.Evaluations, run.Aborted, run.DurationMS,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("save plan run: %w", err)
	}
	return nil
}

// FindByID returns a run, nil when it does not exist.
func (r *RunRepo) FindByID(ctx context.Context, id string) (*model.PlanRun, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM plan_runs WHERE id = $1`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find plan run: %w", err)
	}
	return run, nil
}

// ListRecent returns the newest runs first. An empty power lists every power.
func (r *RunRepo) ListRecent(ctx context.Context, power string, limit int) ([]model.PlanRun, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM plan_runs
		 WHERE $1 = '' OR power = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, power, limit)
	if err != nil {
		return nil, fmt.Errorf("list plan runs: %w", err)
	}
	defer rows.Close()

	var runs []model.PlanRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*model.PlanRun, error) {
	var run model.PlanRun
	var orders []byte
	err := s.Scan(&run.ID, &run.ClientID, &run.Power, &run.Phase, &run.Strategy, &run.DFEN,
		&orders, &run.Score, &run.BaselineScore, &run.Evaluations, &run.Aborted,
		&run.DurationMS, &run.CreatedAt)
	if err != nil {
		return nil, err
	}
	run.Orders = orders
	return &run, nil
}
