package model

import (
	"encoding/json"
	"time"

	"github.com/freeeve/polite-betrayal/planner/internal/bot"
)

// PlanStatus is the lifecycle state of a plan job.
type PlanStatus string

const (
	PlanRunning PlanStatus = "running"
	PlanDone    PlanStatus = "done"
	PlanFailed  PlanStatus = "failed"
)

// PlanJob is a submitted search and, once finished, its result.
type PlanJob struct {
	ID         string            `json:"id"`
	ClientID   string            `json:"client_id"`
	Power      string            `json:"power"`
	Phase      string            `json:"phase"`
	Strategy   string            `json:"strategy"`
	DFEN       string            `json:"dfen"`
	Config     *bot.SearchConfig `json:"config,omitempty"`
	Status     PlanStatus        `json:"status"`
	Progress   float64           `json:"progress"`
	Plan       *bot.Plan         `json:"plan,omitempty"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
}

// PlanRun is the persisted record of a finished plan.
type PlanRun struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	Power         string          `json:"power"`
	Phase         string          `json:"phase"`
	Strategy      string          `json:"strategy"`
	DFEN          string          `json:"dfen"`
	Orders        json.RawMessage `json:"orders"`
	Score         float64         `json:"score"`
	BaselineScore float64         `json:"baseline_score"`
	Evaluations   int             `json:"evaluations"`
	Aborted       bool            `json:"aborted"`
	DurationMS    int64           `json:"duration_ms"`
	CreatedAt     time.Time       `json:"created_at"`
}

// PlanEvent is pushed to websocket subscribers of a plan.
type PlanEvent struct {
	Type     string    `json:"type"` // plan_progress, plan_completed, plan_failed
	PlanID   string    `json:"plan_id"`
	Progress float64   `json:"progress"`
	Job      *PlanJob  `json:"job,omitempty"`
	Time     time.Time `json:"time"`
}
