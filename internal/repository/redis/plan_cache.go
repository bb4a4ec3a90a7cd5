package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/freeeve/polite-betrayal/planner/internal/importance"
	"github.com/freeeve/polite-betrayal/planner/internal/model"
)

// Key patterns for Redis plan state.
func jobKey(id string) string         { return "plan:" + id }
func progressKey(id string) string    { return "plan:" + id + ":progress" }
func importanceKey(key string) string { return "importance:" + key }

// SetJob stores the job JSON and drops any separately tracked progress.
func (c *Client) SetJob(ctx context.Context, job *model.PlanJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal plan job: %w", err)
	}
	_, err = c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, jobKey(job.ID), data, c.ttl)
		p.Del(ctx, progressKey(job.ID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("set plan job: %w", err)
	}
	return nil
}

// GetJob retrieves a job, nil when unknown or expired. Running jobs carry
// their latest progress.
func (c *Client) GetJob(ctx context.Context, id string) (*model.PlanJob, error) {
	data, err := c.rdb.Get(ctx, jobKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan job: %w", err)
	}
	var job model.PlanJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshal plan job: %w", err)
	}
	if job.Status != model.PlanRunning {
		return &job, nil
	}

	p, err := c.rdb.Get(ctx, progressKey(id)).Result()
	if err == redis.Nil {
		return &job, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan progress: %w", err)
	}
	if f, perr := strconv.ParseFloat(p, 64); perr == nil {
		job.Progress = f
	}
	return &job, nil
}

// SetProgress records the progress of a running job.
func (c *Client) SetProgress(ctx context.Context, id string, fraction float64) error {
	return c.rdb.Set(ctx, progressKey(id), strconv.FormatFloat(fraction, 'f', 4, 64), c.ttl).Err()
}

// GetImportance returns a cached table, nil when absent.
func (c *Client) GetImportance(ctx context.Context, key string) (importance.Table, error) {
	data, err := c.rdb.Get(ctx, importanceKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get importance: %w", err)
	}
	var t importance.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal importance: %w", err)
	}
	return t, nil
}

// SetImportance caches a table without expiry; tables depend on the map only.
func (c *Client) SetImportance(ctx context.Context, key string, t importance.Table) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal importance: %w", err)
	}
	return c.rdb.Set(ctx, importanceKey(key), data, 0).Err()
}
