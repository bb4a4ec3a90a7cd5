package service

import (
	"context"
	"errors"
	"sync"

	"github.com/freeeve/polite-betrayal/planner/internal/importance"
	"github.com/freeeve/polite-betrayal/planner/internal/model"
)

type mockPlanCache struct {
	mu       sync.Mutex
	jobs     map[string]model.PlanJob
	progress map[string][]float64
}

func newMockPlanCache() *mockPlanCache {
	return &mockPlanCache{
		jobs:     make(map[string]model.PlanJob),
		progress: make(map[string][]float64),
	}
}

func (m *mockPlanCache) SetJob(_ context.Context, job *model.PlanJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *mockPlanCache) GetJob(_ context.Context, id string) (*model.PlanJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	if p := m.progress[id]; len(p) > 0 && job.Status == model.PlanRunning {
		job.Progress = p[len(p)-1]
	}
	return &job, nil
}

func (m *mockPlanCache) SetProgress(_ context.Context, id string, fraction float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[id] = append(m.progress[id], fraction)
	return nil
}

func (m *mockPlanCache) progressOf(id string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.progress[id]...)
}

type mockImportanceCache struct {
	mu     sync.Mutex
	tables map[string]importance.Table
	gets   int
	sets   int
	fail   bool
}

func newMockImportanceCache() *mockImportanceCache {
	return &mockImportanceCache{tables: make(map[string]importance.Table)}
}

func (m *mockImportanceCache) GetImportance(_ context.Context, key string) (importance.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.fail {
		return nil, errors.New("cache down")
	}
	return m.tables[key], nil
}

func (m *mockImportanceCache) SetImportance(_ context.Context, key string, t importance.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.fail {
		return errors.New("cache down")
	}
	m.tables[key] = t
	return nil
}

type mockRunRepo struct {
	mu   sync.Mutex
	runs []model.PlanRun
}

func (m *mockRunRepo) Save(_ context.Context, run *model.PlanRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *mockRunRepo) FindByID(_ context.Context, id string) (*model.PlanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *mockRunRepo) ListRecent(_ context.Context, power string, limit int) ([]model.PlanRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.PlanRun
	for i := len(m.runs) - 1; i >= 0; i-- {
		if r := m.runs[i]; power == "" || r.Power == power {
			out = append(out, r)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type event struct {
	planID    string
	eventType string
	data      any
}

// recordingBroadcaster records events and signals finished plans on done.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []event
	done   chan string
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{done: make(chan string, 16)}
}

func (b *recordingBroadcaster) BroadcastPlanEvent(planID, eventType string, data any) {
	b.mu.Lock()
	b.events = append(b.events, event{planID, eventType, data})
	b.mu.Unlock()
	if eventType != EventPlanProgress {
		b.done <- planID
	}
}

func (b *recordingBroadcaster) ofType(eventType string) []event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []event
	for _, e := range b.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}
