package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/polite-betrayal/planner/internal/bot"
	"github.com/freeeve/polite-betrayal/planner/internal/importance"
	"github.com/freeeve/polite-betrayal/planner/internal/model"
	"github.com/freeeve/polite-betrayal/planner/internal/repository"
	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

var (
	ErrPlanNotFound    = errors.New("plan not found")
	ErrInvalidBoard    = errors.New("invalid board")
	ErrInvalidPower    = errors.New("invalid power")
	ErrInvalidStrategy = errors.New("invalid strategy")
	ErrPlanFinished    = errors.New("plan already finished")
	ErrRunNotFound     = errors.New("run not found")
	ErrServiceClosing  = errors.New("service is shutting down")
)

// progressStep is the smallest progress change pushed to the cache and
// subscribers.
const progressStep = 0.01

// maxRunsListed bounds ListRuns.
const maxRunsListed = 100

// SubmitRequest describes one search to run.
type SubmitRequest struct {
	ClientID string            `json:"-"`
	DFEN     string            `json:"dfen"`
	Power    string            `json:"power"`
	Strategy string            `json:"strategy"`
	Config   *bot.SearchConfig `json:"config,omitempty"`
}

// PlanService runs searches in the background and tracks their status.
type PlanService struct {
	m           *diplomacy.DiplomacyMap
	defaults    bot.SearchConfig
	cache       repository.PlanCache
	importances repository.ImportanceCache
	runs        repository.RunRepository
	broadcaster Broadcaster
	maxDuration time.Duration

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	closing bool
	wg      sync.WaitGroup
}

// NewPlanService creates a PlanService. importances and runs may be nil.
func NewPlanService(m *diplomacy.DiplomacyMap, defaults bot.SearchConfig, cache repository.PlanCache,
	importances repository.ImportanceCache, runs repository.RunRepository, b Broadcaster) *PlanService {
	if b == nil {
		b = NoopBroadcaster{}
	}
	return &PlanService{
		m:           m,
		defaults:    defaults,
		cache:       cache,
		importances: importances,
		runs:        runs,
		broadcaster: b,
		cancels:     make(map[string]context.CancelFunc),
	}
}

// SetMaxDuration bounds the wall time of every search. Zero means no limit.
func (s *PlanService) SetMaxDuration(d time.Duration) {
	s.maxDuration = d
}

// Submit validates req, starts its search and returns the running job.
func (s *PlanService) Submit(ctx context.Context, req SubmitRequest) (*model.PlanJob, error) {
	gs, err := diplomacy.DecodeDFEN(req.DFEN)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	if err := gs.Validate(s.m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	power, err := diplomacy.ParsePower(req.Power)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPower, err)
	}
	cfg := s.defaults
	if req.Config != nil {
		cfg = *req.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	imp, err := s.importance(ctx, cfg)
	if err != nil {
		return nil, err
	}
	strategy, err := bot.StrategyForName(req.Strategy, s.m, cfg, imp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStrategy, err)
	}

	job := &model.PlanJob{
		ID:        uuid.NewString(),
		ClientID:  req.ClientID,
		Power:     string(power),
		Phase:     string(gs.Phase),
		Strategy:  strategy.Name(),
		DFEN:      req.DFEN,
		Config:    &cfg,
		Status:    model.PlanRunning,
		CreatedAt: time.Now().UTC(),
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if s.maxDuration > 0 {
		runCtx, cancel = context.WithTimeout(context.Background(), s.maxDuration)
	} else {
		runCtx, cancel = context.WithCancel(context.Background())
	}
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		cancel()
		return nil, ErrServiceClosing
	}
	s.cancels[job.ID] = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	if err := s.cache.SetJob(ctx, job); err != nil {
		s.release(job.ID)
		s.wg.Done()
		return nil, fmt.Errorf("store plan job: %w", err)
	}

	log.Info().Str("planId", job.ID).Str("power", job.Power).Str("phase", job.Phase).
		Str("strategy", job.Strategy).Msg("Plan submitted")

	snapshot := *job
	go s.run(runCtx, job, strategy, gs, power)
	return &snapshot, nil
}

// importance returns the table for cfg, going through the cache when one
// is configured. Cache failures fall back to computing the table.
func (s *PlanService) importance(ctx context.Context, cfg bot.SearchConfig) (importance.Table, error) {
	compute := func() importance.Table {
		return importance.Compute(cfg.ImportanceDepth, s.m, importance.Normalized(cfg.NormalizeImportance))
	}
	if s.importances == nil {
		return compute(), nil
	}
	key := importance.Key(cfg.ImportanceDepth, cfg.NormalizeImportance)
	t, err := s.importances.GetImportance(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Importance cache read failed")
	}
	if t != nil {
		return t, nil
	}
	t = compute()
	if err := s.importances.SetImportance(ctx, key, t); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Importance cache write failed")
	}
	return t, nil
}

func (s *PlanService) run(ctx context.Context, job *model.PlanJob, strategy bot.Strategy, gs *diplomacy.GameState, power diplomacy.Power) {
	defer s.wg.Done()
	defer s.release(job.ID)

	last := 0.0
	progress := func(f float64) error {
		if f < 1 && f-last < progressStep {
			return nil
		}
		last = f
		if err := s.cache.SetProgress(context.Background(), job.ID, f); err != nil {
			log.Warn().Err(err).Str("planId", job.ID).Msg("Failed to store plan progress")
		}
		s.broadcaster.BroadcastPlanEvent(job.ID, EventPlanProgress, model.PlanEvent{
			Type:     EventPlanProgress,
			PlanID:   job.ID,
			Progress: f,
			Time:     time.Now().UTC(),
		})
		return nil
	}

	plan, err := bot.Start(ctx, strategy, gs, power, progress).Wait()
	s.finish(job, plan, err)
}

// finish records the outcome of a search. An interrupted search that
// still produced orders completes as aborted.
func (s *PlanService) finish(job *model.PlanJob, plan bot.Plan, err error) {
	ctx := context.Background()
	now := time.Now().UTC()
	job.FinishedAt = &now

	eventType := EventPlanCompleted
	switch {
	case err != nil && !(plan.Aborted && isInterrupt(err)):
		job.Status = model.PlanFailed
		job.Error = err.Error()
		eventType = EventPlanFailed
		log.Error().Err(err).Str("planId", job.ID).Msg("Plan failed")
	default:
		job.Status = model.PlanDone
		job.Progress = 1
		job.Plan = &plan
		log.Info().Str("planId", job.ID).Float64("score", plan.Score).
			Float64("baseline", plan.BaselineScore).Int("evaluations", plan.Evaluations).
			Bool("aborted", plan.Aborted).Dur("duration", plan.Duration).Msg("Plan completed")
		s.persist(ctx, job, plan)
	}

	if err := s.cache.SetJob(ctx, job); err != nil {
		log.Error().Err(err).Str("planId", job.ID).Msg("Failed to store finished plan")
	}
	snapshot := *job
	s.broadcaster.BroadcastPlanEvent(job.ID, eventType, model.PlanEvent{
		Type:     eventType,
		PlanID:   job.ID,
		Progress: job.Progress,
		Job:      &snapshot,
		Time:     now,
	})
}

func (s *PlanService) persist(ctx context.Context, job *model.PlanJob, plan bot.Plan) {
	if s.runs == nil {
		return
	}
	orders, err := json.Marshal(plan.Orders)
	if err != nil {
		log.Error().Err(err).Str("planId", job.ID).Msg("Failed to encode plan orders")
		return
	}
	run := &model.PlanRun{
		ID:            job.ID,
		ClientID:      job.ClientID,
		Power:         job.Power,
		Phase:         job.Phase,
		Strategy:      job.Strategy,
		DFEN:          job.DFEN,
		Orders:        orders,
		Score:         plan.Score,
		BaselineScore: plan.BaselineScore,
		Evaluations:   plan.Evaluations,
		Aborted:       plan.Aborted,
		DurationMS:    plan.Duration.Milliseconds(),
	}
	if err := s.runs.Save(ctx, run); err != nil {
		log.Error().Err(err).Str("planId", job.ID).Msg("Failed to persist plan run")
	}
}

func isInterrupt(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (s *PlanService) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
}

// Get returns the job owned by clientID.
func (s *PlanService) Get(ctx context.Context, clientID, id string) (*model.PlanJob, error) {
	job, err := s.cache.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil || job.ClientID != clientID {
		return nil, ErrPlanNotFound
	}
	return job, nil
}

// Cancel stops a running job. The job finishes with the best orders found
// so far.
func (s *PlanService) Cancel(ctx context.Context, clientID, id string) error {
	job, err := s.Get(ctx, clientID, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	cancel, ok := s.cancels[job.ID]
	s.mu.Unlock()
	if !ok {
		return ErrPlanFinished
	}
	cancel()
	log.Info().Str("planId", id).Msg("Plan cancelled")
	return nil
}

// GetRun returns one finished run from the run log.
func (s *PlanService) GetRun(ctx context.Context, id string) (*model.PlanRun, error) {
	if s.runs == nil {
		return nil, ErrRunNotFound
	}
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrRunNotFound
	}
	return run, nil
}

// ListRuns returns recently finished runs, newest first.
func (s *PlanService) ListRuns(ctx context.Context, power string, limit int) ([]model.PlanRun, error) {
	if s.runs == nil {
		return []model.PlanRun{}, nil
	}
	if power != "" {
		if _, err := diplomacy.ParsePower(power); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPower, err)
		}
	}
	if limit <= 0 || limit > maxRunsListed {
		limit = maxRunsListed
	}
	runs, err := s.runs.ListRecent(ctx, power, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []model.PlanRun{}
	}
	return runs, nil
}

// Running returns the number of searches in flight.
func (s *PlanService) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cancels)
}

// Shutdown cancels every running search and waits for them to be recorded,
// or for ctx to end.
func (s *PlanService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	for _, cancel := range s.cancels {
		cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
