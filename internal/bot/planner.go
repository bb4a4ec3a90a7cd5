package bot

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/freeeve/polite-betrayal/planner/internal/anneal"
	"github.com/freeeve/polite-betrayal/planner/internal/importance"
	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

// ProgressFunc receives the fraction of a search done, in [0,1]. Returning
// an error stops the search; the best orders found so far are kept.
type ProgressFunc func(fraction float64) error

// Plan is the outcome of one search.
type Plan struct {
	Strategy      string              `json:"strategy"`
	Power         diplomacy.Power     `json:"power"`
	Phase         diplomacy.PhaseType `json:"phase"`
	Orders        []diplomacy.Order   `json:"orders"`
	Score         float64             `json:"score"`
	BaselineScore float64             `json:"baseline_score"`
	Evaluations   int                 `json:"evaluations"`
	Aborted       bool                `json:"aborted,omitempty"`
	Duration      time.Duration       `json:"duration"`
}

// Planner picks orders for one power by searching over order assignments.
// A Planner holds only read-only tables and may serve concurrent searches.
type Planner struct {
	name    string
	m       *diplomacy.DiplomacyMap
	cfg     SearchConfig
	imp     importance.Table
	factory EvaluatorFactory
	log     zerolog.Logger
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

// WithImportance supplies a precomputed importance table.
func WithImportance(t importance.Table) PlannerOption {
	return func(p *Planner) { p.imp = t }
}

// WithEvaluator replaces the rule-based evaluator. name is reported as the
// plan's strategy.
func WithEvaluator(name string, f EvaluatorFactory) PlannerOption {
	return func(p *Planner) {
		p.name = name
		p.factory = f
	}
}

// WithLogger sets the planner's logger. The default discards everything.
func WithLogger(l zerolog.Logger) PlannerOption {
	return func(p *Planner) { p.log = l }
}

// NewPlanner returns a planner searching m with cfg.
func NewPlanner(m *diplomacy.DiplomacyMap, cfg SearchConfig, opts ...PlannerOption) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Planner{name: "anneal", m: m, cfg: cfg, log: zerolog.Nop()}
	for _, fn := range opts {
		fn(p)
	}
	if p.imp == nil {
		p.imp = importance.Compute(cfg.ImportanceDepth, m, importance.Normalized(cfg.NormalizeImportance))
	}
	if p.factory == nil {
		p.factory = RuleBased(m, p.imp, EvalOptions{
			CrossSupportWeight: cfg.CrossSupportWeight,
			DistanceDiscount:   cfg.DistanceDiscount,
		})
	}
	return p, nil
}

// Name returns the strategy name reported in plans.
func (p *Planner) Name() string { return p.name }

// Importance returns the table the planner scores territory with.
func (p *Planner) Importance() importance.Table { return p.imp }

// search is the state of one ComputeOrders call.
type search struct {
	gs       *diplomacy.GameState
	power    diplomacy.Power
	eval     Evaluator
	evals    int
	rng      *rand.Rand
	report   func(float64) error
	abortErr error
}

func (s *search) score(orders []diplomacy.Order) float64 {
	s.evals++
	return s.eval(orders)
}

// checkpoint reports progress and records why a search stopped.
func (s *search) checkpoint(f float64) error {
	err := s.report(f)
	if err != nil && s.abortErr == nil {
		s.abortErr = err
	}
	return err
}

// ComputeOrders searches gs for the best orders of power in the board's
// phase. When progress or ctx stops the search, the plan holds the best
// orders found so far and has Aborted set; a cancelled ctx is also
// returned as the error.
func (p *Planner) ComputeOrders(ctx context.Context, gs *diplomacy.GameState, power diplomacy.Power, progress ProgressFunc) (Plan, error) {
	start := time.Now()
	s := &search{
		gs:    gs,
		power: power,
		eval:  p.factory(gs, power),
		rng:   newRng(p.cfg.Seed),
		report: func(f float64) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if progress != nil {
				return progress(f)
			}
			return nil
		},
	}

	plan := Plan{Strategy: p.name, Power: power, Phase: gs.Phase}
	switch gs.Phase {
	case diplomacy.PhaseMovement:
		p.movement(s, &plan)
	case diplomacy.PhaseRetreat:
		p.retreat(s, &plan)
	case diplomacy.PhaseBuild:
		p.build(s, &plan)
	default:
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPhase, gs.Phase)
	}
	if plan.Orders == nil {
		plan.Orders = []diplomacy.Order{}
	}
	plan.Evaluations = s.evals
	plan.Aborted = s.abortErr != nil
	plan.Duration = time.Since(start)

	p.log.Info().
		Str("strategy", p.name).
		Str("power", string(power)).
		Str("phase", string(gs.Phase)).
		Float64("score", plan.Score).
		Int("evaluations", plan.Evaluations).
		Bool("aborted", plan.Aborted).
		Dur("duration", plan.Duration).
		Msg("Plan computed")

	if s.abortErr != nil && ctx.Err() != nil {
		return plan, ctx.Err()
	}
	return plan, nil
}

func holds(units []diplomacy.Unit) []diplomacy.Order {
	orders := make([]diplomacy.Order, len(units))
	for i, u := range units {
		orders[i] = diplomacy.HoldOrder(u)
	}
	return orders
}

func (p *Planner) movement(s *search, plan *Plan) {
	units := s.gs.UnitsOf(s.power)
	baseline := holds(units)
	baseScore := s.score(baseline)
	plan.Orders, plan.Score, plan.BaselineScore = baseline, baseScore, baseScore
	if len(units) == 0 {
		s.checkpoint(1)
		return
	}

	gen := newNeighbors(s.gs, s.power, p.m, s.rng)
	temp := p.initialTemperature(s, gen, baseline, baseScore)
	iterations := p.cfg.iterationsFor(len(units))

	cfg := anneal.Config[[]diplomacy.Order]{
		Iterations:         iterations,
		CoolingRate:        p.cfg.CoolingRate,
		InitialTemperature: temp,
		Neighbor:           gen.Next,
		Energy:             func(o []diplomacy.Order) float64 { return -s.score(o) },
	}
	opt := anneal.New(cfg, anneal.WithRand(s.rng))
	restarts := p.cfg.Restarts
	for r := 0; r < restarts; r++ {
		res := opt.Optimize(baseline, func(f float64) error {
			return s.checkpoint((float64(r) + f) / float64(restarts))
		})
		if -res.Energy > plan.Score {
			plan.Orders, plan.Score = res.Best, -res.Energy
		}
		p.log.Debug().
			Str("power", string(s.power)).
			Int("restart", r).
			Float64("temperature", temp).
			Int("steps", res.Steps).
			Int("accepted", res.Accepted).
			Float64("score", -res.Energy).
			Msg("Restart finished")
		if res.Aborted {
			return
		}
	}
	s.checkpoint(1)
}

// initialTemperature makes an average sampled uphill step from the
// baseline accepted with probability one half.
func (p *Planner) initialTemperature(s *search, gen *neighbors, baseline []diplomacy.Order, baseScore float64) float64 {
	total, n := 0.0, 0
	for i := 0; i < p.cfg.TemperatureSamples; i++ {
		next, ok := gen.Next(baseline)
		if !ok {
			break
		}
		total += math.Abs(s.score(next) - baseScore)
		n++
	}
	if n == 0 {
		return p.cfg.FallbackTemperature
	}
	mean := total / float64(n)
	if !(mean > 0) {
		return p.cfg.FallbackTemperature
	}
	return mean / math.Ln2
}

func (p *Planner) retreat(s *search, plan *Plan) {
	options := retreatOptions(s.gs, s.power, p.m)
	if s.checkpoint(0) != nil {
		for _, opts := range options {
			plan.Orders = append(plan.Orders, opts[0])
		}
		return
	}
	inc := newIncumbent(s.score)
	product(options, inc)
	plan.Orders, plan.Score = inc.best, inc.score
	plan.BaselineScore = inc.score
	if len(options) > 0 {
		first := make([]diplomacy.Order, len(options))
		for i, opts := range options {
			first[i] = opts[0]
		}
		plan.BaselineScore = s.eval(first)
	}
	s.checkpoint(1)
}

func (p *Planner) build(s *search, plan *Plan) {
	n := s.gs.BuildCount(s.power)
	var fallback []diplomacy.Order
	units := s.gs.UnitsOf(s.power)
	if n < 0 {
		for _, u := range units[:min(-n, len(units))] {
			fallback = append(fallback, diplomacy.DisbandOrder(u))
		}
	}
	plan.Orders = fallback
	if s.checkpoint(0) != nil {
		return
	}

	inc := newIncumbent(s.score)
	switch {
	case n > 0:
		inc.offer(nil)
		searchBuilds(buildSites(s.gs, s.power, p.m), n, inc)
	case n < 0:
		searchDisbands(units, -n, inc)
	default:
		inc.offer(nil)
	}
	plan.Orders, plan.Score = inc.best, inc.score
	plan.BaselineScore = s.eval(fallback)
	s.checkpoint(1)
}
