package main

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/freeeve/polite-betrayal/planner/internal/bot"
	"github.com/freeeve/polite-betrayal/planner/internal/importance"
	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
	"github.com/freeeve/polite-betrayal/planner/pkg/dui"
)

// duiSearcher answers DUI go commands with the planner.
type duiSearcher struct {
	m *diplomacy.DiplomacyMap

	mu       sync.Mutex
	cfg      bot.SearchConfig
	strategy string
	tables   map[string]importance.Table
}

func newDUISearcher(m *diplomacy.DiplomacyMap, cfg bot.SearchConfig, strategy string) *duiSearcher {
	return &duiSearcher{m: m, cfg: cfg, strategy: strategy, tables: make(map[string]importance.Table)}
}

// duiOptions advertises the settable options with the current values as
// defaults.
func (d *duiSearcher) duiOptions() []dui.EngineOption {
	d.mu.Lock()
	defer d.mu.Unlock()
	return []dui.EngineOption{
		{Name: "Strategy", Type: "combo", Default: d.strategy, Vars: bot.StrategyNames},
		{Name: "Iterations", Type: "spin", Default: strconv.Itoa(d.cfg.Iterations), Min: "1", Max: "100000000"},
		{Name: "Restarts", Type: "spin", Default: strconv.Itoa(d.cfg.Restarts), Min: "1", Max: "1000"},
		{Name: "CoolingRate", Type: "string", Default: strconv.FormatFloat(d.cfg.CoolingRate, 'g', -1, 64)},
		{Name: "ImportanceDepth", Type: "spin", Default: strconv.Itoa(d.cfg.ImportanceDepth), Min: "0", Max: "10"},
		{Name: "Seed", Type: "string", Default: strconv.FormatInt(d.cfg.Seed, 10)},
	}
}

// SetOption applies one setoption command. Rejected values leave the
// configuration unchanged.
func (d *duiSearcher) SetOption(name, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg := d.cfg
	var err error
	switch strings.ToLower(name) {
	case "strategy":
		if !slices.Contains(bot.StrategyNames, value) {
			return fmt.Errorf("unknown strategy %q", value)
		}
		d.strategy = value
		return nil
	case "iterations":
		cfg.Iterations, err = strconv.Atoi(value)
	case "restarts":
		cfg.Restarts, err = strconv.Atoi(value)
	case "coolingrate":
		cfg.CoolingRate, err = strconv.ParseFloat(value, 64)
	case "importancedepth":
		cfg.ImportanceDepth, err = strconv.Atoi(value)
	case "seed":
		cfg.Seed, err = strconv.ParseInt(value, 10, 64)
	default:
		return fmt.Errorf("unknown option %q", name)
	}
	if err != nil {
		return fmt.Errorf("option %s: bad value %q", name, value)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.cfg = cfg
	return nil
}

// setup snapshots the configuration for one search. Nodes caps the
// iterations of each restart.
func (d *duiSearcher) setup(params dui.GoParams) (bot.Strategy, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg := d.cfg
	if params.Nodes > 0 {
		cfg.Iterations = params.Nodes
	}
	key := importance.Key(cfg.ImportanceDepth, cfg.NormalizeImportance)
	imp, ok := d.tables[key]
	if !ok {
		imp = importance.Compute(cfg.ImportanceDepth, d.m, importance.Normalized(cfg.NormalizeImportance))
		d.tables[key] = imp
	}
	return bot.StrategyForName(d.strategy, d.m, cfg, imp)
}

// Search plans req and returns the orders joined by " ; ". A stopped search
// still returns its best orders.
func (d *duiSearcher) Search(ctx context.Context, req dui.Request, info func(dui.Info)) (string, error) {
	gs, err := diplomacy.DecodeDFEN(req.Position)
	if err != nil {
		return "", err
	}
	if err := gs.Validate(d.m); err != nil {
		return "", fmt.Errorf("position: %w", err)
	}
	power, err := diplomacy.ParsePower(req.Power)
	if err != nil {
		return "", err
	}
	strategy, err := d.setup(req.Params)
	if err != nil {
		return "", err
	}

	start := time.Now()
	lastPercent := -1
	plan, err := strategy.ComputeOrders(ctx, gs, power, func(f float64) error {
		if p := int(f * 100); p > lastPercent {
			lastPercent = p
			info(dui.Info{Progress: p, Time: int(time.Since(start).Milliseconds())})
		}
		return nil
	})
	if len(plan.Orders) == 0 && err != nil {
		return "", err
	}

	orders := formatOrders(plan.Orders)
	elapsed := time.Since(start)
	final := dui.Info{
		Nodes:    plan.Evaluations,
		Time:     int(elapsed.Milliseconds()),
		Score:    centiScore(plan.Score),
		Progress: 100,
		PV:       orders,
	}
	if s := elapsed.Seconds(); s > 0 {
		final.NPS = int(float64(plan.Evaluations) / s)
	}
	info(final)
	return orders, err
}

func formatOrders(orders []diplomacy.Order) string {
	parts := make([]string, len(orders))
	for i, o := range orders {
		parts[i] = o.Describe()
	}
	return strings.Join(parts, " ; ")
}

// centiScore reports a score in hundredths, rounded.
func centiScore(score float64) int {
	return int(math.Round(score * 100))
}
