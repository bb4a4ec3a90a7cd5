// Command planner computes Diplomacy orders for one or more powers from a
// DFEN position, or serves the DUI engine protocol on stdin/stdout.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/polite-betrayal/planner/internal/bot"
	"github.com/freeeve/polite-betrayal/planner/internal/importance"
	"github.com/freeeve/polite-betrayal/planner/internal/logger"
	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
	"github.com/freeeve/polite-betrayal/planner/pkg/dui"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Received shutdown signal")
		cancel()
	}()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "planner:", err)
		os.Exit(1)
	}
}

type options struct {
	power    string
	dfen     string
	strategy string
	workers  int
	timeout  time.Duration
	jsonOut  bool
	progress bool
	duiMode  bool
	verbose  bool
	search   bot.SearchConfig
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	o := options{search: bot.DefaultSearchConfig()}
	fs := flag.NewFlagSet("planner", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.power, "power", "", "power to plan for: a name, a comma list, or all")
	fs.StringVar(&o.dfen, "dfen", "", "position in DFEN (default: the 1901 opening)")
	fs.StringVar(&o.strategy, "strategy", "anneal", "strategy: "+strings.Join(bot.StrategyNames, ", "))
	fs.IntVar(&o.workers, "workers", 1, "powers planned in parallel")
	fs.DurationVar(&o.timeout, "timeout", 0, "stop each search after this long and keep its best orders (0 = none)")
	fs.BoolVar(&o.jsonOut, "json", false, "print plans as JSON")
	fs.BoolVar(&o.progress, "progress", false, "report search progress on stderr")
	fs.BoolVar(&o.duiMode, "dui", false, "serve the DUI protocol on stdin/stdout")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")

	s := &o.search
	fs.IntVar(&s.Iterations, "iterations", s.Iterations, "annealing steps per restart")
	fs.IntVar(&s.CandidatesPerUnit, "candidates", s.CandidatesPerUnit, "size restarts as candidates^units steps, capped by -iterations (0 = always -iterations)")
	fs.IntVar(&s.Restarts, "restarts", s.Restarts, "independent annealing runs")
	fs.Float64Var(&s.CoolingRate, "cooling", s.CoolingRate, "temperature multiplier per step, in (0,1)")
	fs.IntVar(&s.ImportanceDepth, "depth", s.ImportanceDepth, "importance propagation depth")
	fs.BoolVar(&s.NormalizeImportance, "normalize", s.NormalizeImportance, "normalize importance per level")
	fs.Float64Var(&s.CrossSupportWeight, "cross-weight", s.CrossSupportWeight, "strength of a support given to another power")
	fs.BoolVar(&s.DistanceDiscount, "discount", s.DistanceDiscount, "discount territory by distance to the nearest enemy")
	fs.Int64Var(&s.Seed, "seed", s.Seed, "random seed (0 = clock)")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if err := o.search.Validate(); err != nil {
		return o, err
	}
	if o.workers < 1 {
		return o, errors.New("-workers must be at least 1")
	}
	if !o.duiMode && o.power == "" {
		return o, errors.New("-power is required")
	}
	return o, nil
}

// parsePowers expands a -power value.
func parsePowers(s string) ([]diplomacy.Power, error) {
	if s == "all" {
		return diplomacy.AllPowers(), nil
	}
	var powers []diplomacy.Power
	seen := make(map[diplomacy.Power]bool)
	for _, name := range strings.Split(s, ",") {
		p, err := diplomacy.ParsePower(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			powers = append(powers, p)
		}
	}
	return powers, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	logger.InitCLI(stderr, o.verbose)
	m := diplomacy.StandardMap()

	if o.duiMode {
		s := newDUISearcher(m, o.search, o.strategy)
		session := dui.NewSession(dui.EngineID{Name: "planner", Author: "polite-betrayal"}, s, s.duiOptions()...)
		session.Logger = logger.Component("dui")
		return session.Serve(ctx, stdin, stdout)
	}

	gs := diplomacy.NewInitialState()
	if o.dfen != "" {
		if gs, err = diplomacy.DecodeDFEN(o.dfen); err != nil {
			return err
		}
		if err := gs.Validate(m); err != nil {
			return fmt.Errorf("dfen: %w", err)
		}
	}
	powers, err := parsePowers(o.power)
	if err != nil {
		return err
	}

	imp := importance.Compute(o.search.ImportanceDepth, m, importance.Normalized(o.search.NormalizeImportance))
	strategy, err := bot.StrategyForName(o.strategy, m, o.search, imp)
	if err != nil {
		return err
	}

	plans, err := planAll(ctx, o, strategy, gs, powers, stderr)
	if err != nil {
		return err
	}
	if o.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plans)
	}
	for _, p := range plans {
		printPlan(stdout, p)
	}
	return nil
}

// planAll runs one search per power on up to o.workers goroutines and
// returns the plans in the order of powers.
func planAll(ctx context.Context, o options, strategy bot.Strategy, gs *diplomacy.GameState, powers []diplomacy.Power, stderr io.Writer) ([]bot.Plan, error) {
	plans := make([]bot.Plan, len(powers))
	errs := make([]error, len(powers))
	var mu sync.Mutex // guards stderr
	var wg sync.WaitGroup
	sem := make(chan struct{}, o.workers)

	for i, power := range powers {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var searchCtx context.Context
			var cancel context.CancelFunc
			if o.timeout > 0 {
				searchCtx, cancel = context.WithTimeout(ctx, o.timeout)
			} else {
				searchCtx, cancel = context.WithCancel(ctx)
			}
			defer cancel()

			var progress bot.ProgressFunc
			if o.progress {
				last := -1
				progress = func(f float64) error {
					if p := int(f * 10); p > last {
						last = p
						mu.Lock()
						fmt.Fprintf(stderr, "%s %3d%%\n", power, p*10)
						mu.Unlock()
					}
					return nil
				}
			}

			plan, err := bot.Start(searchCtx, strategy, gs, power, progress).Wait()
			if err != nil && plan.Aborted && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				err = nil
			}
			plans[i], errs[i] = plan, err
			log.Debug().Str("power", string(power)).Int("evaluations", plan.Evaluations).
				Dur("duration", plan.Duration).Msg("Power planned")
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return plans, nil
}

func printPlan(w io.Writer, p bot.Plan) {
	status := ""
	if p.Aborted {
		status = " (stopped early)"
	}
	fmt.Fprintf(w, "%s %s [%s]: score %.3f, baseline %.3f, %d evaluations in %s%s\n",
		p.Power, p.Phase, p.Strategy, p.Score, p.BaselineScore, p.Evaluations,
		p.Duration.Round(time.Millisecond), status)
	if len(p.Orders) == 0 {
		fmt.Fprintln(w, "  (no orders)")
	}
	for _, o := range p.Orders {
		fmt.Fprintf(w, "  %s\n", o.Describe())
	}
}
