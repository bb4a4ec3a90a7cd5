// Package anneal is a small simulated-annealing engine. It knows nothing
// about the game: callers supply a neighbour function and an energy to
// minimize.
package anneal

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("anneal: invalid config")

// Rand is the random source used for acceptance draws. *rand.Rand
// satisfies it.
type Rand interface {
	Float64() float64
}

// ProgressFunc receives the fraction of iterations done before each step.
// Returning an error stops the run; the best state so far is kept.
type ProgressFunc func(fraction float64) error

// Config parameterizes one annealing run over states of type S.
type Config[S any] struct {
	Iterations         int
	CoolingRate        float64 // multiplied into the temperature after every step
	InitialTemperature float64

	// Neighbor returns a candidate next to s, or false when s has none.
	Neighbor func(s S) (S, bool)
	// Energy is minimized.
	Energy func(s S) float64
}

// Validate reports malformed parameters.
func (c Config[S]) Validate() error {
	switch {
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	case !(c.CoolingRate > 0 && c.CoolingRate < 1):
		return fmt.Errorf("%w: cooling rate must be in (0,1), got %v", ErrInvalidConfig, c.CoolingRate)
	case !(c.InitialTemperature > 0):
		return fmt.Errorf("%w: initial temperature must be positive, got %v", ErrInvalidConfig, c.InitialTemperature)
	case c.Neighbor == nil || c.Energy == nil:
		return fmt.Errorf("%w: neighbor and energy are required", ErrInvalidConfig)
	}
	return nil
}

// Result is the outcome of a run.
type Result[S any] struct {
	Best     S
	Energy   float64
	Steps    int // neighbour candidates evaluated
	Accepted int // candidates that became the current state
	Aborted  bool
}

// Optimizer runs Config against a random source.
type Optimizer[S any] struct {
	cfg Config[S]
	rng Rand
}

// Option configures an Optimizer.
type Option func(*options)

type options struct {
	rng Rand
}

// WithRand sets the acceptance source.
func WithRand(r Rand) Option {
	return func(o *options) { o.rng = r }
}

// New returns an optimizer for cfg. The config is not validated here.
func New[S any](cfg Config[S], opts ...Option) *Optimizer[S] {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Optimizer[S]{cfg: cfg, rng: o.rng}
}

// Optimize anneals from seed and returns the lowest-energy state seen.
func (o *Optimizer[S]) Optimize(seed S, progress ProgressFunc) Result[S] {
	cur := seed
	curE := o.cfg.Energy(cur)
	res := Result[S]{Best: cur, Energy: curE}
	temp := o.cfg.InitialTemperature

	for i := 0; i < o.cfg.Iterations; i++ {
		if progress != nil {
			if err := progress(float64(i) / float64(o.cfg.Iterations)); err != nil {
				res.Aborted = true
				return res
			}
		}
		next, ok := o.cfg.Neighbor(cur)
		if !ok {
			break
		}
		res.Steps++
		nextE := o.cfg.Energy(next)
		if nextE < res.Energy {
			res.Best, res.Energy = next, nextE
		}
		if o.accept(curE, nextE, temp) {
			cur, curE = next, nextE
			res.Accepted++
		}
		temp *= o.cfg.CoolingRate
	}
	return res
}

// accept draws from the source only for uphill moves.
func (o *Optimizer[S]) accept(cur, next, temp float64) bool {
	if next <= cur {
		return true
	}
	return o.rng.Float64() < math.Exp((cur-next)/temp)
}
