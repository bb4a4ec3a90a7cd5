package bot

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a SearchConfig is malformed.
var ErrInvalidConfig = errors.New("bot: invalid search config")

// ErrUnknownPhase is returned for boards in a phase the planner cannot
// handle.
var ErrUnknownPhase = errors.New("bot: unknown phase")

// SearchConfig tunes one planner.
type SearchConfig struct {
	// Iterations caps the annealing steps of one restart.
	Iterations int `json:"iterations"`
	// CandidatesPerUnit, when positive, sizes a restart as
	// CandidatesPerUnit^units steps, capped at Iterations.
	CandidatesPerUnit int     `json:"candidates_per_unit"`
	CoolingRate       float64 `json:"cooling_rate"`
	Restarts          int     `json:"restarts"`

	ImportanceDepth     int  `json:"importance_depth"`
	NormalizeImportance bool `json:"normalize_importance"`

	// CrossSupportWeight is the strength a support lends to another
	// power's claim.
	CrossSupportWeight float64 `json:"cross_support_weight"`
	// DistanceDiscount halves a territory's weight per step away from the
	// nearest enemy presence.
	DistanceDiscount bool `json:"distance_discount"`

	TemperatureSamples  int     `json:"temperature_samples"`
	FallbackTemperature float64 `json:"fallback_temperature"`

	// Seed fixes the random source; 0 seeds from the clock.
	Seed int64 `json:"seed"`
}

// DefaultSearchConfig returns the settings used when nothing is overridden.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Iterations:          20000,
		CandidatesPerUnit:   5,
		CoolingRate:         0.9,
		Restarts:            1,
		ImportanceDepth:     3,
		NormalizeImportance: true,
		CrossSupportWeight:  1,
		TemperatureSamples:  10,
		FallbackTemperature: 1000,
	}
}

// Validate rejects configurations a search cannot run with.
func (c SearchConfig) Validate() error {
	switch {
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	case c.CandidatesPerUnit < 0:
		return fmt.Errorf("%w: candidates per unit must not be negative, got %d", ErrInvalidConfig, c.CandidatesPerUnit)
	case !(c.CoolingRate > 0 && c.CoolingRate < 1):
		return fmt.Errorf("%w: cooling rate must be in (0,1), got %v", ErrInvalidConfig, c.CoolingRate)
	case c.Restarts <= 0:
		return fmt.Errorf("%w: restarts must be positive, got %d", ErrInvalidConfig, c.Restarts)
	case c.ImportanceDepth < 0:
		return fmt.Errorf("%w: importance depth must not be negative, got %d", ErrInvalidConfig, c.ImportanceDepth)
	case c.CrossSupportWeight < 0:
		return fmt.Errorf("%w: cross support weight must not be negative, got %v", ErrInvalidConfig, c.CrossSupportWeight)
	case c.TemperatureSamples < 0:
		return fmt.Errorf("%w: temperature samples must not be negative, got %d", ErrInvalidConfig, c.TemperatureSamples)
	case !(c.FallbackTemperature > 0):
		return fmt.Errorf("%w: fallback temperature must be positive, got %v", ErrInvalidConfig, c.FallbackTemperature)
	}
	return nil
}

// iterationsFor returns the step budget of one restart for a power with
// the given number of units.
func (c SearchConfig) iterationsFor(units int) int {
	if c.CandidatesPerUnit <= 0 {
		return c.Iterations
	}
	n := 1
	for i := 0; i < units; i++ {
		n *= c.CandidatesPerUnit
		if n >= c.Iterations {
			return c.Iterations
		}
	}
	return n
}
