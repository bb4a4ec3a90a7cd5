package bot

import (
	"context"

	"github.com/freeeve/polite-betrayal/planner/pkg/diplomacy"
)

// Handle is a search running in its own goroutine.
type Handle struct {
	done chan struct{}
	plan Plan
	err  error
}

// Done is closed when the search has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the search finishes and returns its result.
func (h *Handle) Wait() (Plan, error) {
	<-h.done
	return h.plan, h.err
}

// Start runs s.ComputeOrders in the background. progress is called from
// the search goroutine.
func Start(ctx context.Context, s Strategy, gs *diplomacy.GameState, power diplomacy.Power, progress ProgressFunc) *Handle {
	h := &Handle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.plan, h.err = s.ComputeOrders(ctx, gs, power, progress)
	}()
	return h
}

// Start runs the planner in the background; see the package-level Start.
func (p *Planner) Start(ctx context.Context, gs *diplomacy.GameState, power diplomacy.Power, progress ProgressFunc) *Handle {
	return Start(ctx, p, gs, power, progress)
}
