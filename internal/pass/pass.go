// Package pass implements the dependency-driven optimization pass
// framework and the standard optimization pipeline that runs on top of it,
// generalizing the teacher's OptimizationPass/OptimizationPipeline pair
// (internal/ir/optimizations.go) to the requires/preserves/destroys/applies
// scheduling contract of spec.md §4.2.
package pass

import (
	"fmt"

	"sonobackend/internal/errors"
	"sonobackend/internal/ir"
)

// ID identifies a pass by its class, not its instance, so two distinct
// *FooPass values compare equal as scheduler state (spec.md §9 "Pass
// requirements": represent pass identity as a value type with equality on
// the pass class).
type ID string

// Pass is one optimization or analysis step in the pipeline.
type Pass interface {
	// ID is this pass's identity for the requires/preserves/destroys sets.
	ID() ID
	// Requires returns the set of passes that must have last run and still
	// be active before this pass may run.
	Requires() []ID
	// Preserves returns the set of passes that remain valid after this one
	// runs. A nil/empty slice with PreservesNone()==true means "invalidate
	// everything not explicitly in Applies".
	Preserves() []ID
	// PreservesNone reports whether Preserves() should be read as "nothing
	// survives" rather than "nothing declared, so everything survives".
	PreservesNone() bool
	// Destroys returns passes explicitly invalidated by running this one.
	Destroys() []ID
	// Applies returns what this pass establishes as now-valid (usually just
	// itself).
	Applies() []ID
	// Run executes the pass against the CFG, returning whether it changed
	// anything.
	Run(cfg *ir.CFG) bool
	// Description is a short human-readable summary for progress logging.
	Description() string
}

// Base provides the common requires/preserves/destroys/applies plumbing so
// concrete passes only need to implement ID, Run, and Description.
type Base struct {
	Req      []ID
	Pres     []ID
	PresNone bool
	Destr    []ID
	App      []ID
}

func (b Base) Requires() []ID      { return b.Req }
func (b Base) Preserves() []ID     { return b.Pres }
func (b Base) PreservesNone() bool { return b.PresNone }
func (b Base) Destroys() []ID      { return b.Destr }
func (b Base) Applies() []ID       { return b.App }

// Self builds an Applies set containing only id — the common case.
func Self(id ID) []ID { return []ID{id} }

func idSet(ids []ID) map[ID]bool {
	s := make(map[ID]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// Watchdog bounds how many dequeues RunPasses tolerates without making
// progress before declaring the requirement graph unsatisfiable.
const Watchdog = 99

// ErrUnsatisfiable is returned when the scheduler watchdog trips.
type ErrUnsatisfiable struct {
	Pending []ID
}

func (e *ErrUnsatisfiable) Error() string {
	return fmt.Sprintf("unsatisfiable pass requirements, pending: %v", e.Pending)
}

// RunPasses schedules and runs passes against cfg, honoring each pass's
// requires/preserves/destroys/applies declarations (spec.md §4.2). It
// returns an error only if the watchdog trips.
func RunPasses(cfg *ir.CFG, passes []Pass) error {
	active := map[ID]bool{}
	byID := map[ID]Pass{}
	for _, p := range passes {
		byID[p.ID()] = p
	}

	queue := make([]Pass, len(passes))
	copy(queue, passes)

	dequeuesWithoutProgress := 0
	for len(queue) > 0 {
		if dequeuesWithoutProgress > Watchdog {
			pending := make([]ID, len(queue))
			for i, p := range queue {
				pending[i] = p.ID()
			}
			return &ErrUnsatisfiable{Pending: pending}
		}

		p := queue[0]
		queue = queue[1:]

		missing := missingRequirements(p, active)
		if len(missing) > 0 {
			var prepend []Pass
			for _, id := range missing {
				if rp, ok := byID[id]; ok {
					prepend = append(prepend, rp)
				}
			}
			prepend = append(prepend, p)
			queue = append(prepend, queue...)
			dequeuesWithoutProgress++
			continue
		}

		p.Run(cfg)

		if p.PreservesNone() {
			active = map[ID]bool{}
		} else if len(p.Preserves()) > 0 {
			preserve := idSet(p.Preserves())
			for id := range active {
				if !preserve[id] {
					delete(active, id)
				}
			}
		}
		for _, id := range p.Destroys() {
			delete(active, id)
		}
		for _, id := range p.Applies() {
			active[id] = true
		}

		dequeuesWithoutProgress = 0
	}
	return nil
}

// CapacitySetter is implemented by the allocation passes, letting a caller
// override the scratch region's default 4096-cell capacity (for testing
// against a deliberately smaller region) without each pipeline builder
// needing to know which pass in its slice does allocation.
type CapacitySetter interface {
	SetCapacity(n int)
}

// SetCapacity applies n as the scratch-region capacity to every pass in
// passes that implements CapacitySetter.
func SetCapacity(passes []Pass, n int) {
	for _, p := range passes {
		if cs, ok := p.(CapacitySetter); ok {
			cs.SetCapacity(n)
		}
	}
}

// FatalErrorer is implemented by passes that can fail outright (allocation
// overflow, a CFG with no reachable exit found by liveness) rather than just reporting "changed" via Run's bool return.
// RunPasses itself has no error channel for mid-pipeline failures, so
// callers that need to surface one call CollectFatalErrors(passes) after
// RunPasses returns.
type FatalErrorer interface {
	FatalError() error
}

// CollectFatalErrors returns the first non-nil error reported by any pass
// in passes that implements FatalErrorer, in slice order.
func CollectFatalErrors(passes []Pass) error {
	for _, p := range passes {
		if fe, ok := p.(FatalErrorer); ok {
			if err := fe.FatalError(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Warner is implemented by passes that surface non-fatal diagnostics (DCE
// deleting a never-read store) rather than fatal pipeline failures.
type Warner interface {
	Warnings() []errors.CompilerError
}

// CollectWarnings gathers every warning reported by any pass in passes
// that implements Warner, in slice order.
func CollectWarnings(passes []Pass) []errors.CompilerError {
	var out []errors.CompilerError
	for _, p := range passes {
		if w, ok := p.(Warner); ok {
			out = append(out, w.Warnings()...)
		}
	}
	return out
}

func missingRequirements(p Pass, active map[ID]bool) []ID {
	var missing []ID
	for _, req := range p.Requires() {
		if !active[req] {
			missing = append(missing, req)
		}
	}
	return missing
}
