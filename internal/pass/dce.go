package pass

import (
	"sonobackend/internal/errors"
	"sonobackend/internal/ir"
)

// ForwardDCE is the cheap dead-code pass usable before SSA exists and again
// after SCCP, per spec.md §4.12. It approximates liveness by a single
// transitive-use closure over the whole CFG rather than a per-point
// dataflow fixed point, which AdvancedDCE provides instead.
// Grounded on original_source/sonolus/backend/optimize/dce.py.
type ForwardDCE struct {
	Base
	warnings []errors.CompilerError
}

func NewForwardDCE() *ForwardDCE {
	return &ForwardDCE{Base: Base{App: Self(IDDeadCodeElimination)}}
}

// Warnings reports every named temp whose store this pass deleted because
// nothing ever read it back.
func (p *ForwardDCE) Warnings() []errors.CompilerError { return p.warnings }

// namedTemp returns a readable name for p if it refers to a temp block
// (the only place shape worth warning about by name — SSA places and fixed
// blocks have no frontend-meaningful identifier to report).
func namedTemp(p ir.Place) (string, bool) {
	bp, ok := p.(ir.BlockPlace)
	if !ok {
		return "", false
	}
	tb, ok := bp.Block.(ir.TempBlock)
	if !ok {
		return "", false
	}
	return tb.String(), true
}

func (p *ForwardDCE) ID() ID              { return IDDeadCodeElimination }
func (p *ForwardDCE) Description() string { return "delete sets whose place is never transitively used" }

// isRootStatement reports whether s must survive regardless of whether its
// defined place is ever read: a Set survives only if its own value has a
// side effect (an increment, a random draw, a nested store), not merely
// because every Set carries EffectObservable at the statement level.
func isRootStatement(s ir.Node) bool {
	if set, ok := s.(*ir.Set); ok {
		return ir.HasSideEffects(set.Value)
	}
	return ir.HasSideEffects(s)
}

func (p *ForwardDCE) Run(cfg *ir.CFG) bool {
	return forwardDCEPass(cfg, func(place ir.Place) {
		if name, ok := namedTemp(place); ok {
			p.warnings = append(p.warnings, errors.DeadStore(name))
		}
	})
}

// forwardDCEPass is the free-function core of ForwardDCE, also called
// directly by AllocateFast, which folds a DCE sweep into its own Run rather
// than relying on a separately-scheduled pass (spec.md §4.2's Fast
// pipeline) and has no Warner of its own to report through, so it passes a
// nil callback.
func forwardDCEPass(cfg *ir.CFG, onDeadStore func(ir.Place)) bool {
	blocks := ir.Preorder(cfg.Entry)

	defsByPlace := map[any][]*ir.Set{}
	for _, b := range blocks {
		for _, s := range b.Statements {
			if set, ok := s.(*ir.Set); ok {
				k := ir.PlaceKey(set.Place)
				defsByPlace[k] = append(defsByPlace[k], set)
			}
		}
	}

	used := map[any]bool{}
	var queue []ir.Place
	markUse := func(pl ir.Place) {
		k := ir.PlaceKey(pl)
		if used[k] {
			return
		}
		used[k] = true
		queue = append(queue, pl)
	}
	seedFromNode := func(n ir.Node) {
		for _, u := range usesOf(n) {
			markUse(u)
		}
	}

	for _, b := range blocks {
		if b.Test != nil {
			seedFromNode(b.Test)
		}
		for _, s := range b.Statements {
			if isRootStatement(s) {
				seedFromNode(s)
			}
		}
	}

	for len(queue) > 0 {
		pl := queue[0]
		queue = queue[1:]
		for _, def := range defsByPlace[ir.PlaceKey(pl)] {
			seedFromNode(def.Value)
		}
	}

	changed := false
	for _, b := range blocks {
		kept := b.Statements[:0]
		for _, s := range b.Statements {
			if ir.IsSelfCopy(s) {
				changed = true
				continue
			}
			set, ok := s.(*ir.Set)
			if !ok {
				kept = append(kept, s)
				continue
			}
			if used[ir.PlaceKey(set.Place)] {
				kept = append(kept, s)
				continue
			}
			changed = true
			if onDeadStore != nil {
				onDeadStore(set.Place)
			}
			if ir.HasSideEffects(set.Value) {
				kept = append(kept, set.Value)
			}
		}
		b.Statements = kept
	}
	return changed
}

// AdvancedDCE consumes a LivenessAnalysis's per-statement annotations to
// delete stores proven dead at a single program point — more precise than
// ForwardDCE's whole-CFG transitive closure, at the cost of requiring a
// prior dataflow fixed point. It shares the LivenessAnalysis instance that
// the pipeline schedules ahead of it, since the scheduler (pass.go) runs
// each Pass value exactly once and AdvancedDCE has no other way to reach
// that run's Info.
type AdvancedDCE struct {
	Base
	liveness *LivenessAnalysis
	warnings []errors.CompilerError
}

func NewAdvancedDCE(liveness *LivenessAnalysis) *AdvancedDCE {
	return &AdvancedDCE{
		Base:     Base{Req: []ID{IDLivenessAnalysis}, App: Self(IDAdvancedDCE)},
		liveness: liveness,
	}
}

func (p *AdvancedDCE) ID() ID { return IDAdvancedDCE }
func (p *AdvancedDCE) Description() string {
	return "delete stores proven dead by liveness, demoting dead side-effecting stores to bare effects"
}

// Warnings reports every named temp whose store this pass eliminated or
// demoted to a bare effect because liveness proved it dead.
func (p *AdvancedDCE) Warnings() []errors.CompilerError { return p.warnings }

func (p *AdvancedDCE) warnDeadStore(place ir.Place) {
	if name, ok := namedTemp(place); ok {
		p.warnings = append(p.warnings, errors.DeadStore(name))
	}
}

func isTargetDead(info *LivenessInfo, s ir.Node, place ir.Place) bool {
	out, ok := info.LiveOut[s]
	if !ok {
		return true
	}
	_, live := out[ir.PlaceKey(place)]
	return !live
}

func (p *AdvancedDCE) Run(cfg *ir.CFG) bool {
	info := p.liveness.Info
	if info == nil {
		return false
	}

	changed := false
	for _, b := range ir.Preorder(cfg.Entry) {
		kept := b.Statements[:0]
		for _, s := range b.Statements {
			if ir.IsSelfCopy(s) {
				changed = true
				continue
			}
			set, ok := s.(*ir.Set)
			if !ok {
				kept = append(kept, s)
				continue
			}
			if info.Eliminable(s) {
				changed = true
				p.warnDeadStore(set.Place)
				continue
			}
			if isTargetDead(info, s, set.Place) && ir.HasSideEffects(set.Value) {
				changed = true
				p.warnDeadStore(set.Place)
				kept = append(kept, set.Value)
				continue
			}
			kept = append(kept, s)
		}
		b.Statements = kept
	}
	return changed
}
