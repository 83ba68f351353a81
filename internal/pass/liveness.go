package pass

import (
	"sonobackend/internal/errors"
	"sonobackend/internal/ir"
)

// LivenessAnalysis is a backward dataflow pass over temp blocks and SSA
// places, per spec.md §4.8. Grounded on
// original_source/sonolus/backend/optimize/liveness.py. It is an
// analysis-only pass: it never mutates the CFG, only populates Info for
// AdvancedDCE and Allocate to consume.
type LivenessAnalysis struct {
	Base
	Info *LivenessInfo
}

// LivenessAnalysis carries no Requires: in the Standard pipeline it is
// scheduled (via AdvancedDCE's own Requires) after FromSSA, over plain
// temp-block places, but the algorithm itself is representation-agnostic
// (it reads ir.Place generically) so it is equally correct if ever
// scheduled while SSA places are still live.
func NewLivenessAnalysis() *LivenessAnalysis {
	return &LivenessAnalysis{Base: Base{App: Self(IDLivenessAnalysis)}}
}

func (p *LivenessAnalysis) ID() ID { return IDLivenessAnalysis }
func (p *LivenessAnalysis) Description() string {
	return "backward liveness over temps and SSA places, with array-init refinement"
}

// FatalError reports the infinite-loop error Run recorded in Info.Err, if
// any, so CollectFatalErrors surfaces it.
func (p *LivenessAnalysis) FatalError() error {
	if p.Info == nil {
		return nil
	}
	return p.Info.Err
}

// LivenessInfo holds one run's per-statement annotations, keyed by
// statement identity (the Node pointer) rather than mutated onto the
// statement, since later passes rebuild nodes and would otherwise silently
// carry stale annotations forward.
type LivenessInfo struct {
	// Live is the live-in set of a statement: everything live immediately
	// before it executes, which by construction always includes the
	// statement's own uses (spec.md §8 property 4).
	Live map[ir.Node]map[any]ir.Place
	// LiveOut is the live-out set: everything live immediately after the
	// statement executes, used by Eliminable to test a def's liveness.
	LiveOut map[ir.Node]map[any]ir.Place
	Uses    map[ir.Node][]ir.Place
	Defs    map[ir.Node][]ir.Place

	arrayBefore map[ir.Node]map[ir.TempBlock]bool
	IsArrayInit map[ir.Node]bool

	Err error
}

func newLivenessInfo() *LivenessInfo {
	return &LivenessInfo{
		Live:        map[ir.Node]map[any]ir.Place{},
		LiveOut:     map[ir.Node]map[any]ir.Place{},
		Uses:        map[ir.Node][]ir.Place{},
		Defs:        map[ir.Node][]ir.Place{},
		arrayBefore: map[ir.Node]map[ir.TempBlock]bool{},
		IsArrayInit: map[ir.Node]bool{},
	}
}

// Eliminable reports whether s's only defined place is dead immediately
// after s and its value has no side effects, per spec.md §4.8/§4.12.
func (info *LivenessInfo) Eliminable(s ir.Node) bool {
	set, ok := s.(*ir.Set)
	if !ok {
		return false
	}
	if ir.HasSideEffects(set.Value) {
		return false
	}
	out := info.LiveOut[s]
	_, live := out[ir.PlaceKey(set.Place)]
	return !live
}

func (p *LivenessAnalysis) Run(cfg *ir.CFG) bool {
	info := newLivenessInfo()
	p.Info = info

	blocks := ir.Preorder(cfg.Entry)
	if len(ir.Exits(cfg.Entry)) == 0 {
		info.Err = errors.InfiniteLoop(cfg.Entry.ID)
		return false
	}

	runArrayInitRefinement(blocks, info)
	runBackwardLiveness(cfg, blocks, info)
	pruneArrayLiveness(info)
	return false
}

func isArrayTemp(p ir.Place) (ir.TempBlock, bool) {
	bp, ok := p.(ir.BlockPlace)
	if !ok {
		return ir.TempBlock{}, false
	}
	t, ok := bp.Block.(ir.TempBlock)
	if !ok || t.Size <= 1 {
		return ir.TempBlock{}, false
	}
	return t, true
}

func usesOf(n ir.Node) []ir.Place {
	var out []ir.Place
	ir.Walk(n, func(x ir.Node) {
		if g, ok := x.(*ir.Get); ok {
			out = append(out, g.Place)
		}
	})
	return out
}

// defsForKill returns s's defined place for standard backward-liveness
// kill purposes — empty for an array store, since writing one cell never
// fully kills the array (spec.md §4.8).
func defsForKill(s ir.Node) []ir.Place {
	set, ok := s.(*ir.Set)
	if !ok {
		return nil
	}
	if _, isArray := isArrayTemp(set.Place); isArray {
		return nil
	}
	return []ir.Place{set.Place}
}

func allDefs(s ir.Node) []ir.Place {
	if set, ok := s.(*ir.Set); ok {
		return []ir.Place{set.Place}
	}
	return nil
}

func copyPlaceSet(s map[any]ir.Place) map[any]ir.Place {
	out := make(map[any]ir.Place, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// runArrayInitRefinement computes, per statement, the set of array temps
// possibly initialized strictly before that statement (arrayBefore), and
// tags each array store as IsArrayInit the first time it contributes its
// temp within that running set.
func runArrayInitRefinement(blocks []*ir.BasicBlock, info *LivenessInfo) {
	arrayIn := map[*ir.BasicBlock]map[ir.TempBlock]bool{}
	arrayOut := map[*ir.BasicBlock]map[ir.TempBlock]bool{}
	for _, b := range blocks {
		arrayIn[b] = map[ir.TempBlock]bool{}
		arrayOut[b] = map[ir.TempBlock]bool{}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range blocks {
			in := map[ir.TempBlock]bool{}
			for _, pred := range b.Predecessors() {
				for t := range arrayOut[pred] {
					in[t] = true
				}
			}
			if !sameTempSet(in, arrayIn[b]) {
				arrayIn[b] = in
				changed = true
			}
			out := copyTempSet(arrayIn[b])
			for _, s := range b.Statements {
				if set, ok := s.(*ir.Set); ok {
					if t, isArray := isArrayTemp(set.Place); isArray {
						out[t] = true
					}
				}
			}
			if !sameTempSet(out, arrayOut[b]) {
				arrayOut[b] = out
				changed = true
			}
		}
	}

	for _, b := range blocks {
		running := copyTempSet(arrayIn[b])
		for _, s := range b.Statements {
			info.arrayBefore[s] = copyTempSet(running)
			if set, ok := s.(*ir.Set); ok {
				if t, isArray := isArrayTemp(set.Place); isArray {
					if !running[t] {
						info.IsArrayInit[s] = true
					}
					running[t] = true
				}
			}
		}
	}
}

func sameTempSet(a, b map[ir.TempBlock]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for t := range a {
		if !b[t] {
			return false
		}
	}
	return true
}

func copyTempSet(s map[ir.TempBlock]bool) map[ir.TempBlock]bool {
	out := make(map[ir.TempBlock]bool, len(s))
	for t := range s {
		out[t] = true
	}
	return out
}

// runBackwardLiveness computes live-in/live-out fixed points across the
// whole CFG, honoring per-predecessor phi contributions.
func runBackwardLiveness(cfg *ir.CFG, blocks []*ir.BasicBlock, info *LivenessInfo) {
	liveIn := map[*ir.BasicBlock]map[any]ir.Place{}
	for _, b := range blocks {
		liveIn[b] = map[any]ir.Place{}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range blocks {
			out := map[any]ir.Place{}
			for _, succ := range b.Successors() {
				for k, p := range liveIn[succ] {
					out[k] = p
				}
				for _, ph := range succ.Phis {
					if src, ok := ph.Args[b]; ok {
						out[ir.PlaceKey(src)] = src
					}
				}
			}

			newIn := backwardSweep(b, out, info)
			if !sameplaceSet(newIn, liveIn[b]) {
				liveIn[b] = newIn
				changed = true
			}
		}
	}
}

func backwardSweep(b *ir.BasicBlock, out map[any]ir.Place, info *LivenessInfo) map[any]ir.Place {
	live := copyPlaceSet(out)
	if b.Test != nil {
		for _, u := range usesOf(b.Test) {
			live[ir.PlaceKey(u)] = u
		}
	}

	for i := len(b.Statements) - 1; i >= 0; i-- {
		s := b.Statements[i]
		liveOut := copyPlaceSet(live)

		for _, d := range defsForKill(s) {
			delete(live, ir.PlaceKey(d))
		}
		uses := usesOf(s)
		for _, u := range uses {
			live[ir.PlaceKey(u)] = u
		}

		info.Live[s] = copyPlaceSet(live)
		info.LiveOut[s] = liveOut
		info.Uses[s] = uses
		info.Defs[s] = allDefs(s)
	}

	return live
}

func sameplaceSet(a, b map[any]ir.Place) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// pruneArrayLiveness strips from each statement's recorded Live and LiveOut
// sets any array temp that the forward pass shows is not yet possibly
// initialized at that point — a read of an array along a path where no
// store to it has happened yet cannot be keeping an earlier, unrelated
// store to that same temp alive, per spec.md §4.8's array-init refinement
// (boundary scenario S6). LiveOut needs its own "after" set rather than
// reusing arrayBefore directly: a store s to array t always finishes with t
// initialized, even when t was not yet initialized before s ran.
func pruneArrayLiveness(info *LivenessInfo) {
	prune := func(set map[any]ir.Place, initialized map[ir.TempBlock]bool) {
		for k, p := range set {
			t, isArray := isArrayTemp(p)
			if !isArray {
				continue
			}
			if !initialized[t] {
				delete(set, k)
			}
		}
	}

	for s, live := range info.Live {
		prune(live, info.arrayBefore[s])
	}
	for s, out := range info.LiveOut {
		after := copyTempSet(info.arrayBefore[s])
		if set, ok := s.(*ir.Set); ok {
			if t, isArray := isArrayTemp(set.Place); isArray {
				after[t] = true
			}
		}
		prune(out, after)
	}
}
