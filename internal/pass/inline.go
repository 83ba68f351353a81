package pass

import "sonobackend/internal/ir"

// InlineVars inlines SSA-place definitions into their uses to a fixed
// point, per spec.md §4.11. Grounded on
// original_source/sonolus/backend/optimize/inline.py. It never deletes the
// original defining Set — it only rewrites reads — since a definition left
// with zero remaining uses is DCE's job, and the Standard pipeline always
// schedules DCE immediately after InlineVars.
type InlineVars struct{ Base }

func NewInlineVars() *InlineVars {
	return &InlineVars{Base{Req: []ID{IDToSSA}, App: Self(IDInlineVars)}}
}

func (p *InlineVars) ID() ID { return IDInlineVars }
func (p *InlineVars) Description() string {
	return "inline pure single-use SSA definitions and place-renames to a fixed point"
}

func (p *InlineVars) Run(cfg *ir.CFG) bool {
	blocks := ir.Preorder(cfg.Entry)
	changedOverall := false
	processed := map[ir.SSAPlace]bool{}

	for {
		defs := collectSSADefs(blocks)
		uses := countSSAUses(blocks)

		var target ir.SSAPlace
		var value ir.Node
		found := false
		for place, def := range defs {
			if processed[place] {
				continue
			}
			v := def.Value
			isRename := false
			if g, ok := v.(*ir.Get); ok {
				if _, isSSA := g.Place.(ir.SSAPlace); isSSA {
					isRename = true
				}
			}
			if isRename || (ir.IsPure(v) && uses[place] <= 1) {
				target, value, found = place, v, true
				break
			}
		}
		if !found {
			break
		}

		substitutePlace(blocks, target, value)
		processed[target] = true
		changedOverall = true
	}

	return changedOverall
}

func collectSSADefs(blocks []*ir.BasicBlock) map[ir.SSAPlace]*ir.Set {
	defs := map[ir.SSAPlace]*ir.Set{}
	for _, b := range blocks {
		for _, s := range b.Statements {
			set, ok := s.(*ir.Set)
			if !ok {
				continue
			}
			sp, ok := set.Place.(ir.SSAPlace)
			if !ok {
				continue
			}
			defs[sp] = set
		}
	}
	return defs
}

func countSSAUses(blocks []*ir.BasicBlock) map[ir.SSAPlace]int {
	counts := map[ir.SSAPlace]int{}
	record := func(n ir.Node) {
		ir.Walk(n, func(x ir.Node) {
			if g, ok := x.(*ir.Get); ok {
				if sp, ok := g.Place.(ir.SSAPlace); ok {
					counts[sp]++
				}
			}
		})
	}
	for _, b := range blocks {
		for _, s := range b.Statements {
			record(s)
		}
		if b.Test != nil {
			record(b.Test)
		}
		for _, ph := range b.Phis {
			for _, src := range ph.Args {
				if sp, ok := src.(ir.SSAPlace); ok {
					counts[sp]++
				}
			}
		}
	}
	return counts
}

// substitutePlace replaces every Get(target) with value. When value is
// itself a Get of another SSA place, phi args referencing target as their
// source are rewritten to reference that place directly — a phi arm can
// only ever hold a Place, not an arbitrary expression, so a non-rename
// definition can be inlined into statement/test uses but never into a phi.
func substitutePlace(blocks []*ir.BasicBlock, target ir.SSAPlace, value ir.Node) {
	var rename *ir.SSAPlace
	if g, ok := value.(*ir.Get); ok {
		if sp, ok2 := g.Place.(ir.SSAPlace); ok2 {
			rename = &sp
		}
	}

	for _, b := range blocks {
		for i, s := range b.Statements {
			b.Statements[i] = substituteGet(s, target, value)
		}
		if b.Test != nil {
			b.Test = substituteGet(b.Test, target, value)
		}
		if rename != nil {
			for _, ph := range b.Phis {
				for pred, src := range ph.Args {
					if sp, ok := src.(ir.SSAPlace); ok && sp == target {
						ph.Args[pred] = *rename
					}
				}
			}
		}
	}
}

func substituteGet(n ir.Node, target ir.SSAPlace, value ir.Node) ir.Node {
	switch v := n.(type) {
	case *ir.Get:
		if sp, ok := v.Place.(ir.SSAPlace); ok && sp == target {
			return value
		}
		return v
	case *ir.PureOp:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = substituteGet(a, target, value)
		}
		return &ir.PureOp{Op: v.Op, Args: args}
	case *ir.OpNode:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = substituteGet(a, target, value)
		}
		return &ir.OpNode{Op: v.Op, Args: args}
	case *ir.Set:
		return &ir.Set{Place: v.Place, Value: substituteGet(v.Value, target, value)}
	default:
		return n
	}
}
