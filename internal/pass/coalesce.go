package pass

import "sonobackend/internal/ir"

// CoalesceFlow repeatedly merges any block A whose sole outgoing edge leads
// to a block B with A as its sole predecessor, per spec.md §4.3. Grounded
// on original_source/sonolus/backend/optimize/simplify.py's CoalesceFlow.
type CoalesceFlow struct{ Base }

func NewCoalesceFlow() *CoalesceFlow {
	return &CoalesceFlow{Base{App: Self(IDCoalesceFlow)}}
}

func (p *CoalesceFlow) ID() ID               { return IDCoalesceFlow }
func (p *CoalesceFlow) Description() string  { return "merge linear chains of basic blocks" }

func (p *CoalesceFlow) Run(cfg *ir.CFG) bool {
	changed := false
	for {
		if p.step(cfg) {
			changed = true
			continue
		}
		break
	}
	return changed
}

// step performs one merge if possible and reports whether it did.
func (p *CoalesceFlow) step(cfg *ir.CFG) bool {
	for _, a := range ir.Preorder(cfg.Entry) {
		if len(a.Outgoing) != 1 {
			continue
		}
		edge := a.Outgoing[0]
		b := edge.Dst
		if b == cfg.Entry {
			continue // never fold the entry block away
		}
		if len(b.Predecessors()) != 1 || b.Predecessors()[0] != a {
			continue
		}

		// Absorb B's phi arms keyed on A into equivalent Sets appended to A.
		for _, ph := range b.Phis {
			if src, ok := ph.Args[a]; ok {
				a.Statements = append(a.Statements, &ir.Set{Place: ph.Target, Value: &ir.Get{Place: src}})
			}
		}

		// Splice B's body into A.
		a.Statements = append(a.Statements, b.Statements...)
		a.Test = b.Test

		ir.Disconnect(edge)
		for _, out := range append([]*ir.FlowEdge{}, b.Outgoing...) {
			ir.Disconnect(out)
			newEdge := ir.Connect(a, out.Dst, out.Cond)
			// rewrite downstream phi predecessor keys from B to A
			for _, ph := range out.Dst.Phis {
				if src, ok := ph.Args[b]; ok {
					delete(ph.Args, b)
					ph.Args[a] = src
				}
			}
			_ = newEdge
		}

		if len(a.Statements) == 0 && len(a.Phis) == 0 && len(b.Phis) == 0 {
			elideEmptyBlock(cfg, a)
		}

		return true
	}
	return false
}

// elideEmptyBlock redirects a's predecessors directly to a's sole successor
// when a carries no statements or phis of its own.
func elideEmptyBlock(cfg *ir.CFG, a *ir.BasicBlock) {
	if a == cfg.Entry || len(a.Outgoing) != 1 {
		return
	}
	target := a.Outgoing[0].Dst
	cond := a.Outgoing[0].Cond
	if cond != nil {
		return // only elide unconditional fallthrough blocks
	}
	for _, in := range append([]*ir.FlowEdge{}, a.Incoming...) {
		ir.Disconnect(in)
		ir.Connect(in.Src, target, in.Cond)
		for _, ph := range target.Phis {
			if src, ok := ph.Args[a]; ok {
				delete(ph.Args, a)
				ph.Args[in.Src] = src
			}
		}
	}
	ir.Disconnect(a.Outgoing[0])
}
