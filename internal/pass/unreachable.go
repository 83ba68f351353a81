package pass

import "sonobackend/internal/ir"

// UnreachableCodeElimination folds constant branch tests down to their
// single surviving edge and prunes blocks no longer reachable from entry,
// per spec.md §4.4. Grounded on
// original_source/sonolus/backend/optimize/dead_code.py's
// UnreachableCodeElimination.
type UnreachableCodeElimination struct{ Base }

func NewUnreachableCodeElimination() *UnreachableCodeElimination {
	return &UnreachableCodeElimination{Base{App: Self(IDUnreachableElimination)}}
}

func (p *UnreachableCodeElimination) ID() ID { return IDUnreachableElimination }
func (p *UnreachableCodeElimination) Description() string {
	return "fold constant branches and prune unreachable blocks"
}

func (p *UnreachableCodeElimination) Run(cfg *ir.CFG) bool {
	changed := false

	for _, b := range ir.Preorder(cfg.Entry) {
		c, ok := b.Test.(*ir.Const)
		if !ok || len(b.Outgoing) < 2 {
			continue
		}
		keep := b.EdgeFor(c.Value)
		if keep == nil {
			keep = b.DefaultEdge()
		}
		if keep == nil {
			continue
		}
		for _, e := range append([]*ir.FlowEdge{}, b.Outgoing...) {
			if e != keep {
				ir.Disconnect(e)
				stripPhiArm(e.Dst, b)
				changed = true
			}
		}
		b.Test = ir.NewConst(0)
		keep.Cond = nil
	}

	reachable := ir.Reachable(cfg.Entry)
	allBlocks := collectAll(cfg.Entry)
	for _, b := range allBlocks {
		if reachable[b] {
			continue
		}
		for _, e := range append([]*ir.FlowEdge{}, b.Outgoing...) {
			ir.Disconnect(e)
		}
		for _, e := range append([]*ir.FlowEdge{}, b.Incoming...) {
			ir.Disconnect(e)
		}
		changed = true
	}
	for _, b := range allBlocks {
		if !reachable[b] {
			continue
		}
		for _, ph := range b.Phis {
			for pred := range ph.Args {
				if !reachable[pred] {
					delete(ph.Args, pred)
				}
			}
		}
	}

	return changed
}

func stripPhiArm(b, pred *ir.BasicBlock) {
	for _, ph := range b.Phis {
		delete(ph.Args, pred)
	}
}

// collectAll walks both successor and predecessor links from entry so
// blocks that have become unreachable but still have stale incoming edges
// referencing them are still found and fully disconnected.
func collectAll(entry *ir.BasicBlock) []*ir.BasicBlock {
	visited := map[*ir.BasicBlock]bool{}
	var order []*ir.BasicBlock
	var visit func(b *ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		order = append(order, b)
		for _, e := range b.Outgoing {
			visit(e.Dst)
		}
		for _, e := range b.Incoming {
			visit(e.Src)
		}
	}
	visit(entry)
	return order
}
