package pass

import "sonobackend/internal/ir"

// DominanceFrontiers computes reverse-postorder block numbering, the
// immediate-dominator fixed point, the dominator tree, and dominance
// frontiers, per spec.md §4.5. Grounded on
// original_source/sonolus/backend/optimize/dominance.py.
//
// Results are published via a per-run side table rather than mutated onto
// BasicBlock fields, per spec.md §9's "per-statement annotations" design
// note generalized to per-block dominance data: SSA construction and flow
// coalescing both rewrite blocks, so results live in Info keyed by block
// pointer and are recomputed whenever this pass re-runs.
type DominanceFrontiers struct {
	Base
	Info *Dominance
}

// Dominance holds the results of one DominanceFrontiers run.
type Dominance struct {
	Number   map[*ir.BasicBlock]int
	Order    []*ir.BasicBlock
	IDom     map[*ir.BasicBlock]*ir.BasicBlock
	Children map[*ir.BasicBlock][]*ir.BasicBlock
	DF       map[*ir.BasicBlock][]*ir.BasicBlock
}

func NewDominanceFrontiers() *DominanceFrontiers {
	return &DominanceFrontiers{Base: Base{App: Self(IDDominanceFrontiers)}}
}

func (p *DominanceFrontiers) ID() ID { return IDDominanceFrontiers }
func (p *DominanceFrontiers) Description() string {
	return "compute dominator tree and dominance frontiers"
}

func (p *DominanceFrontiers) Run(cfg *ir.CFG) bool {
	p.Info = Compute(cfg.Entry)
	return false
}

// Compute runs the dominance computation standalone, for callers (ToSSA,
// tests) that need results without
// going through the scheduler.
func Compute(entry *ir.BasicBlock) *Dominance {
	order := ir.ReversePostorder(entry)
	number := make(map[*ir.BasicBlock]int, len(order))
	for i, b := range order {
		number[b] = i
	}

	idom := make(map[*ir.BasicBlock]*ir.BasicBlock, len(order))
	idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == entry {
				continue
			}
			var newIdom *ir.BasicBlock
			for _, p := range b.Predecessors() {
				if idom[p] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = p
				} else {
					newIdom = intersect(number, idom, newIdom, p)
				}
			}
			if newIdom != nil && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	children := map[*ir.BasicBlock][]*ir.BasicBlock{}
	for _, b := range order {
		if b == entry {
			continue
		}
		d := idom[b]
		children[d] = append(children[d], b)
	}

	df := map[*ir.BasicBlock][]*ir.BasicBlock{}
	for _, b := range order {
		preds := b.Predecessors()
		if len(preds) < 2 {
			continue
		}
		for _, p := range preds {
			if idom[p] == nil {
				continue
			}
			runner := p
			for runner != idom[b] {
				if !containsBlock(df[runner], b) {
					df[runner] = append(df[runner], b)
				}
				runner = idom[runner]
			}
		}
	}

	return &Dominance{Number: number, Order: order, IDom: idom, Children: children, DF: df}
}

func intersect(number map[*ir.BasicBlock]int, idom map[*ir.BasicBlock]*ir.BasicBlock, b1, b2 *ir.BasicBlock) *ir.BasicBlock {
	for b1 != b2 {
		for number[b1] > number[b2] {
			b1 = idom[b1]
		}
		for number[b2] > number[b1] {
			b2 = idom[b2]
		}
	}
	return b1
}

func containsBlock(list []*ir.BasicBlock, b *ir.BasicBlock) bool {
	for _, x := range list {
		if x == b {
			return true
		}
	}
	return false
}

// Dominates reports whether a dominates b (inclusive of a == b) given idom.
func (d *Dominance) Dominates(a, b *ir.BasicBlock) bool {
	for b != nil {
		if b == a {
			return true
		}
		if d.IDom[b] == b {
			return b == a
		}
		b = d.IDom[b]
	}
	return false
}

// IteratedDF returns the iterated dominance frontier of defBlocks: the
// fixed point of repeatedly unioning each block's DF.
func (d *Dominance) IteratedDF(defBlocks []*ir.BasicBlock) []*ir.BasicBlock {
	worklist := append([]*ir.BasicBlock{}, defBlocks...)
	result := map[*ir.BasicBlock]bool{}
	var order []*ir.BasicBlock
	for len(worklist) > 0 {
		b := worklist[0]
		worklist = worklist[1:]
		for _, f := range d.DF[b] {
			if !result[f] {
				result[f] = true
				order = append(order, f)
				worklist = append(worklist, f)
			}
		}
	}
	return order
}
