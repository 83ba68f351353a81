package pass

import "sonobackend/internal/ir"

// ToSSA inserts phis at iterated dominance frontiers and renames every
// size-1 temp-block reference into a versioned SSAPlace, per spec.md §4.6.
// Grounded on original_source/sonolus/backend/optimize/ssa.py's ToSSA.
type ToSSA struct{ Base }

func NewToSSA() *ToSSA {
	return &ToSSA{Base{App: Self(IDToSSA)}}
}

func (p *ToSSA) ID() ID              { return IDToSSA }
func (p *ToSSA) Description() string { return "insert phis and rename temps into SSA form" }

func (p *ToSSA) Run(cfg *ir.CFG) bool {
	dom := Compute(cfg.Entry)
	blocks := ir.Preorder(cfg.Entry)

	promoted := map[ir.TempBlock]bool{}
	defBlocks := map[ir.TempBlock][]*ir.BasicBlock{}
	for _, b := range blocks {
		for _, s := range b.Statements {
			set, ok := s.(*ir.Set)
			if !ok {
				continue
			}
			bp, ok := set.Place.(ir.BlockPlace)
			if !ok {
				continue
			}
			t, ok := bp.Block.(ir.TempBlock)
			if !ok || t.Size != 1 {
				continue
			}
			promoted[t] = true
			if !containsBlock(defBlocks[t], b) {
				defBlocks[t] = append(defBlocks[t], b)
			}
		}
	}
	if len(promoted) == 0 {
		return false
	}

	for t := range promoted {
		for _, df := range dom.IteratedDF(defBlocks[t]) {
			df.PhiFor(ir.BlockPlace{Block: t, Index: 0})
		}
	}

	versions := map[ir.TempBlock]int{}
	stacks := map[ir.TempBlock][]ir.SSAPlace{}
	renameBlock(cfg.Entry, dom, promoted, versions, stacks)
	return true
}

func renameBlock(b *ir.BasicBlock, dom *Dominance, promoted map[ir.TempBlock]bool, versions map[ir.TempBlock]int, stacks map[ir.TempBlock][]ir.SSAPlace) {
	pushed := map[ir.TempBlock]int{}

	for _, ph := range b.Phis {
		bp, ok := ph.Target.(ir.BlockPlace)
		if !ok {
			continue
		}
		t, ok := bp.Block.(ir.TempBlock)
		if !ok || !promoted[t] {
			continue
		}
		v := versions[t]
		versions[t]++
		newPlace := ir.SSAPlace{Name: t.Name, Version: v}
		ph.Target = newPlace
		stacks[t] = append(stacks[t], newPlace)
		pushed[t]++
	}

	for i, s := range b.Statements {
		b.Statements[i] = renameNode(s, promoted, versions, stacks, pushed)
	}
	if b.Test != nil {
		b.Test = renameNode(b.Test, promoted, versions, stacks, pushed)
	}

	for _, succ := range b.Successors() {
		for _, ph := range succ.Phis {
			t := ssaTempFromTarget(ph.Target)
			if t == nil {
				continue
			}
			ph2 := succ.PhiFor(ir.BlockPlace{Block: *t, Index: 0})
			ph2.Args[b] = topOrErr(stacks, *t)
		}
	}

	for _, child := range dom.Children[b] {
		renameBlock(child, dom, promoted, versions, stacks)
	}

	for t, n := range pushed {
		stacks[t] = stacks[t][:len(stacks[t])-n]
	}
}

// ssaTempFromTarget recovers the originating TempBlock for a phi target,
// whether it has already been converted to an SSAPlace or is still the
// placeholder BlockPlace from insertion — phi args are always found via the
// stable insertion key, so either representation must resolve back to the
// same temp.
func ssaTempFromTarget(target ir.Place) *ir.TempBlock {
	switch v := target.(type) {
	case ir.SSAPlace:
		t := ir.TempBlock{Name: v.Name, Size: 1}
		return &t
	case ir.BlockPlace:
		if t, ok := v.Block.(ir.TempBlock); ok {
			return &t
		}
	}
	return nil
}

func topOrErr(stacks map[ir.TempBlock][]ir.SSAPlace, t ir.TempBlock) ir.SSAPlace {
	s := stacks[t]
	if len(s) == 0 {
		return ir.ErrSSAPlace
	}
	return s[len(s)-1]
}

// renameNode rewrites uses of promoted temps to their current SSA version
// (bottom-up: nested values are renamed before a Set at this node creates a
// fresh definition) and replaces unresolved uses with the "err" sentinel.
func renameNode(n ir.Node, promoted map[ir.TempBlock]bool, versions map[ir.TempBlock]int, stacks map[ir.TempBlock][]ir.SSAPlace, pushed map[ir.TempBlock]int) ir.Node {
	switch v := n.(type) {
	case *ir.Const:
		return v
	case *ir.Get:
		if bp, ok := v.Place.(ir.BlockPlace); ok {
			if t, ok2 := bp.Block.(ir.TempBlock); ok2 && t.Size == 1 && promoted[t] {
				return &ir.Get{Place: topOrErr(stacks, t)}
			}
		}
		return v
	case *ir.PureOp:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = renameNode(a, promoted, versions, stacks, pushed)
		}
		return &ir.PureOp{Op: v.Op, Args: args}
	case *ir.OpNode:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = renameNode(a, promoted, versions, stacks, pushed)
		}
		return &ir.OpNode{Op: v.Op, Args: args}
	case *ir.Set:
		value := renameNode(v.Value, promoted, versions, stacks, pushed)
		if bp, ok := v.Place.(ir.BlockPlace); ok {
			if t, ok2 := bp.Block.(ir.TempBlock); ok2 && t.Size == 1 && promoted[t] {
				ver := versions[t]
				versions[t]++
				newPlace := ir.SSAPlace{Name: t.Name, Version: ver}
				stacks[t] = append(stacks[t], newPlace)
				pushed[t]++
				return &ir.Set{Place: newPlace, Value: value}
			}
		}
		return &ir.Set{Place: v.Place, Value: value}
	default:
		return n
	}
}

// FromSSA lowers phis via copies inserted on split edges, per spec.md §4.7.
// Grounded on original_source/sonolus/backend/optimize/ssa.py's FromSSA.
type FromSSA struct{ Base }

func NewFromSSA() *FromSSA {
	return &FromSSA{Base{Destr: []ID{IDToSSA}, App: Self(IDFromSSA)}}
}

func (p *FromSSA) ID() ID              { return IDFromSSA }
func (p *FromSSA) Description() string { return "lower phis to copies on split edges" }

func (p *FromSSA) Run(cfg *ir.CFG) bool {
	changed := false
	for _, b := range ir.Preorder(cfg.Entry) {
		if len(b.Phis) == 0 {
			continue
		}
		changed = true
		for _, in := range append([]*ir.FlowEdge{}, b.Incoming...) {
			src, cond := in.Src, in.Cond
			m := cfg.NewBlock()
			ir.Disconnect(in)
			ir.Connect(src, m, cond)
			ir.Connect(m, b, nil)

			for _, ph := range b.Phis {
				source, ok := ph.Args[src]
				if !ok {
					continue
				}
				delete(ph.Args, src)
				ph.Args[m] = source
				target, ok1 := ph.Target.(ir.SSAPlace)
				sp, ok2 := source.(ir.SSAPlace)
				if !ok1 || !ok2 {
					continue
				}
				m.Statements = append(m.Statements, &ir.Set{
					Place: placeFromSSAPlace(target),
					Value: &ir.Get{Place: placeFromSSAPlace(sp)},
				})
			}
		}
		b.Phis = map[any]*ir.Phi{}
	}

	for _, b := range ir.Preorder(cfg.Entry) {
		for i, s := range b.Statements {
			b.Statements[i] = lowerSSANode(s)
		}
		if b.Test != nil {
			b.Test = lowerSSANode(b.Test)
		}
	}
	return changed
}

// placeFromSSAPlace assigns each retired SSA place a fresh size-1 temp
// block named "<name>.<version>"; the downstream CopyCoalesce pass merges
// redundant copies this introduces.
func placeFromSSAPlace(sp ir.SSAPlace) ir.BlockPlace {
	return ir.TempBlock{Name: sp.String(), Size: 1}.At(0)
}

func lowerSSANode(n ir.Node) ir.Node {
	switch v := n.(type) {
	case *ir.Get:
		if sp, ok := v.Place.(ir.SSAPlace); ok {
			return &ir.Get{Place: placeFromSSAPlace(sp)}
		}
		return v
	case *ir.Set:
		value := lowerSSANode(v.Value)
		if sp, ok := v.Place.(ir.SSAPlace); ok {
			return &ir.Set{Place: placeFromSSAPlace(sp), Value: value}
		}
		return &ir.Set{Place: v.Place, Value: value}
	case *ir.PureOp:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = lowerSSANode(a)
		}
		return &ir.PureOp{Op: v.Op, Args: args}
	case *ir.OpNode:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = lowerSSANode(a)
		}
		return &ir.OpNode{Op: v.Op, Args: args}
	default:
		return n
	}
}
