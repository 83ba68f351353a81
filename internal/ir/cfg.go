package ir

import (
	"fmt"
	"sort"
)

// FlowEdge connects Src to Dst. Cond == nil is the default/fallthrough arm;
// a non-nil Cond selects the arm taken when Src's test evaluates to that
// exact value. A block with multiple outgoing edges has at most one nil
// edge, and all non-nil Cond values on its outgoing edges are distinct.
type FlowEdge struct {
	Src  *BasicBlock
	Dst  *BasicBlock
	Cond *float64
}

func (e *FlowEdge) String() string {
	if e.Cond == nil {
		return fmt.Sprintf("B%d -> B%d [default]", e.Src.ID, e.Dst.ID)
	}
	return fmt.Sprintf("B%d -> B%d [%g]", e.Src.ID, e.Dst.ID, *e.Cond)
}

func condFloat(v float64) *float64 { return &v }

// Default is the canonical nil-Cond edge constructor.
func Default() *float64 { return nil }

// BasicBlock is a node of the CFG: a phi map, an ordered statement list, a
// branch test expression, and its incoming/outgoing edges.
//
// Phis map a target place to its incoming-block -> source-place arms. The
// keys of the inner map must exactly equal the block's predecessor set at
// the moment the phi is observed (spec.md §3 Invariants).
type BasicBlock struct {
	ID         int
	Phis       map[any]*Phi
	Statements []Node
	Test       Node
	Incoming   []*FlowEdge
	Outgoing   []*FlowEdge
}

// Phi is a join-point selector: picks a value based on which predecessor
// block executed. Target is the place the phi defines; Args maps each
// predecessor block to the place it supplies.
type Phi struct {
	Target Place
	Args   map[*BasicBlock]Place
}

// Connect creates a flow edge from src to dst with the given condition and
// registers it on both blocks' edge lists.
func Connect(src, dst *BasicBlock, cond *float64) *FlowEdge {
	e := &FlowEdge{Src: src, Dst: dst, Cond: cond}
	src.Outgoing = append(src.Outgoing, e)
	dst.Incoming = append(dst.Incoming, e)
	return e
}

// Disconnect removes e from both endpoints' edge lists.
func Disconnect(e *FlowEdge) {
	e.Src.Outgoing = removeEdge(e.Src.Outgoing, e)
	e.Dst.Incoming = removeEdge(e.Dst.Incoming, e)
}

func removeEdge(edges []*FlowEdge, target *FlowEdge) []*FlowEdge {
	out := edges[:0]
	for _, e := range edges {
		if e != target {
			out = append(out, e)
		}
	}
	return out
}

// Predecessors returns the distinct source blocks of b's incoming edges.
func (b *BasicBlock) Predecessors() []*BasicBlock {
	seen := map[*BasicBlock]bool{}
	var out []*BasicBlock
	for _, e := range b.Incoming {
		if !seen[e.Src] {
			seen[e.Src] = true
			out = append(out, e.Src)
		}
	}
	return out
}

// Successors returns the distinct destination blocks of b's outgoing edges,
// in the deterministic order defined by SortedOutgoing.
func (b *BasicBlock) Successors() []*BasicBlock {
	seen := map[*BasicBlock]bool{}
	var out []*BasicBlock
	for _, e := range SortedOutgoing(b) {
		if !seen[e.Dst] {
			seen[e.Dst] = true
			out = append(out, e.Dst)
		}
	}
	return out
}

// SortedOutgoing returns b's outgoing edges in deterministic order: numeric
// conditions ascending, then the default (nil) edge last.
func SortedOutgoing(b *BasicBlock) []*FlowEdge {
	out := make([]*FlowEdge, len(b.Outgoing))
	copy(out, b.Outgoing)
	sort.SliceStable(out, func(i, j int) bool {
		a, c := out[i].Cond, out[j].Cond
		if (a == nil) != (c == nil) {
			return a != nil // non-nil before nil
		}
		if a == nil {
			return false
		}
		return *a < *c
	})
	return out
}

// DefaultEdge returns b's nil-Cond outgoing edge, or nil if it has none.
func (b *BasicBlock) DefaultEdge() *FlowEdge {
	for _, e := range b.Outgoing {
		if e.Cond == nil {
			return e
		}
	}
	return nil
}

// EdgeFor returns b's outgoing edge whose Cond equals v, or nil.
func (b *BasicBlock) EdgeFor(v float64) *FlowEdge {
	for _, e := range b.Outgoing {
		if e.Cond != nil && *e.Cond == v {
			return e
		}
	}
	return nil
}

// PhiFor returns the phi keyed by place p's comparison key, creating it
// (with an empty Args map) if absent.
func (b *BasicBlock) PhiFor(p Place) *Phi {
	k := p.key()
	if ph, ok := b.Phis[k]; ok {
		return ph
	}
	ph := &Phi{Target: p, Args: map[*BasicBlock]Place{}}
	if b.Phis == nil {
		b.Phis = map[any]*Phi{}
	}
	b.Phis[k] = ph
	return ph
}

// CFG is one compilation unit (one callback): its entry block and the
// counter that gives each new block a distinct, increasing ID. Blocks,
// edges and phi args refer to blocks by pointer, not through the CFG.
type CFG struct {
	Entry  *BasicBlock
	nextID int
}

// NewCFG creates an empty CFG arena. Callers set Entry once the entry block
// has been allocated.
func NewCFG() *CFG { return &CFG{} }

// NewBlock allocates a fresh block with the next stable id.
func (c *CFG) NewBlock() *BasicBlock {
	b := &BasicBlock{ID: c.nextID, Phis: map[any]*Phi{}}
	c.nextID++
	return b
}

// ReversePostorder returns reachable blocks in reverse-postorder starting
// from entry, using the deterministic successor order (SortedOutgoing).
func ReversePostorder(entry *BasicBlock) []*BasicBlock {
	post := Postorder(entry)
	out := make([]*BasicBlock, len(post))
	for i, b := range post {
		out[len(post)-1-i] = b
	}
	return out
}

// Postorder returns reachable blocks from entry in postorder.
func Postorder(entry *BasicBlock) []*BasicBlock {
	visited := map[*BasicBlock]bool{}
	var order []*BasicBlock
	var visit func(b *BasicBlock)
	visit = func(b *BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, succ := range b.Successors() {
			visit(succ)
		}
		order = append(order, b)
	}
	visit(entry)
	return order
}

// Preorder returns reachable blocks from entry in preorder.
func Preorder(entry *BasicBlock) []*BasicBlock {
	visited := map[*BasicBlock]bool{}
	var order []*BasicBlock
	var visit func(b *BasicBlock)
	visit = func(b *BasicBlock) {
		if visited[b] {
			return
		}
		visited[b] = true
		order = append(order, b)
		for _, succ := range b.Successors() {
			visit(succ)
		}
	}
	visit(entry)
	return order
}

// Reachable returns the set of blocks reachable from entry.
func Reachable(entry *BasicBlock) map[*BasicBlock]bool {
	out := map[*BasicBlock]bool{}
	for _, b := range Preorder(entry) {
		out[b] = true
	}
	return out
}

// Exits returns reachable blocks with no outgoing edges.
func Exits(entry *BasicBlock) []*BasicBlock {
	var out []*BasicBlock
	for _, b := range Preorder(entry) {
		if len(b.Outgoing) == 0 {
			out = append(out, b)
		}
	}
	return out
}
