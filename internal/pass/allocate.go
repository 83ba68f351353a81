package pass

import (
	"sort"

	"sonobackend/internal/errors"
	"sonobackend/internal/ir"
)

// collectTemps returns every TempBlock referenced by cfg, in first-seen
// preorder, the iteration order AllocateBasic and AllocateFast allocate in.
func collectTemps(cfg *ir.CFG) []ir.TempBlock {
	seen := map[ir.TempBlock]bool{}
	var order []ir.TempBlock
	record := func(p ir.Place) {
		bp, ok := p.(ir.BlockPlace)
		if !ok {
			return
		}
		t, ok := bp.Block.(ir.TempBlock)
		if !ok || seen[t] {
			return
		}
		seen[t] = true
		order = append(order, t)
	}
	for _, b := range ir.Preorder(cfg.Entry) {
		for _, s := range b.Statements {
			if set, ok := s.(*ir.Set); ok {
				record(set.Place)
			}
			for _, u := range usesOf(s) {
				record(u)
			}
		}
		if b.Test != nil {
			for _, u := range usesOf(b.Test) {
				record(u)
			}
		}
	}
	return order
}

// buildInterference computes its own backward-liveness fixed point (every
// allocation pass runs late enough that no shared LivenessAnalysis instance
// is guaranteed to still be active) and returns, for every temp block
// referenced by cfg, the set of other temp blocks simultaneously live at
// some Set statement.
func buildInterference(cfg *ir.CFG, blocks []*ir.BasicBlock) (map[ir.TempBlock]map[ir.TempBlock]bool, *LivenessInfo) {
	info := newLivenessInfo()
	runArrayInitRefinement(blocks, info)
	runBackwardLiveness(cfg, blocks, info)
	pruneArrayLiveness(info)

	interferes := map[ir.TempBlock]map[ir.TempBlock]bool{}
	add := func(a, b ir.TempBlock) {
		if a == b {
			return
		}
		if interferes[a] == nil {
			interferes[a] = map[ir.TempBlock]bool{}
		}
		if interferes[b] == nil {
			interferes[b] = map[ir.TempBlock]bool{}
		}
		interferes[a][b] = true
		interferes[b][a] = true
	}

	for _, b := range blocks {
		for _, s := range b.Statements {
			seen := map[ir.TempBlock]bool{}
			var live []ir.TempBlock
			for _, pl := range info.LiveOut[s] {
				bp, ok := pl.(ir.BlockPlace)
				if !ok {
					continue
				}
				t, ok := bp.Block.(ir.TempBlock)
				if !ok || seen[t] {
					continue
				}
				seen[t] = true
				live = append(live, t)
			}
			for i := 0; i < len(live); i++ {
				for j := i + 1; j < len(live); j++ {
					add(live[i], live[j])
				}
			}
		}
	}
	return interferes, info
}

// sweepDeadSets deletes every statement info proves dead, the "final sweep
// of dead Sets using liveness annotations" spec.md §4.15 piggybacks on
// allocation's interference traversal rather than re-running a whole DCE
// pass — allocation has already visited every statement to compute
// interference.
func sweepDeadSets(blocks []*ir.BasicBlock, info *LivenessInfo) bool {
	changed := false
	for _, b := range blocks {
		kept := b.Statements[:0]
		for _, s := range b.Statements {
			if info.Eliminable(s) {
				changed = true
				continue
			}
			kept = append(kept, s)
		}
		b.Statements = kept
	}
	return changed
}

// applyAllocation rewrites every TempBlock place into the scratch region at
// its assigned base offset, or reports AllocationOverflow if any temp
// doesn't fit within capacity.
func applyAllocation(cfg *ir.CFG, offsets map[ir.TempBlock]int, capacity int) (bool, error) {
	for t, base := range offsets {
		if base+t.Size > capacity {
			return false, errors.AllocationOverflow(t.Name, base, t.Size, capacity)
		}
	}

	changed := false
	for _, b := range ir.Preorder(cfg.Entry) {
		for i, s := range b.Statements {
			b.Statements[i] = remapAllocated(s, offsets, &changed)
		}
		if b.Test != nil {
			b.Test = remapAllocated(b.Test, offsets, &changed)
		}
	}
	return changed, nil
}

func allocatedPlace(p ir.Place, offsets map[ir.TempBlock]int) (ir.BlockPlace, bool) {
	bp, ok := p.(ir.BlockPlace)
	if !ok {
		return ir.BlockPlace{}, false
	}
	t, ok := bp.Block.(ir.TempBlock)
	if !ok {
		return ir.BlockPlace{}, false
	}
	base, ok := offsets[t]
	if !ok {
		return ir.BlockPlace{}, false
	}
	return ir.BlockPlace{Block: ir.ScratchBlock, Index: base + bp.Index, Offset: bp.Offset}, true
}

func remapAllocated(n ir.Node, offsets map[ir.TempBlock]int, changed *bool) ir.Node {
	switch v := n.(type) {
	case *ir.Get:
		if np, ok := allocatedPlace(v.Place, offsets); ok {
			*changed = true
			return &ir.Get{Place: np}
		}
		return v
	case *ir.PureOp:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = remapAllocated(a, offsets, changed)
		}
		return &ir.PureOp{Op: v.Op, Args: args}
	case *ir.OpNode:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = remapAllocated(a, offsets, changed)
		}
		return &ir.OpNode{Op: v.Op, Args: args}
	case *ir.Set:
		value := remapAllocated(v.Value, offsets, changed)
		place := v.Place
		if np, ok := allocatedPlace(v.Place, offsets); ok {
			*changed = true
			place = np
		}
		return &ir.Set{Place: place, Value: value}
	default:
		return n
	}
}

// AllocateBasic stacks every temp back-to-back into the scratch region in
// first-seen order, ignoring interference entirely — the cheapest possible
// allocator, for the Minimal pipeline. Grounded on
// original_source/sonolus/backend/optimize/allocate.py's simplest strategy.
type AllocateBasic struct {
	Base
	Capacity int
	Err      error
}

func NewAllocateBasic() *AllocateBasic {
	return &AllocateBasic{Base: Base{App: Self(IDAllocateBasic)}, Capacity: ir.ScratchSize}
}

func (p *AllocateBasic) ID() ID            { return IDAllocateBasic }
func (p *AllocateBasic) FatalError() error { return p.Err }
func (p *AllocateBasic) SetCapacity(n int) { p.Capacity = n }
func (p *AllocateBasic) Description() string {
	return "stack every temp back-to-back into the scratch region, ignoring interference"
}

func (p *AllocateBasic) Run(cfg *ir.CFG) bool {
	offsets := map[ir.TempBlock]int{}
	next := 0
	for _, t := range collectTemps(cfg) {
		offsets[t] = next
		next += t.Size
	}
	changed, err := applyAllocation(cfg, offsets, p.Capacity)
	p.Err = err
	return changed
}

// AllocateFast greedily places each temp past the highest end offset among
// its already-assigned interfering neighbors, folding a dead-code
// elimination sweep into the same Run call since the Fast pipeline never
// schedules DCE separately (spec.md §4.2).
type AllocateFast struct {
	Base
	Capacity int
	Err      error
}

func NewAllocateFast() *AllocateFast {
	return &AllocateFast{Base: Base{App: Self(IDAllocateFast)}, Capacity: ir.ScratchSize}
}

func (p *AllocateFast) ID() ID            { return IDAllocateFast }
func (p *AllocateFast) FatalError() error { return p.Err }
func (p *AllocateFast) SetCapacity(n int) { p.Capacity = n }
func (p *AllocateFast) Description() string {
	return "greedily pack temps past their interfering neighbors' end offsets, folding in DCE first"
}

func (p *AllocateFast) Run(cfg *ir.CFG) bool {
	changed := forwardDCEPass(cfg, nil)

	blocks := ir.Preorder(cfg.Entry)
	interferes, info := buildInterference(cfg, blocks)
	if sweepDeadSets(blocks, info) {
		changed = true
	}
	temps := collectTemps(cfg)

	offsets := map[ir.TempBlock]int{}
	for _, t := range temps {
		end := 0
		for n := range interferes[t] {
			if base, ok := offsets[n]; ok {
				if e := base + n.Size; e > end {
					end = e
				}
			}
		}
		offsets[t] = end
	}

	assigned, err := applyAllocation(cfg, offsets, p.Capacity)
	p.Err = err
	return changed || assigned
}

// Allocate is the full graph-coloring-style allocator for the Standard
// pipeline: temps are visited largest-first, and each is placed in the
// first gap, among its already-assigned interfering neighbors' occupied
// ranges, that fits its size. Grounded on
// original_source/sonolus/backend/optimize/allocate.py.
type Allocate struct {
	Base
	Capacity int
	Err      error
}

func NewAllocate() *Allocate {
	return &Allocate{Base: Base{App: Self(IDAllocate)}, Capacity: ir.ScratchSize}
}

func (p *Allocate) ID() ID            { return IDAllocate }
func (p *Allocate) FatalError() error { return p.Err }
func (p *Allocate) SetCapacity(n int) { p.Capacity = n }
func (p *Allocate) Description() string {
	return "place temps largest-first into the first free gap among interfering neighbors"
}

func (p *Allocate) Run(cfg *ir.CFG) bool {
	blocks := ir.Preorder(cfg.Entry)
	interferes, info := buildInterference(cfg, blocks)
	swept := sweepDeadSets(blocks, info)
	temps := collectTemps(cfg)

	sort.SliceStable(temps, func(i, j int) bool { return temps[i].Size > temps[j].Size })

	offsets := map[ir.TempBlock]int{}
	ends := map[ir.TempBlock]int{}
	for _, t := range temps {
		var neighbors []ir.TempBlock
		for n := range interferes[t] {
			if _, ok := offsets[n]; ok {
				neighbors = append(neighbors, n)
			}
		}
		sort.SliceStable(neighbors, func(i, j int) bool { return ends[neighbors[i]] < ends[neighbors[j]] })

		occupied := make([][2]int, 0, len(neighbors))
		for _, n := range neighbors {
			occupied = append(occupied, [2]int{offsets[n], ends[n]})
		}

		offset := firstFit(occupied, t.Size)
		offsets[t] = offset
		ends[t] = offset + t.Size
	}

	changed, err := applyAllocation(cfg, offsets, p.Capacity)
	p.Err = err
	return changed || swept
}

// firstFit returns the smallest non-negative offset at which a region of
// the given size fits without overlapping any interval in occupied.
func firstFit(occupied [][2]int, size int) int {
	sort.SliceStable(occupied, func(i, j int) bool { return occupied[i][0] < occupied[j][0] })
	cursor := 0
	for _, iv := range occupied {
		if iv[0]-cursor >= size {
			return cursor
		}
		if iv[1] > cursor {
			cursor = iv[1]
		}
	}
	return cursor
}
