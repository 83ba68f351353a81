package pass

import "sonobackend/internal/ir"

// CopyCoalesce is a linear-scan style coalescer over size-1 temps, per
// spec.md §4.14. Grounded on
// original_source/sonolus/backend/optimize/coalesce_copy.py. It runs between
// FromSSA and AdvancedDCE in the Standard pipeline, before LivenessAnalysis
// has run, so it computes its own backward-liveness fixed point rather than
// sharing an instance the way AdvancedDCE does.
type CopyCoalesce struct{ Base }

func NewCopyCoalesce() *CopyCoalesce {
	return &CopyCoalesce{Base{App: Self(IDCopyCoalesce)}}
}

func (p *CopyCoalesce) ID() ID { return IDCopyCoalesce }
func (p *CopyCoalesce) Description() string {
	return "coalesce non-interfering copy-related size-1 temps into one name"
}

func (p *CopyCoalesce) Run(cfg *ir.CFG) bool {
	blocks := ir.Preorder(cfg.Entry)
	if len(ir.Exits(cfg.Entry)) == 0 {
		return false
	}

	info := newLivenessInfo()
	runArrayInitRefinement(blocks, info)
	runBackwardLiveness(cfg, blocks, info)
	pruneArrayLiveness(info)

	allTemps := map[ir.TempBlock]bool{}
	var copies [][2]ir.TempBlock

	for _, b := range blocks {
		for _, s := range b.Statements {
			set, ok := s.(*ir.Set)
			if !ok {
				continue
			}
			t, ok := size1Temp(set.Place)
			if !ok {
				continue
			}
			allTemps[t] = true
			g, ok := set.Value.(*ir.Get)
			if !ok {
				continue
			}
			src, ok := size1Temp(g.Place)
			if !ok || src == t {
				continue
			}
			allTemps[src] = true
			copies = append(copies, [2]ir.TempBlock{t, src})
		}
	}

	var tempList []ir.TempBlock
	for t := range allTemps {
		tempList = append(tempList, t)
	}
	uf := newUnionFind(tempList)

	for _, b := range blocks {
		for _, s := range b.Statements {
			var live []ir.TempBlock
			for _, pl := range info.LiveOut[s] {
				if t, ok := size1Temp(pl); ok && allTemps[t] {
					live = append(live, t)
				}
			}
			for i := 0; i < len(live); i++ {
				for j := i + 1; j < len(live); j++ {
					uf.addInterference(live[i], live[j])
				}
			}
		}
	}

	changed := false
	for _, c := range copies {
		t, s := c[0], c[1]
		if uf.interferes(t, s) {
			continue
		}
		if uf.find(t) != uf.find(s) {
			changed = true
		}
		uf.union(t, s)
	}
	if !changed {
		return false
	}

	remap := map[ir.TempBlock]ir.TempBlock{}
	for t := range allTemps {
		if r := uf.find(t); r != t {
			remap[t] = r
		}
	}

	for _, b := range blocks {
		for i, s := range b.Statements {
			b.Statements[i] = remapTemps(s, remap)
		}
		if b.Test != nil {
			b.Test = remapTemps(b.Test, remap)
		}
	}
	return true
}

func size1Temp(p ir.Place) (ir.TempBlock, bool) {
	bp, ok := p.(ir.BlockPlace)
	if !ok {
		return ir.TempBlock{}, false
	}
	t, ok := bp.Block.(ir.TempBlock)
	if !ok || t.Size != 1 {
		return ir.TempBlock{}, false
	}
	return t, true
}

func remapTemps(n ir.Node, remap map[ir.TempBlock]ir.TempBlock) ir.Node {
	switch v := n.(type) {
	case *ir.Get:
		if t, ok := size1Temp(v.Place); ok {
			if r, ok2 := remap[t]; ok2 {
				return &ir.Get{Place: r.At(0)}
			}
		}
		return v
	case *ir.PureOp:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = remapTemps(a, remap)
		}
		return &ir.PureOp{Op: v.Op, Args: args}
	case *ir.OpNode:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = remapTemps(a, remap)
		}
		return &ir.OpNode{Op: v.Op, Args: args}
	case *ir.Set:
		value := remapTemps(v.Value, remap)
		if t, ok := size1Temp(v.Place); ok {
			if r, ok2 := remap[t]; ok2 {
				return &ir.Set{Place: r.At(0), Value: value}
			}
		}
		return &ir.Set{Place: v.Place, Value: value}
	default:
		return n
	}
}

// unionFind merges size-1 temps into coalescing groups, keeping each live
// root's combined interference neighborhood current as groups merge — a
// plain pairwise interference check would miss the case where a
// newly-merged group as a whole conflicts with a copy partner even though
// neither original temp did alone.
type unionFind struct {
	parent    map[ir.TempBlock]ir.TempBlock
	neighbors map[ir.TempBlock]map[ir.TempBlock]bool
}

func newUnionFind(temps []ir.TempBlock) *unionFind {
	uf := &unionFind{parent: map[ir.TempBlock]ir.TempBlock{}, neighbors: map[ir.TempBlock]map[ir.TempBlock]bool{}}
	for _, t := range temps {
		uf.parent[t] = t
		uf.neighbors[t] = map[ir.TempBlock]bool{}
	}
	return uf
}

func (uf *unionFind) find(t ir.TempBlock) ir.TempBlock {
	p, ok := uf.parent[t]
	if !ok {
		return t
	}
	if p == t {
		return t
	}
	root := uf.find(p)
	uf.parent[t] = root
	return root
}

func (uf *unionFind) addInterference(a, b ir.TempBlock) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	uf.neighbors[ra][rb] = true
	uf.neighbors[rb][ra] = true
}

func (uf *unionFind) interferes(a, b ir.TempBlock) bool {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return false
	}
	return uf.neighbors[ra][rb]
}

// union merges b's group into a's, choosing the lexicographically-minimal
// name as the surviving root so the final remap is deterministic regardless
// of copy-edge visiting order.
func (uf *unionFind) union(a, b ir.TempBlock) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if lessTemp(rb, ra) {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	for n := range uf.neighbors[rb] {
		if n == ra {
			continue
		}
		uf.neighbors[ra][n] = true
		uf.neighbors[n][ra] = true
		delete(uf.neighbors[n], rb)
	}
	delete(uf.neighbors, rb)
}

func lessTemp(a, b ir.TempBlock) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Size < b.Size
}
