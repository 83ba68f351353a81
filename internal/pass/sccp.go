package pass

import "sonobackend/internal/ir"

// SCCP is sparse conditional constant propagation over SSA places, with a
// dual flow/SSA worklist, per spec.md §4.9. Grounded on
// original_source/sonolus/backend/optimize/sccp.py.
type SCCP struct{ Base }

func NewSCCP() *SCCP {
	return &SCCP{Base{Req: []ID{IDToSSA}, App: Self(IDSCCP)}}
}

func (p *SCCP) ID() ID              { return IDSCCP }
func (p *SCCP) Description() string { return "propagate constants through SSA places with reachability" }

type sccpKind int

const (
	sccpUndefined sccpKind = iota
	sccpConstant
	sccpNAC
)

type sccpValue struct {
	Kind  sccpKind
	Value float64
}

func meet(a, b sccpValue) sccpValue {
	if a.Kind == sccpUndefined {
		return b
	}
	if b.Kind == sccpUndefined {
		return a
	}
	if a.Kind == sccpNAC || b.Kind == sccpNAC {
		return sccpValue{Kind: sccpNAC}
	}
	if a.Value == b.Value {
		return a
	}
	return sccpValue{Kind: sccpNAC}
}

func (p *SCCP) Run(cfg *ir.CFG) bool {
	blocks := ir.Preorder(cfg.Entry)

	values := map[any]sccpValue{}
	// the "err" sentinel never propagates as a constant (DESIGN.md Open
	// Question resolution); seed it at NAC permanently.
	values[ir.PlaceKey(ir.ErrSSAPlace)] = sccpValue{Kind: sccpNAC}

	getVal := func(sp ir.SSAPlace) sccpValue {
		if v, ok := values[ir.PlaceKey(sp)]; ok {
			return v
		}
		return sccpValue{Kind: sccpUndefined}
	}
	setVal := func(sp ir.SSAPlace, v sccpValue) bool {
		k := ir.PlaceKey(sp)
		if old, ok := values[k]; ok && old == v {
			return false
		}
		values[k] = v
		return true
	}

	executableEdges := map[*ir.FlowEdge]bool{}
	blockExecuted := map[*ir.BasicBlock]bool{}

	useBlocks := map[any][]*ir.BasicBlock{}
	for _, b := range blocks {
		seen := map[any]bool{}
		recordUses := func(n ir.Node) {
			for _, u := range usesOf(n) {
				if sp, ok := u.(ir.SSAPlace); ok {
					k := ir.PlaceKey(sp)
					if !seen[k] {
						seen[k] = true
						useBlocks[k] = append(useBlocks[k], b)
					}
				}
			}
		}
		for _, s := range b.Statements {
			recordUses(s)
		}
		if b.Test != nil {
			recordUses(b.Test)
		}
	}

	var flowWork []*ir.BasicBlock
	var ssaWork []ir.SSAPlace

	markExecutable := func(e *ir.FlowEdge) {
		if executableEdges[e] {
			return
		}
		executableEdges[e] = true
		blockExecuted[e.Dst] = true
		flowWork = append(flowWork, e.Dst)
	}

	evalNode := func(n ir.Node) sccpValue { return sccpEvalNode(n, getVal) }

	process := func(b *ir.BasicBlock) {
		for _, ph := range b.Phis {
			sp, ok := ph.Target.(ir.SSAPlace)
			if !ok {
				continue
			}
			result := sccpValue{Kind: sccpUndefined}
			for pred, src := range ph.Args {
				e := findEdge(pred, b)
				if e == nil || !executableEdges[e] {
					continue
				}
				asp, ok := src.(ir.SSAPlace)
				if !ok {
					result = sccpValue{Kind: sccpNAC}
					continue
				}
				result = meet(result, getVal(asp))
			}
			if setVal(sp, result) {
				ssaWork = append(ssaWork, sp)
			}
		}

		for _, s := range b.Statements {
			set, ok := s.(*ir.Set)
			if !ok {
				continue
			}
			sp, ok := set.Place.(ir.SSAPlace)
			if !ok {
				continue
			}
			if setVal(sp, evalNode(set.Value)) {
				ssaWork = append(ssaWork, sp)
			}
		}

		if b.Test == nil {
			if len(b.Outgoing) == 1 {
				markExecutable(b.Outgoing[0])
			}
			return
		}

		switch tv := evalNode(b.Test); tv.Kind {
		case sccpConstant:
			if e := b.EdgeFor(tv.Value); e != nil {
				markExecutable(e)
			} else if e := b.DefaultEdge(); e != nil {
				markExecutable(e)
			}
		case sccpNAC:
			for _, e := range b.Outgoing {
				markExecutable(e)
			}
		default:
			if len(b.Outgoing) == 1 {
				markExecutable(b.Outgoing[0])
			}
		}
	}

	if len(blocks) > 0 {
		blockExecuted[cfg.Entry] = true
		flowWork = append(flowWork, cfg.Entry)
	}

	for len(flowWork) > 0 || len(ssaWork) > 0 {
		for len(flowWork) > 0 {
			b := flowWork[0]
			flowWork = flowWork[1:]
			process(b)
		}
		for len(ssaWork) > 0 {
			sp := ssaWork[0]
			ssaWork = ssaWork[1:]
			for _, b := range useBlocks[ir.PlaceKey(sp)] {
				if blockExecuted[b] {
					process(b)
				}
			}
		}
	}

	changed := false
	for _, b := range blocks {
		for i, s := range b.Statements {
			b.Statements[i] = sccpSubstitute(s, getVal, &changed)
		}
		if b.Test != nil {
			b.Test = sccpSubstitute(b.Test, getVal, &changed)
		}
	}
	return changed
}

func findEdge(src, dst *ir.BasicBlock) *ir.FlowEdge {
	for _, e := range src.Outgoing {
		if e.Dst == dst {
			return e
		}
	}
	return nil
}

// sccpEvalNode evaluates n under the current lattice. Only SSAPlace reads
// participate in the lattice — any other place (a fixed block, an
// un-promoted array temp) is externally supplied and is always NAC, never
// left Undefined, matching classical SCCP's treatment of analysis-external
// values as pessimistic from the start rather than optimistic.
func sccpEvalNode(n ir.Node, getVal func(ir.SSAPlace) sccpValue) sccpValue {
	switch v := n.(type) {
	case *ir.Const:
		return sccpValue{Kind: sccpConstant, Value: v.Value}
	case *ir.Get:
		sp, ok := v.Place.(ir.SSAPlace)
		if !ok {
			return sccpValue{Kind: sccpNAC}
		}
		return getVal(sp)
	case *ir.PureOp:
		return sccpEvalOp(v.Op, v.Args, getVal)
	default:
		return sccpValue{Kind: sccpNAC}
	}
}

func sccpEvalOp(op ir.Op, args []ir.Node, getVal func(ir.SSAPlace) sccpValue) sccpValue {
	vals := make([]sccpValue, len(args))
	for i, a := range args {
		vals[i] = sccpEvalNode(a, getVal)
	}

	switch op {
	case ir.OpAnd:
		for _, v := range vals {
			if v.Kind == sccpConstant && v.Value == 0 {
				return sccpValue{Kind: sccpConstant, Value: 0}
			}
		}
	case ir.OpOr:
		for _, v := range vals {
			if v.Kind == sccpConstant && v.Value != 0 {
				return sccpValue{Kind: sccpConstant, Value: 1}
			}
		}
	case ir.OpMultiply:
		for _, v := range vals {
			if v.Kind == sccpConstant && v.Value == 0 {
				return sccpValue{Kind: sccpConstant, Value: 0}
			}
		}
	}

	if !ir.SCCPSupported(op) {
		return sccpValue{Kind: sccpNAC}
	}

	hasNAC, hasUndef := false, false
	nums := make([]float64, len(vals))
	for i, v := range vals {
		switch v.Kind {
		case sccpNAC:
			hasNAC = true
		case sccpUndefined:
			hasUndef = true
		case sccpConstant:
			nums[i] = v.Value
		}
	}
	if hasNAC {
		return sccpValue{Kind: sccpNAC}
	}
	if hasUndef {
		return sccpValue{Kind: sccpUndefined}
	}

	result, ok := applyPureOp(op, nums)
	if !ok {
		return sccpValue{Kind: sccpNAC}
	}
	return sccpValue{Kind: sccpConstant, Value: result}
}

func sccpSubstitute(n ir.Node, getVal func(ir.SSAPlace) sccpValue, changed *bool) ir.Node {
	switch v := n.(type) {
	case *ir.Get:
		sp, ok := v.Place.(ir.SSAPlace)
		if !ok {
			return v
		}
		if val := getVal(sp); val.Kind == sccpConstant {
			*changed = true
			return ir.NewConst(val.Value)
		}
		return v
	case *ir.PureOp:
		// A pure expression the lattice has already proven constant folds
		// outright, not just its Get-of-a-constant-place leaves — spec.md
		// §8's S3 needs a test like Equal(y, 5) to become a bare Const
		// immediately after this pass, not after some later arithmetic pass.
		if val := sccpEvalNode(v, getVal); val.Kind == sccpConstant {
			*changed = true
			return ir.NewConst(val.Value)
		}
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = sccpSubstitute(a, getVal, changed)
		}
		return &ir.PureOp{Op: v.Op, Args: args}
	case *ir.OpNode:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = sccpSubstitute(a, getVal, changed)
		}
		return &ir.OpNode{Op: v.Op, Args: args}
	case *ir.Set:
		return &ir.Set{Place: v.Place, Value: sccpSubstitute(v.Value, getVal, changed)}
	default:
		return n
	}
}
