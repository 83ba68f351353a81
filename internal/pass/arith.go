package pass

import "sonobackend/internal/ir"

// ArithmeticSimplification flattens associative chains, folds constants,
// and drops identity/absorbing elements, per spec.md §4.10. Grounded on
// original_source/sonolus/backend/optimize/arithmetic.py.
type ArithmeticSimplification struct{ Base }

func NewArithmeticSimplification() *ArithmeticSimplification {
	return &ArithmeticSimplification{Base{App: Self(IDArithmeticSimplification)}}
}

func (p *ArithmeticSimplification) ID() ID { return IDArithmeticSimplification }
func (p *ArithmeticSimplification) Description() string {
	return "flatten associative chains, fold constants, drop identity/absorbing elements"
}

func (p *ArithmeticSimplification) Run(cfg *ir.CFG) bool {
	changed := false
	for _, b := range ir.Preorder(cfg.Entry) {
		for i, s := range b.Statements {
			ns := simplifyNode(s)
			if ns.String() != s.String() {
				changed = true
			}
			b.Statements[i] = ns
		}
		if b.Test != nil {
			nt := simplifyNode(b.Test)
			if nt.String() != b.Test.String() {
				changed = true
			}
			b.Test = nt
		}
	}
	return changed
}

func simplifyNode(n ir.Node) ir.Node {
	switch v := n.(type) {
	case *ir.Const, *ir.Get:
		return v
	case *ir.PureOp:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = simplifyNode(a)
		}
		return simplifyPureOp(v.Op, args)
	case *ir.OpNode:
		args := make([]ir.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = simplifyNode(a)
		}
		return &ir.OpNode{Op: v.Op, Args: args}
	case *ir.Set:
		return &ir.Set{Place: v.Place, Value: simplifyNode(v.Value)}
	default:
		return n
	}
}

// identityFor reports op's identity element: spec.md §4.10 limits identity
// dropping to Add/Subtract (0) and Multiply/Divide (1) — And/Or only get
// the short-circuit absorbing-element treatment, never identity dropping.
func identityFor(op ir.Op) (float64, bool) {
	switch op {
	case ir.OpAdd, ir.OpSubtract:
		return 0, true
	case ir.OpMultiply, ir.OpDivide:
		return 1, true
	}
	return 0, false
}

func simplifyPureOp(op ir.Op, args []ir.Node) ir.Node {
	switch op {
	case ir.OpAdd, ir.OpMultiply, ir.OpAnd, ir.OpOr:
		return simplifyAssociative(op, flattenAssociative(op, args))
	case ir.OpSubtract, ir.OpDivide:
		return simplifyBaseOp(op, args)
	default:
		return simplifyGeneric(op, args)
	}
}

func flattenAssociative(op ir.Op, args []ir.Node) []ir.Node {
	var out []ir.Node
	for _, a := range args {
		if p, ok := a.(*ir.PureOp); ok && p.Op == op {
			out = append(out, flattenAssociative(op, p.Args)...)
		} else {
			out = append(out, a)
		}
	}
	return out
}

func simplifyAssociative(op ir.Op, args []ir.Node) ir.Node {
	var consts []float64
	var rest []ir.Node
	for _, a := range args {
		if c, ok := a.(*ir.Const); ok {
			consts = append(consts, c.Value)
		} else {
			rest = append(rest, a)
		}
	}

	if len(consts) > 0 {
		folded, _ := applyPureOp(op, consts)
		switch op {
		case ir.OpMultiply:
			if folded == 0 {
				return ir.NewConst(0)
			}
		case ir.OpAnd:
			if folded == 0 {
				return ir.NewConst(0)
			}
		case ir.OpOr:
			if folded == 1 {
				return ir.NewConst(1)
			}
		}
		identity, isIdentity := identityFor(op)
		if !(isIdentity && folded == identity && len(rest) > 0) {
			rest = append(rest, ir.NewConst(folded))
		}
	}

	if len(rest) == 0 {
		v, _ := applyPureOp(op, nil)
		return ir.NewConst(v)
	}
	if len(rest) == 1 {
		return rest[0]
	}
	return &ir.PureOp{Op: op, Args: rest}
}

// simplifyBaseOp handles Subtract/Divide: the first argument is the base
// and is never reordered, but constants among the remaining operands still
// fold together since subtracting (or dividing by) a set of constants in
// any order yields the same result as subtracting their sum (or dividing
// by their product).
func simplifyBaseOp(op ir.Op, args []ir.Node) ir.Node {
	if len(args) == 0 {
		return &ir.PureOp{Op: op, Args: args}
	}

	allConst := true
	nums := make([]float64, len(args))
	for i, a := range args {
		if c, ok := a.(*ir.Const); ok {
			nums[i] = c.Value
		} else {
			allConst = false
		}
	}
	if allConst {
		if v, ok := applyPureOp(op, nums); ok {
			return ir.NewConst(v)
		}
		return &ir.PureOp{Op: op, Args: args}
	}

	base := args[0]
	var restConsts []float64
	var restNodes []ir.Node
	for _, a := range args[1:] {
		if c, ok := a.(*ir.Const); ok {
			restConsts = append(restConsts, c.Value)
		} else {
			restNodes = append(restNodes, a)
		}
	}

	identity, _ := identityFor(op)
	var folded float64
	switch op {
	case ir.OpSubtract:
		for _, c := range restConsts {
			folded += c
		}
	case ir.OpDivide:
		folded = 1
		for _, c := range restConsts {
			folded *= c
		}
	}

	newArgs := append([]ir.Node{base}, restNodes...)
	if len(restConsts) > 0 && folded != identity {
		newArgs = append(newArgs, ir.NewConst(folded))
	}

	if len(newArgs) == 1 {
		return newArgs[0]
	}
	return &ir.PureOp{Op: op, Args: newArgs}
}

func simplifyGeneric(op ir.Op, args []ir.Node) ir.Node {
	nums := make([]float64, len(args))
	for i, a := range args {
		c, ok := a.(*ir.Const)
		if !ok {
			return &ir.PureOp{Op: op, Args: args}
		}
		nums[i] = c.Value
	}
	if v, ok := applyPureOp(op, nums); ok {
		return ir.NewConst(v)
	}
	return &ir.PureOp{Op: op, Args: args}
}
