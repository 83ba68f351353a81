package backend

import (
	"fmt"

	"sonobackend/internal/ir"
)

// Linearize numbers cfg's blocks in preorder and produces the jump-loop
// node tree of spec.md §4.16: one Execute node per block (its lowered
// statements plus a terminator), wrapped in JumpLoop and then Block so an
// outer Break can terminate cleanly. cfg must already be fully allocated —
// every place it references must be a FixedBlock, never a TempBlock.
func Linearize(cfg *ir.CFG) Node {
	blocks := ir.Preorder(cfg.Entry)
	blockIndex := make(map[*ir.BasicBlock]int, len(blocks))
	for i, b := range blocks {
		blockIndex[b] = i
	}
	nBlocks := len(blocks)

	blockStatements := make([]Node, 0, len(blocks)+1)
	for _, b := range blocks {
		statements := make([]Node, 0, len(b.Statements)+1)
		for _, s := range b.Statements {
			statements = append(statements, lowerExpr(s))
		}
		statements = append(statements, terminatorNode(b, blockIndex, nBlocks))
		blockStatements = append(blockStatements, &FunctionNode{Func: ir.OpExecute, Args: statements})
	}
	blockStatements = append(blockStatements, &ConstantNode{Value: 0})

	jumpLoop := &FunctionNode{Func: ir.OpJumpLoop, Args: blockStatements}
	return &FunctionNode{Func: ir.OpBlock, Args: []Node{jumpLoop}}
}

// terminatorNode encodes b's outgoing edges as one of the four shapes
// spec.md §4.16 names: no successor, a single fallthrough, a 2-way
// If-shaped branch, or a general multi-way switch.
func terminatorNode(b *ir.BasicBlock, blockIndex map[*ir.BasicBlock]int, nBlocks int) Node {
	def := b.DefaultEdge()
	zero := b.EdgeFor(0)

	switch {
	case len(b.Outgoing) == 0:
		return &ConstantNode{Value: float64(nBlocks)}
	case len(b.Outgoing) == 1 && def != nil:
		return &ConstantNode{Value: float64(blockIndex[def.Dst])}
	case len(b.Outgoing) == 2 && def != nil && zero != nil:
		return &FunctionNode{Func: ir.OpIf, Args: []Node{
			lowerExpr(b.Test),
			&ConstantNode{Value: float64(blockIndex[def.Dst])},
			&ConstantNode{Value: float64(blockIndex[zero.Dst])},
		}}
	default:
		return switchNode(b, blockIndex, nBlocks)
	}
}

func switchNode(b *ir.BasicBlock, blockIndex map[*ir.BasicBlock]int, nBlocks int) Node {
	args := []Node{lowerExpr(b.Test)}
	defaultIdx := nBlocks
	for _, e := range ir.SortedOutgoing(b) {
		if e.Cond == nil {
			defaultIdx = blockIndex[e.Dst]
			continue
		}
		args = append(args, &ConstantNode{Value: *e.Cond}, &ConstantNode{Value: float64(blockIndex[e.Dst])})
	}
	args = append(args, &ConstantNode{Value: float64(defaultIdx)})
	return &FunctionNode{Func: ir.OpSwitchWithDefault, Args: args}
}

func lowerExpr(n ir.Node) Node {
	switch v := n.(type) {
	case *ir.Const:
		return &ConstantNode{Value: v.Value}
	case *ir.PureOp:
		return &FunctionNode{Func: v.Op, Args: lowerArgs(v.Args)}
	case *ir.OpNode:
		return &FunctionNode{Func: v.Op, Args: lowerArgs(v.Args)}
	case *ir.Get:
		return lowerPlace(v.Place)
	case *ir.Set:
		get := lowerPlace(v.Place).(*FunctionNode)
		args := append(append([]Node{}, get.Args...), lowerExpr(v.Value))
		return &FunctionNode{Func: ir.OpSet, Args: args}
	default:
		panic(fmt.Sprintf("backend: unsupported ir node %T reached linearization", n))
	}
}

func lowerArgs(args []ir.Node) []Node {
	out := make([]Node, len(args))
	for i, a := range args {
		out[i] = lowerExpr(a)
	}
	return out
}

// lowerPlace renders p as Get(block, index), combining a non-zero static
// Offset into the index expression the same way the original compiler
// does: a bare constant when only one of Index/Offset is non-zero, an Add
// when both are.
func lowerPlace(p ir.Place) Node {
	bp, ok := p.(ir.BlockPlace)
	if !ok {
		panic(fmt.Sprintf("backend: place %s reached linearization unallocated", p))
	}
	fb, ok := bp.Block.(ir.FixedBlock)
	if !ok {
		panic(fmt.Sprintf("backend: temp block %s reached linearization unallocated", bp.Block))
	}
	blockNode := &ConstantNode{Value: float64(fb)}

	var index Node
	switch {
	case bp.Offset == 0:
		index = &ConstantNode{Value: float64(bp.Index)}
	case bp.Index == 0:
		index = &ConstantNode{Value: float64(bp.Offset)}
	default:
		index = &FunctionNode{Func: ir.OpAdd, Args: []Node{
			&ConstantNode{Value: float64(bp.Index)},
			&ConstantNode{Value: float64(bp.Offset)},
		}}
	}
	return &FunctionNode{Func: ir.OpGet, Args: []Node{blockNode, index}}
}
