package backend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonobackend/internal/backend"
	"sonobackend/internal/ir"
)

func allocatedGet(index int) *ir.Get {
	return &ir.Get{Place: ir.BlockPlace{Block: ir.ScratchBlock, Index: index}}
}

func allocatedSet(index int, value ir.Node) *ir.Set {
	return &ir.Set{Place: ir.BlockPlace{Block: ir.ScratchBlock, Index: index}, Value: value}
}

// A single block with no outgoing edges terminates with the block count
// itself, the sentinel JumpLoop index that stops the loop.
func TestLinearizeNoSuccessorTerminatesAtBlockCount(t *testing.T) {
	cfg := ir.NewCFG()
	entry := cfg.NewBlock()
	cfg.Entry = entry
	entry.Statements = []ir.Node{allocatedSet(0, ir.NewConst(9))}

	tree := backend.Linearize(cfg)
	root, ok := tree.(*backend.FunctionNode)
	require.True(t, ok)
	require.Equal(t, ir.OpBlock, root.Func)
	require.Len(t, root.Args, 1)

	jumpLoop, ok := root.Args[0].(*backend.FunctionNode)
	require.True(t, ok)
	require.Equal(t, ir.OpJumpLoop, jumpLoop.Func)
	// one Execute per block plus the trailing sentinel Const(0).
	require.Len(t, jumpLoop.Args, 2)

	exec, ok := jumpLoop.Args[0].(*backend.FunctionNode)
	require.True(t, ok)
	require.Equal(t, ir.OpExecute, exec.Func)

	term := exec.Args[len(exec.Args)-1]
	c, ok := term.(*backend.ConstantNode)
	require.True(t, ok)
	assert.Equal(t, 1.0, c.Value, "terminator for a 0-successor block must equal the block count")
}

// A single unconditional successor lowers to a bare Const naming the
// target's preorder index.
func TestLinearizeSingleSuccessorIsBareConstant(t *testing.T) {
	cfg := ir.NewCFG()
	entry := cfg.NewBlock()
	next := cfg.NewBlock()
	cfg.Entry = entry
	ir.Connect(entry, next, nil)

	tree := backend.Linearize(cfg)
	jumpLoop := tree.(*backend.FunctionNode).Args[0].(*backend.FunctionNode)
	exec := jumpLoop.Args[0].(*backend.FunctionNode)
	term := exec.Args[len(exec.Args)-1].(*backend.ConstantNode)
	assert.Equal(t, 1.0, term.Value, "next is the second preorder block, index 1")
}

// A 2-way default/EdgeFor(0) branch lowers to an If node carrying the
// lowered test and both target indices.
func TestLinearizeTwoWayBranchIsIfNode(t *testing.T) {
	cfg := ir.NewCFG()
	entry := cfg.NewBlock()
	trueBlock := cfg.NewBlock()
	falseBlock := cfg.NewBlock()
	cfg.Entry = entry
	entry.Test = allocatedGet(0)
	ir.Connect(entry, trueBlock, ir.Default())
	zero := 0.0
	ir.Connect(entry, falseBlock, &zero)

	tree := backend.Linearize(cfg)
	jumpLoop := tree.(*backend.FunctionNode).Args[0].(*backend.FunctionNode)
	exec := jumpLoop.Args[0].(*backend.FunctionNode)
	term := exec.Args[len(exec.Args)-1].(*backend.FunctionNode)
	require.Equal(t, ir.OpIf, term.Func)
	require.Len(t, term.Args, 3)

	trueIdx := term.Args[1].(*backend.ConstantNode)
	falseIdx := term.Args[2].(*backend.ConstantNode)
	assert.Equal(t, 2.0, trueIdx.Value)
	assert.Equal(t, 1.0, falseIdx.Value)
}

// Three or more outgoing edges lower to a SwitchWithDefault carrying every
// cond/target pair plus the default's index last.
func TestLinearizeMultiwayBranchIsSwitchWithDefault(t *testing.T) {
	cfg := ir.NewCFG()
	entry := cfg.NewBlock()
	one := cfg.NewBlock()
	two := cfg.NewBlock()
	def := cfg.NewBlock()
	cfg.Entry = entry
	entry.Test = allocatedGet(0)
	c1, c2 := 1.0, 2.0
	ir.Connect(entry, one, &c1)
	ir.Connect(entry, two, &c2)
	ir.Connect(entry, def, ir.Default())

	tree := backend.Linearize(cfg)
	jumpLoop := tree.(*backend.FunctionNode).Args[0].(*backend.FunctionNode)
	exec := jumpLoop.Args[0].(*backend.FunctionNode)
	term := exec.Args[len(exec.Args)-1].(*backend.FunctionNode)
	require.Equal(t, ir.OpSwitchWithDefault, term.Func)

	// test, then (cond,target) pairs for the two non-default edges, then
	// the trailing default index.
	require.Len(t, term.Args, 1+2*2+1)
	lastArg := term.Args[len(term.Args)-1].(*backend.ConstantNode)
	defIdx := float64(blockIndexOf(cfg, def))
	assert.Equal(t, defIdx, lastArg.Value)
}

func blockIndexOf(cfg *ir.CFG, target *ir.BasicBlock) int {
	for i, b := range ir.Preorder(cfg.Entry) {
		if b == target {
			return i
		}
	}
	return -1
}

// A Set statement lowers to an OpSet call over the Get-shaped block/index
// pair plus the lowered value, not a bare assignment node.
func TestLinearizeSetLowersToOpSetCall(t *testing.T) {
	cfg := ir.NewCFG()
	entry := cfg.NewBlock()
	cfg.Entry = entry
	entry.Statements = []ir.Node{allocatedSet(3, ir.NewConst(5))}

	tree := backend.Linearize(cfg)
	jumpLoop := tree.(*backend.FunctionNode).Args[0].(*backend.FunctionNode)
	exec := jumpLoop.Args[0].(*backend.FunctionNode)
	require.Len(t, exec.Args, 2) // the Set, then the terminator
	set := exec.Args[0].(*backend.FunctionNode)
	require.Equal(t, ir.OpSet, set.Func)
	require.Len(t, set.Args, 3)

	block := set.Args[0].(*backend.ConstantNode)
	index := set.Args[1].(*backend.ConstantNode)
	value := set.Args[2].(*backend.ConstantNode)
	assert.Equal(t, float64(ir.ScratchBlock), block.Value)
	assert.Equal(t, 3.0, index.Value)
	assert.Equal(t, 5.0, value.Value)
}

// lowerPlace panics on a place that never went through allocation, since
// Linearize's contract requires every BlockPlace to already name a
// FixedBlock.
func TestLinearizePanicsOnUnallocatedPlace(t *testing.T) {
	cfg := ir.NewCFG()
	entry := cfg.NewBlock()
	cfg.Entry = entry
	temp := ir.TempBlock{Name: "x", Size: 1}
	entry.Statements = []ir.Node{&ir.Set{Place: temp.At(0), Value: ir.NewConst(1)}}

	assert.Panics(t, func() { backend.Linearize(cfg) })
}
