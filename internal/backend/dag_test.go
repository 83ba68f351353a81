package backend_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonobackend/internal/backend"
	"sonobackend/internal/ir"
)

// Two occurrences of the same constant collapse into a single table slot.
func TestFlattenDedupsRepeatedConstant(t *testing.T) {
	five := &backend.ConstantNode{Value: 5}
	tree := &backend.FunctionNode{Func: ir.OpAdd, Args: []backend.Node{five, five}}

	table := backend.Flatten(tree)
	require.Len(t, table.Entries, 2) // the constant, then the Add call
	root := table.Entries[table.Root]
	require.False(t, root.IsConst)
	assert.Equal(t, root.Args[0], root.Args[1], "both operands must reference the same deduped slot")
}

// Two structurally identical calls over already-deduped constants also
// collapse into one slot.
func TestFlattenDedupsRepeatedCall(t *testing.T) {
	mkGet := func() backend.Node {
		return &backend.FunctionNode{Func: ir.OpGet, Args: []backend.Node{
			&backend.ConstantNode{Value: 10000},
			&backend.ConstantNode{Value: 3},
		}}
	}
	tree := &backend.FunctionNode{Func: ir.OpAdd, Args: []backend.Node{mkGet(), mkGet()}}

	table := backend.Flatten(tree)
	// 2 constants (10000, 3) + 1 Get + 1 Add = 4 total slots.
	require.Len(t, table.Entries, 4)
	root := table.Entries[table.Root]
	assert.Equal(t, root.Args[0], root.Args[1])
}

// Two NaN constants collapse into one slot too, since dedup keys on the raw
// bit pattern rather than float equality (NaN != NaN).
func TestFlattenDedupsNaNConstants(t *testing.T) {
	nan := math.NaN()
	tree := &backend.FunctionNode{Func: ir.OpAdd, Args: []backend.Node{
		&backend.ConstantNode{Value: nan},
		&backend.ConstantNode{Value: nan},
	}}

	table := backend.Flatten(tree)
	require.Len(t, table.Entries, 2)
}

// Distinct constants and distinct calls each get their own slot.
func TestFlattenKeepsDistinctNodesSeparate(t *testing.T) {
	tree := &backend.FunctionNode{Func: ir.OpAdd, Args: []backend.Node{
		&backend.ConstantNode{Value: 1},
		&backend.ConstantNode{Value: 2},
	}}

	table := backend.Flatten(tree)
	require.Len(t, table.Entries, 3)
	root := table.Entries[table.Root]
	assert.NotEqual(t, root.Args[0], root.Args[1])
}
