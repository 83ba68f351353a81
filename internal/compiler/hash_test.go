package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonobackend/internal/asm"
	"sonobackend/internal/blocks"
	"sonobackend/internal/compiler"
)

// Two independently-parsed but structurally identical programs hash the
// same, even though their blocks are distinct pointer instances.
func TestHashCFGIsStructurallyDeterministic(t *testing.T) {
	src := `
block 0 {
	set(%x[0], 1)
	set(%log[0], DebugLog(get(%x[0])))
}
`
	a, err := asm.Build(blocks.Play, "a.asm", src)
	require.NoError(t, err)
	b, err := asm.Build(blocks.Play, "b.asm", src)
	require.NoError(t, err)

	assert.Equal(t, compiler.HashCFG(a), compiler.HashCFG(b))
}

// A different constant operand changes the hash.
func TestHashCFGDiffersOnOperand(t *testing.T) {
	srcA := `
block 0 {
	set(%x[0], 1)
}
`
	srcB := `
block 0 {
	set(%x[0], 2)
}
`
	a, err := asm.Build(blocks.Play, "a.asm", srcA)
	require.NoError(t, err)
	b, err := asm.Build(blocks.Play, "b.asm", srcB)
	require.NoError(t, err)

	assert.NotEqual(t, compiler.HashCFG(a), compiler.HashCFG(b))
}

// A different edge condition changes the hash even when block bodies match.
func TestHashCFGDiffersOnEdgeCondition(t *testing.T) {
	srcA := `
block 0 {
	test get(%x[0])
	-> default: 1
	-> 0: 2
}
block 1 {
	set(%log[0], DebugLog(1))
}
block 2 {
	set(%log[0], DebugLog(2))
}
`
	srcB := `
block 0 {
	test get(%x[0])
	-> default: 1
	-> 1: 2
}
block 1 {
	set(%log[0], DebugLog(1))
}
block 2 {
	set(%log[0], DebugLog(2))
}
`
	a, err := asm.Build(blocks.Play, "a.asm", srcA)
	require.NoError(t, err)
	b, err := asm.Build(blocks.Play, "b.asm", srcB)
	require.NoError(t, err)

	assert.NotEqual(t, compiler.HashCFG(a), compiler.HashCFG(b))
}
