package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonobackend/internal/asm"
	"sonobackend/internal/backend"
	"sonobackend/internal/blocks"
	"sonobackend/internal/compiler"
	"sonobackend/internal/interp"
	"sonobackend/internal/pass"
)

func TestCompileLinearizesAndIsInterpretable(t *testing.T) {
	src := `
block 0 {
	set(%x[0], 3)
	set(%log[0], DebugLog(Add(get(%x[0]), 4)))
}
`
	cfg, err := asm.Build(blocks.Play, "compile.asm", src)
	require.NoError(t, err)

	node, err := compiler.Compile(cfg, pass.Standard())
	require.NoError(t, err)

	it := interp.New()
	it.Run(node)
	require.Len(t, it.Log, 1)
	assert.Equal(t, 7.0, it.Log[0])
}

// CompileCached must only compile once per structural hash: a second call
// with an independently-built but structurally identical CFG returns the
// same cached node rather than recompiling.
func TestCompileCachedReusesResultForIdenticalStructure(t *testing.T) {
	src := `
block 0 {
	set(%x[0], 1)
	set(%log[0], DebugLog(get(%x[0])))
}
`
	cfgA, err := asm.Build(blocks.Play, "a.asm", src)
	require.NoError(t, err)
	cfgB, err := asm.Build(blocks.Play, "b.asm", src)
	require.NoError(t, err)

	cache := compiler.NewCompileCache()
	nodeA, err := compiler.CompileCached(cache, cfgA, pass.Standard())
	require.NoError(t, err)
	nodeB, err := compiler.CompileCached(cache, cfgB, pass.Standard())
	require.NoError(t, err)

	assert.Same(t, nodeA, nodeB)
	var _ backend.Node = nodeA
}
