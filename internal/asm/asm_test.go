package asm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonobackend/internal/asm"
	"sonobackend/internal/blocks"
	"sonobackend/internal/ir"
)

func TestParseSimpleBlock(t *testing.T) {
	src := `
block 0 {
	set(%acc[0], Add(1, 2))
	-> default: 1
}
block 1 {
}
`
	prog, err := asm.Parse("t.asm", src)
	require.NoError(t, err)
	require.Len(t, prog.Blocks, 2)
	assert.Equal(t, 0, prog.Blocks[0].ID)
	require.Len(t, prog.Blocks[0].Stmts, 1)
	require.Len(t, prog.Blocks[0].Edges, 1)
	assert.True(t, prog.Blocks[0].Edges[0].Default)
}

func TestBuildProgramConnectsEdges(t *testing.T) {
	src := `
block 0 {
	set(%x[0], 1)
	test get(%x[0])
	-> 1: 1
	-> default: 2
}
block 1 {
}
block 2 {
}
`
	cfg, err := asm.Build(blocks.Play, "t.asm", src)
	require.NoError(t, err)
	require.NotNil(t, cfg.Entry)

	assert.Len(t, cfg.Entry.Statements, 1)
	set, ok := cfg.Entry.Statements[0].(*ir.Set)
	require.True(t, ok)
	place, ok := set.Place.(ir.BlockPlace)
	require.True(t, ok)
	temp, ok := place.Block.(ir.TempBlock)
	require.True(t, ok)
	assert.Equal(t, "x", temp.Name)

	require.NotNil(t, cfg.Entry.Test)
	require.Len(t, cfg.Entry.Outgoing, 2)

	def := cfg.Entry.DefaultEdge()
	require.NotNil(t, def)
	assert.Equal(t, 2, def.Dst.ID)

	one := cfg.Entry.EdgeFor(1)
	require.NotNil(t, one)
	assert.Equal(t, 1, one.Dst.ID)
}

func TestBuildResolvesSymbolicBlockName(t *testing.T) {
	src := `
block 0 {
	set(runtime_update[0], get(runtime_update[0]))
}
`
	cfg, err := asm.Build(blocks.Play, "t.asm", src)
	require.NoError(t, err)
	set := cfg.Entry.Statements[0].(*ir.Set)
	place := set.Place.(ir.BlockPlace)
	fixed, ok := place.Block.(ir.FixedBlock)
	require.True(t, ok)

	entry, ok := blocks.Play.ResolveByName("runtime_update")
	require.True(t, ok)
	assert.Equal(t, ir.FixedBlock(entry.ID), fixed)
}

func TestBuildUnknownBlockNameFails(t *testing.T) {
	src := `
block 0 {
	set(nosuchblock[0], 1)
}
`
	_, err := asm.Build(blocks.Play, "t.asm", src)
	assert.Error(t, err)
}

func TestBuildDuplicateBlockIDFails(t *testing.T) {
	src := `
block 0 {
}
block 0 {
}
`
	_, err := asm.Build(blocks.Play, "t.asm", src)
	assert.Error(t, err)
}
