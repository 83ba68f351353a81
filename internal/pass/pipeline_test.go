package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonobackend/internal/asm"
	"sonobackend/internal/backend"
	"sonobackend/internal/blocks"
	"sonobackend/internal/interp"
	"sonobackend/internal/ir"
)

const pipelineFixture = `
block 0 {
	set(%x[0], 3)
	test get(%x[0])
	-> default: 1
	-> 0: 2
}
block 1 {
	set(%y[0], Add(get(%x[0]), 1))
	set(%log[0], DebugLog(get(%y[0])))
}
block 2 {
	set(%log[0], DebugLog(0))
}
`

func TestMinimalAllocatesEveryPlaceIntoScratch(t *testing.T) {
	cfg, err := asm.Build(blocks.Play, "minimal.asm", pipelineFixture)
	require.NoError(t, err)

	require.NoError(t, Run(cfg, Minimal()))

	for _, b := range ir.Preorder(cfg.Entry) {
		for _, s := range b.Statements {
			set, ok := s.(*ir.Set)
			if !ok {
				continue
			}
			bp, ok := set.Place.(ir.BlockPlace)
			require.True(t, ok)
			assert.Equal(t, ir.ScratchBlock, bp.Block)
		}
	}

	tree := backend.Linearize(cfg)
	it := interp.New()
	it.Run(tree)
	require.Len(t, it.Log, 1)
	assert.Equal(t, 4.0, it.Log[0])
}

func TestFastAllocatesEveryPlaceIntoScratch(t *testing.T) {
	cfg, err := asm.Build(blocks.Play, "fast.asm", pipelineFixture)
	require.NoError(t, err)

	require.NoError(t, Run(cfg, Fast()))

	tree := backend.Linearize(cfg)
	it := interp.New()
	it.Run(tree)
	require.Len(t, it.Log, 1)
	assert.Equal(t, 4.0, it.Log[0])
}

func TestStandardProducesTheSameObservableResultAsMinimal(t *testing.T) {
	cfgMinimal, err := asm.Build(blocks.Play, "min.asm", pipelineFixture)
	require.NoError(t, err)
	cfgStandard, err := asm.Build(blocks.Play, "std.asm", pipelineFixture)
	require.NoError(t, err)

	require.NoError(t, Run(cfgMinimal, Minimal()))
	require.NoError(t, Run(cfgStandard, Standard()))

	itMin := interp.New()
	itMin.Run(backend.Linearize(cfgMinimal))
	itStd := interp.New()
	itStd.Run(backend.Linearize(cfgStandard))

	assert.Equal(t, itMin.Log, itStd.Log, "optimization must not change the callback's observable log output")
}
