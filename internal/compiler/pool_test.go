package compiler_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonobackend/internal/asm"
	"sonobackend/internal/blocks"
	"sonobackend/internal/compiler"
	"sonobackend/internal/interp"
	"sonobackend/internal/pass"
)

func TestPoolRunPreservesSubmissionOrder(t *testing.T) {
	var jobs []compiler.Job
	for i := 0; i < 5; i++ {
		src := `
block 0 {
	set(%log[0], DebugLog(` + strconv.Itoa(i) + `))
}
`
		cfg, err := asm.Build(blocks.Play, "job.asm", src)
		require.NoError(t, err)
		jobs = append(jobs, compiler.NewJob("job", cfg))
	}

	pool := compiler.NewPool(3, func() []pass.Pass { return pass.Standard() })
	results := pool.Run(jobs)
	require.Len(t, results, len(jobs))

	for i, r := range results {
		require.NoError(t, r.Err)
		require.Equal(t, jobs[i].ID, r.JobID)

		it := interp.New()
		it.Run(r.Node)
		require.Len(t, it.Log, 1)
		assert.Equal(t, float64(i), it.Log[0])
	}
}

func TestPoolRunWithCacheReusesIdenticalJobs(t *testing.T) {
	src := `
block 0 {
	set(%log[0], DebugLog(1))
}
`
	cfgA, err := asm.Build(blocks.Play, "a.asm", src)
	require.NoError(t, err)
	cfgB, err := asm.Build(blocks.Play, "b.asm", src)
	require.NoError(t, err)

	pool := compiler.NewPool(2, func() []pass.Pass { return pass.Standard() })
	pool.Cache = compiler.NewCompileCache()

	results := pool.Run([]compiler.Job{
		compiler.NewJob("a", cfgA),
		compiler.NewJob("b", cfgB),
	})
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.NoError(t, results[1].Err)
	assert.Same(t, results[0].Node, results[1].Node)
}

