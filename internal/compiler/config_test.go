package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonobackend/internal/compiler"
	"sonobackend/internal/pass"
)

func TestLoadConfigFillsDefaultsForUnsetFields(t *testing.T) {
	cfg, err := compiler.LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, compiler.DefaultConfig(), cfg)
}

func TestLoadConfigHonorsExplicitFields(t *testing.T) {
	cfg, err := compiler.LoadConfig(strings.NewReader("pipeline: fast\nscratch_size: 128\nworker_pool_size: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, "fast", cfg.Pipeline)
	assert.Equal(t, 128, cfg.ScratchSize)
	assert.Equal(t, 4, cfg.WorkerPoolSize)
}

func TestConfigPassesRejectsUnknownPipeline(t *testing.T) {
	cfg := compiler.DefaultConfig()
	cfg.Pipeline = "nonsense"
	_, err := cfg.Passes()
	assert.Error(t, err)
}

func TestConfigPassesAppliesScratchSizeOverride(t *testing.T) {
	cfg := compiler.DefaultConfig()
	cfg.Pipeline = "minimal"
	cfg.ScratchSize = 64
	passes, err := cfg.Passes()
	require.NoError(t, err)
	require.NotEmpty(t, passes)

	alloc, ok := passes[len(passes)-1].(*pass.AllocateBasic)
	require.True(t, ok, "minimal's last pass must be AllocateBasic")
	assert.Equal(t, 64, alloc.Capacity)
}
