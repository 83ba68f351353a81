package blocks_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sonobackend/internal/blocks"
)

func TestEachModeTableCarriesTemporaryMemory(t *testing.T) {
	for _, m := range []blocks.Mode{blocks.Play, blocks.Watch, blocks.Preview, blocks.Tutorial} {
		entry, ok := m.Lookup("TemporaryMemory")
		require.True(t, ok, "%s table must carry the shared scratch region", m)
		assert.Equal(t, blocks.TemporaryMemory, entry.ID)
	}
}

func TestLookupMissingNameFails(t *testing.T) {
	_, ok := blocks.Play.Lookup("DoesNotExist")
	assert.False(t, ok)
}

func TestResolveByNameCanonicalizesCasing(t *testing.T) {
	want, ok := blocks.Play.Lookup("RuntimeUpdate")
	require.True(t, ok)

	for _, variant := range []string{"runtime_update", "runtime-update", "RuntimeUpdate", "runtimeUpdate"} {
		got, ok := blocks.Play.ResolveByName(variant)
		require.True(t, ok, "variant %q must resolve", variant)
		assert.Equal(t, want.ID, got.ID)
	}
}

func TestNamesAreSortedAndComplete(t *testing.T) {
	names := blocks.Play.Names()
	table := blocks.Play.Table()
	require.Len(t, names, len(table))
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i], "Names() must be sorted")
	}
	for _, n := range names {
		_, ok := table[n]
		assert.True(t, ok)
	}
}

func TestCallbacksUnionsReadableAndWritablePhases(t *testing.T) {
	callbacks := blocks.Play.Callbacks()
	assert.Contains(t, callbacks, "preprocess")
	assert.Contains(t, callbacks, "touch")
	for i := 1; i < len(callbacks); i++ {
		assert.Less(t, callbacks[i-1], callbacks[i], "Callbacks() must be sorted")
	}
}

// RuntimeEnvironment is writable only in preprocess across every mode that
// defines it — a representative entry worth pinning directly rather than
// only exercising the table generically.
func TestRuntimeEnvironmentWritableOnlyInPreprocess(t *testing.T) {
	for _, m := range []blocks.Mode{blocks.Play, blocks.Watch, blocks.Preview, blocks.Tutorial} {
		entry, ok := m.Lookup("RuntimeEnvironment")
		require.True(t, ok)
		assert.Equal(t, map[string]bool{"preprocess": true}, entry.Writable)
	}
}

func TestModeStringNamesEachMode(t *testing.T) {
	assert.Equal(t, "play", blocks.Play.String())
	assert.Equal(t, "watch", blocks.Watch.String())
	assert.Equal(t, "preview", blocks.Preview.String())
	assert.Equal(t, "tutorial", blocks.Tutorial.String())
}

func TestUnknownModeTableIsNil(t *testing.T) {
	var m blocks.Mode = 99
	assert.Nil(t, m.Table())
	assert.Equal(t, "unknown", m.String())
}
