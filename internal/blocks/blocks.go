// Package blocks enumerates the fixed memory-block ids each callback mode
// exposes, per spec.md §6. Grounded on
// original_source/sonolus/backend/blocks.py and
// original_source/sonolus/backend/mode.py.
package blocks

import (
	"sort"

	"github.com/iancoleman/strcase"
)

// ID is a fixed block's numeric id, e.g. 1000 for RuntimeEnvironment or
// 10000 for the shared scratch region.
type ID int

// TemporaryMemory is the 4096-cell scratch region every mode shares,
// block id 10000 — the allocation target of internal/pass's Allocate
// family.
const TemporaryMemory ID = 10000

// Entry describes one fixed block: its numeric id and the callback
// phases, by name, in which it may be read and written. A statement that
// writes to a block outside Writable is a frontend-level error; this
// package's backend-facing callers treat the access as opaque and do not
// enforce it themselves.
type Entry struct {
	ID       ID
	Readable map[string]bool
	Writable map[string]bool
}

func phases(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Mode selects which block table and callback set a compilation targets.
type Mode int

const (
	Play Mode = iota
	Watch
	Preview
	Tutorial
)

func (m Mode) String() string {
	switch m {
	case Play:
		return "play"
	case Watch:
		return "watch"
	case Preview:
		return "preview"
	case Tutorial:
		return "tutorial"
	default:
		return "unknown"
	}
}

// Table returns m's symbolic-name-to-Entry block table.
func (m Mode) Table() map[string]Entry {
	switch m {
	case Play:
		return playBlocks
	case Watch:
		return watchBlocks
	case Preview:
		return previewBlocks
	case Tutorial:
		return tutorialBlocks
	default:
		return nil
	}
}

// Callbacks returns the sorted union, across every block in m's table, of
// the callback phase names that appear in any Readable or Writable set —
// the mode's complete set of addressable entry points. Grounded on
// Mode.callbacks in mode.py, which unions the same two sets per block.
func (m Mode) Callbacks() []string {
	seen := map[string]bool{}
	for _, e := range m.Table() {
		for p := range e.Readable {
			seen[p] = true
		}
		for p := range e.Writable {
			seen[p] = true
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Names returns the sorted symbolic names of every block in m's table, for
// typo-suggestion diagnostics when ResolveByName fails to match one.
func (m Mode) Names() []string {
	table := m.Table()
	out := make([]string, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup resolves a symbolic block name (already in the table's defined
// casing, e.g. "RuntimeUpdate") against m's table.
func (m Mode) Lookup(name string) (Entry, bool) {
	e, ok := m.Table()[name]
	return e, ok
}

// ResolveByName canonicalizes name to the table's UpperCamelCase casing
// before looking it up, so debug tooling and the asm DSL's `block` token
// can accept whatever casing a user types (runtime_update, runtime-update,
// RuntimeUpdate) and still resolve the same entry.
func (m Mode) ResolveByName(name string) (Entry, bool) {
	return m.Lookup(strcase.ToCamel(name))
}
