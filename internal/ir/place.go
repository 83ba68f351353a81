// Package ir defines the IR/CFG data model of the backend compiler: places,
// expression/statement nodes, basic blocks, and flow edges.
package ir

import "fmt"

// BlockID identifies the memory block a BlockPlace refers to. It is either a
// FixedBlock (a runtime-defined numeric block id, including the scratch
// region 10000 once allocation has run) or a TempBlock (an unallocated,
// named abstract storage region). Both are plain comparable value types so
// BlockPlace itself remains usable as a map key.
type BlockID interface {
	blockID()
	String() string
}

// FixedBlock is a numeric memory block id with runtime-defined semantics
// (see internal/blocks for the tables of reserved ids).
type FixedBlock int

func (FixedBlock) blockID() {}

func (b FixedBlock) String() string { return fmt.Sprintf("block#%d", int(b)) }

// ScratchBlock is the fixed id of the 4096-cell scratch region that
// allocation ultimately assigns every surviving temp block into.
const ScratchBlock FixedBlock = 10000

// ScratchSize is the default capacity, in cells, of the scratch region.
const ScratchSize = 4096

// TempBlock is a named abstract storage region of Size cells, created by the
// frontend or by SSA destruction (one per retired SSA place) and consumed by
// allocation. Size-1 temps behave like scalars; Size>1 temps are arrays
// whose elements alias. Equality and hashing (via plain Go struct identity)
// are by Name+Size, matching the original compiler's TempBlock semantics.
type TempBlock struct {
	Name string
	Size int
}

func (TempBlock) blockID() {}

func (t TempBlock) String() string {
	if t.Size == 1 {
		return t.Name
	}
	return fmt.Sprintf("%s[%d]", t.Name, t.Size)
}

// At returns the BlockPlace for cell i of this temp block.
func (t TempBlock) At(i int) BlockPlace {
	return BlockPlace{Block: t, Index: i}
}

// Place is a statement/expression operand that can be read (Get) or written
// (Set): either a BlockPlace (fixed block or not-yet-allocated temp) or an
// SSAPlace (only valid between ToSSA and FromSSA).
type Place interface {
	place()
	String() string
	// key returns a value usable as a map key for equality purposes that
	// match the original compiler's equality rules (BlockPlace ignores
	// Offset; SSAPlace is full value equality).
	key() any
}

// BlockPlace refers to cell Index+Offset of Block. Equality and hashing are
// defined over (Block, Index) only — Offset is a static adjustment applied
// after an equality-relevant base address is established (e.g. within an
// array), mirroring the original's BlockPlace semantics.
type BlockPlace struct {
	Block  BlockID
	Index  int
	Offset int
}

func (BlockPlace) place() {}

func (p BlockPlace) String() string {
	if p.Offset != 0 {
		return fmt.Sprintf("%s[%d+%d]", p.Block, p.Index, p.Offset)
	}
	return fmt.Sprintf("%s[%d]", p.Block, p.Index)
}

type blockPlaceKey struct {
	Block BlockID
	Index int
}

func (p BlockPlace) key() any { return blockPlaceKey{p.Block, p.Index} }

// WithOffset returns a copy of p with Offset increased by delta.
func (p BlockPlace) WithOffset(delta int) BlockPlace {
	p.Offset += delta
	return p
}

// SSAPlace is a versioned virtual register produced by SSA construction.
// Only size-1 temp blocks are ever SSA-promoted.
type SSAPlace struct {
	Name    string
	Version int
}

func (SSAPlace) place() {}

func (p SSAPlace) String() string { return fmt.Sprintf("%s.%d", p.Name, p.Version) }

func (p SSAPlace) key() any { return p }

// ErrSSAPlace is the sentinel produced when SSA renaming encounters a use
// with no reaching definition. Such a use is only ever reachable along a
// provably dead path; no pass may assign it a concrete lattice value (see
// DESIGN.md's Open Question resolution for the "err" sentinel).
var ErrSSAPlace = SSAPlace{Name: "err", Version: 0}

// PlaceEqual reports whether two places are equal under the original
// compiler's equality rules.
func PlaceEqual(a, b Place) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.key() == b.key()
}

// PlaceKey exposes Place's comparable equality key to other packages (for
// use as a map key in liveness/interference/allocation bookkeeping) without
// exporting the key method itself.
func PlaceKey(p Place) any { return p.key() }
