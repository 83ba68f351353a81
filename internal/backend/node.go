// Package backend linearizes an allocated CFG into the engine's jump-loop
// node tree, per spec.md §4.16. Grounded on
// original_source/sonolus/backend/finalize.py and
// original_source/sonolus/backend/node.py.
package backend

import (
	"fmt"
	"strings"

	"sonobackend/internal/ir"
)

// Node is the engine's own expression tree, distinct from ir.Node: once a
// CFG reaches this package it has been fully allocated (every BlockPlace
// names a FixedBlock, never a TempBlock) and has no further use for
// places, statements, or control-flow edges — only function calls over
// numeric constants.
type Node interface {
	node()
	String() string
}

// ConstantNode is a numeric literal argument or node.
type ConstantNode struct {
	Value float64
}

func (*ConstantNode) node() {}

func (c *ConstantNode) String() string { return fmt.Sprintf("%g", c.Value) }

// FunctionNode calls an engine opcode with ordered arguments.
type FunctionNode struct {
	Func ir.Op
	Args []Node
}

func (*FunctionNode) node() {}

func (f *FunctionNode) String() string {
	parts := make([]string, len(f.Args))
	for i, a := range f.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", f.Func.Name(), strings.Join(parts, ", "))
}
