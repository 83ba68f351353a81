package asm

import (
	"fmt"

	"sonobackend/internal/blocks"
	"sonobackend/internal/errors"
	"sonobackend/internal/ir"
)

// Builder turns a parsed Program into a *ir.CFG, resolving symbolic fixed
// block names against a callback mode's table the way a real frontend would
// resolve a host-language name to its runtime block id.
type Builder struct {
	Mode blocks.Mode

	cfg    *ir.CFG
	blocks map[int]*ir.BasicBlock
	temps  map[string]ir.TempBlock
}

// Build parses src and lowers it into a CFG for the given callback mode.
func Build(mode blocks.Mode, filename, src string) (*ir.CFG, error) {
	prog, err := Parse(filename, src)
	if err != nil {
		return nil, err
	}
	return NewBuilder(mode).BuildProgram(prog)
}

// NewBuilder returns a Builder resolving symbolic block names against mode.
func NewBuilder(mode blocks.Mode) *Builder {
	return &Builder{
		Mode:   mode,
		cfg:    ir.NewCFG(),
		blocks: map[int]*ir.BasicBlock{},
		temps:  map[string]ir.TempBlock{},
	}
}

// BuildProgram lowers prog into a CFG rooted at its first declared block.
func (b *Builder) BuildProgram(prog *Program) (*ir.CFG, error) {
	if len(prog.Blocks) == 0 {
		return nil, errors.MalformedCFG("assembly program declares no blocks")
	}

	for _, blk := range prog.Blocks {
		if _, dup := b.blocks[blk.ID]; dup {
			return nil, errors.MalformedCFG(fmt.Sprintf("block %d declared more than once", blk.ID))
		}
		b.blocks[blk.ID] = b.cfg.NewBlock()
	}
	b.cfg.Entry = b.blocks[prog.Blocks[0].ID]

	for _, blk := range prog.Blocks {
		if err := b.buildBlock(blk); err != nil {
			return nil, err
		}
	}
	return b.cfg, nil
}

func (b *Builder) buildBlock(blk *Block) error {
	bb := b.blocks[blk.ID]

	for _, stmt := range blk.Stmts {
		place, err := b.buildPlace(stmt.Place)
		if err != nil {
			return err
		}
		value, err := b.buildExpr(stmt.Value)
		if err != nil {
			return err
		}
		bb.Statements = append(bb.Statements, &ir.Set{Place: place, Value: value})
	}

	if blk.Test != nil {
		test, err := b.buildExpr(blk.Test)
		if err != nil {
			return err
		}
		bb.Test = test
	}

	if len(blk.Edges) == 0 {
		return nil
	}
	for _, edge := range blk.Edges {
		dst, ok := b.blocks[edge.Target]
		if !ok {
			return errors.MalformedCFG(fmt.Sprintf("block %d has an edge to undeclared block %d", blk.ID, edge.Target))
		}
		if edge.Default {
			ir.Connect(bb, dst, ir.Default())
			continue
		}
		if edge.Cond == nil {
			return errors.MalformedCFG(fmt.Sprintf("block %d has an edge with no condition or default marker", blk.ID))
		}
		cond := *edge.Cond
		ir.Connect(bb, dst, &cond)
	}
	return nil
}

func (b *Builder) buildExpr(e *Expr) (ir.Node, error) {
	switch {
	case e.Number != nil:
		return ir.NewConst(*e.Number), nil
	case e.Get != nil:
		place, err := b.buildPlace(e.Get)
		if err != nil {
			return nil, err
		}
		return &ir.Get{Place: place}, nil
	case e.Call != nil:
		op, ok := ir.LookupOp(e.Call.Op)
		if !ok {
			return nil, errors.MalformedCFG(fmt.Sprintf("unknown operator %q", e.Call.Op))
		}
		args := make([]ir.Node, len(e.Call.Args))
		for i, a := range e.Call.Args {
			arg, err := b.buildExpr(a)
			if err != nil {
				return nil, err
			}
			args[i] = arg
		}
		if op.Pure() {
			return &ir.PureOp{Op: op, Args: args}, nil
		}
		return &ir.OpNode{Op: op, Args: args}, nil
	default:
		return nil, errors.MalformedCFG("empty expression")
	}
}

func (b *Builder) buildPlace(p *Place) (ir.Place, error) {
	block, err := b.buildBlockRef(p.Block)
	if err != nil {
		return nil, err
	}
	return ir.BlockPlace{Block: block, Index: p.Index, Offset: p.Offset}, nil
}

func (b *Builder) buildBlockRef(ref *BlockRef) (ir.BlockID, error) {
	if ref.TempName != "" {
		size := ref.TempSize
		if size == 0 {
			size = 1
		}
		t, ok := b.temps[ref.TempName]
		if !ok {
			t = ir.TempBlock{Name: ref.TempName, Size: size}
			b.temps[ref.TempName] = t
		}
		return t, nil
	}
	if ref.FixedID != nil {
		return ir.FixedBlock(*ref.FixedID), nil
	}
	entry, ok := b.Mode.ResolveByName(ref.Symbol)
	if !ok {
		return nil, errors.UnknownBlockName(ref.Symbol, b.Mode.Names(), errors.Position{})
	}
	return ir.FixedBlock(entry.ID), nil
}
