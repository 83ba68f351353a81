package compiler

import (
	"encoding/binary"
	"hash/maphash"
	"math"

	"sonobackend/internal/ir"
)

// hashSeed is fixed once per process so two calls to HashCFG for
// structurally identical CFGs within the same run always agree, which is
// all the single-producer-per-key CompileCache contract needs — it is not
// meant to be stable across process restarts or used as a persisted key.
var hashSeed = maphash.MakeSeed()

// HashCFG computes a structural hash of cfg: block shapes, statement op
// codes and constant operands, and edge conditions, walked in
// reverse-postorder so the hash only depends on reachable structure, not
// on incidental block-id numbering. Referenced but not defined in the
// retrieved original_source pack (compile.py calls hash_cfg without
// showing its body) — see DESIGN.md.
func HashCFG(cfg *ir.CFG) uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)

	blocks := ir.ReversePostorder(cfg.Entry)
	index := make(map[*ir.BasicBlock]int, len(blocks))
	for i, b := range blocks {
		index[b] = i
	}

	writeUint(&h, uint64(len(blocks)))
	for _, b := range blocks {
		writeUint(&h, uint64(len(b.Statements)))
		for _, s := range b.Statements {
			writeNode(&h, s)
		}
		h.WriteByte('T')
		writeNode(&h, b.Test)

		edges := ir.SortedOutgoing(b)
		writeUint(&h, uint64(len(edges)))
		for _, e := range edges {
			if e.Cond == nil {
				h.WriteByte('d') // default edge
			} else {
				h.WriteByte('c')
				writeFloat(&h, *e.Cond)
			}
			writeUint(&h, uint64(index[e.Dst]))
		}
	}

	return h.Sum64()
}

func writeNode(h *maphash.Hash, n ir.Node) {
	if n == nil {
		h.WriteByte('0')
		return
	}
	switch v := n.(type) {
	case *ir.Const:
		h.WriteByte('k')
		writeFloat(h, v.Value)
	case *ir.PureOp:
		h.WriteByte('p')
		writeUint(h, uint64(v.Op))
		writeUint(h, uint64(len(v.Args)))
		for _, a := range v.Args {
			writeNode(h, a)
		}
	case *ir.OpNode:
		h.WriteByte('o')
		writeUint(h, uint64(v.Op))
		writeUint(h, uint64(len(v.Args)))
		for _, a := range v.Args {
			writeNode(h, a)
		}
	case *ir.Get:
		h.WriteByte('g')
		writePlace(h, v.Place)
	case *ir.Set:
		h.WriteByte('s')
		writePlace(h, v.Place)
		writeNode(h, v.Value)
	default:
		h.WriteByte('?')
	}
}

func writePlace(h *maphash.Hash, p ir.Place) {
	switch v := p.(type) {
	case ir.BlockPlace:
		h.WriteByte('b')
		switch blk := v.Block.(type) {
		case ir.FixedBlock:
			h.WriteByte('f')
			writeUint(h, uint64(blk))
		case ir.TempBlock:
			h.WriteByte('t')
			h.WriteString(blk.Name)
			writeUint(h, uint64(blk.Size))
		}
		writeUint(h, uint64(v.Index))
		writeUint(h, uint64(v.Offset))
	case ir.SSAPlace:
		h.WriteByte('v')
		h.WriteString(v.Name)
		writeUint(h, uint64(v.Version))
	}
}

func writeUint(h *maphash.Hash, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	h.Write(buf[:])
}

func writeFloat(h *maphash.Hash, v float64) {
	writeUint(h, math.Float64bits(v))
}
