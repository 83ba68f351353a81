package pass

import "sonobackend/internal/ir"

// RewriteToSwitch turns a two-way Equal(const, x)/Equal(x, const) test into
// switch-shaped edges, per spec.md §4.13's first scan. Grounded on
// original_source/sonolus/backend/optimize/switchify.py.
type RewriteToSwitch struct{ Base }

func NewRewriteToSwitch() *RewriteToSwitch {
	return &RewriteToSwitch{Base{App: Self(IDRewriteToSwitch)}}
}

func (p *RewriteToSwitch) ID() ID { return IDRewriteToSwitch }
func (p *RewriteToSwitch) Description() string {
	return "rewrite two-way Equal(const,x) tests into switch-shaped edges"
}

func (p *RewriteToSwitch) Run(cfg *ir.CFG) bool {
	changed := false
	for _, b := range ir.Preorder(cfg.Entry) {
		if len(b.Outgoing) != 2 {
			continue
		}
		def := b.DefaultEdge()
		zero := b.EdgeFor(0)
		if def == nil || zero == nil {
			continue
		}
		eq, ok := b.Test.(*ir.PureOp)
		if !ok || eq.Op != ir.OpEqual || len(eq.Args) != 2 {
			continue
		}

		var other ir.Node
		var constVal float64
		if c, ok := eq.Args[0].(*ir.Const); ok {
			constVal, other = c.Value, eq.Args[1]
		} else if c, ok := eq.Args[1].(*ir.Const); ok {
			constVal, other = c.Value, eq.Args[0]
		} else {
			continue
		}

		b.Test = other
		v := constVal
		def.Cond = &v
		zero.Cond = nil
		changed = true
	}
	return changed
}

// NormalizeSwitch fuses a block into its default-target block when both
// share the identical test, absorbing the target's non-default edges
// directly into the current block — spec.md §4.13's second scan. Scheduled
// near the end of the Standard pipeline, immediately before the final
// Allocate, once the CFG shape has otherwise settled. Designed from its
// position in the pipeline: not present verbatim in the retrieved
// original_source pack (see DESIGN.md).
type NormalizeSwitch struct{ Base }

func NewNormalizeSwitch() *NormalizeSwitch {
	return &NormalizeSwitch{Base{App: Self(IDNormalizeSwitch)}}
}

func (p *NormalizeSwitch) ID() ID { return IDNormalizeSwitch }
func (p *NormalizeSwitch) Description() string {
	return "fuse a block into a default-target block sharing the same test"
}

func (p *NormalizeSwitch) Run(cfg *ir.CFG) bool {
	changed := false
	for p.step(cfg) {
		changed = true
	}
	return changed
}

// step performs one fuse if possible and reports whether it did, the same
// find-one-apply-retry shape as CoalesceFlow.step — a chain of N absorbed
// tests needs N-1 fuses, and b's own default edge keeps retargeting one
// link further down the chain each time until it reaches a block whose test
// no longer matches.
func (p *NormalizeSwitch) step(cfg *ir.CFG) bool {
	for _, b := range ir.Preorder(cfg.Entry) {
		if b.Test == nil {
			continue
		}
		def := b.DefaultEdge()
		if def == nil {
			continue
		}
		d := def.Dst
		if d == b || d.Test == nil || d.Test.String() != b.Test.String() {
			continue
		}

		existingConds := map[float64]bool{}
		for _, e := range b.Outgoing {
			if e.Cond != nil {
				existingConds[*e.Cond] = true
			}
		}

		ir.Disconnect(def)
		for _, e := range append([]*ir.FlowEdge{}, d.Outgoing...) {
			if e.Cond == nil {
				ir.Connect(b, e.Dst, nil)
				copyPhiArg(e.Dst, d, b)
				continue
			}
			if existingConds[*e.Cond] {
				continue
			}
			v := *e.Cond
			ir.Connect(b, e.Dst, &v)
			copyPhiArg(e.Dst, d, b)
		}
		return true
	}
	return false
}

// copyPhiArg gives target a phi arg keyed by newPred equal to whatever it
// held for oldPred, since newPred now also reaches target directly along a
// fused edge carrying the same live values oldPred would have supplied.
func copyPhiArg(target, oldPred, newPred *ir.BasicBlock) {
	for _, ph := range target.Phis {
		if v, ok := ph.Args[oldPred]; ok {
			ph.Args[newPred] = v
		}
	}
}
