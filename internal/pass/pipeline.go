package pass

import "sonobackend/internal/ir"

// Minimal applies just enough cleanup and allocation to produce a runnable
// callback with the least possible work, per spec.md §4.2.
func Minimal() []Pass {
	return []Pass{
		NewCoalesceFlow(),
		NewUnreachableCodeElimination(),
		NewAllocateBasic(),
	}
}

// Fast folds dead-code elimination into allocation itself rather than
// scheduling it separately, trading optimization depth for compile speed.
func Fast() []Pass {
	return []Pass{
		NewCoalesceFlow(),
		NewUnreachableCodeElimination(),
		NewAllocateFast(),
		NewCoalesceFlow(),
	}
}

// Standard runs the full optimization pipeline: SSA construction, SCCP,
// inlining, if-to-switch rewriting, SSA destruction, copy coalescing, and
// advanced liveness-driven DCE, before the full graph-coloring allocator.
// AdvancedDCE shares the exact *LivenessAnalysis instance the scheduler
// runs ahead of it, since pass.go's RunPasses invokes each Pass value in
// the slice exactly once and that's the only channel by which AdvancedDCE
// can see the populated LivenessInfo.
func Standard() []Pass {
	liveness := NewLivenessAnalysis()
	return []Pass{
		NewCoalesceFlow(),
		NewUnreachableCodeElimination(),
		NewForwardDCE(),
		NewToSSA(),
		NewSCCP(),
		NewUnreachableCodeElimination(),
		NewForwardDCE(),
		NewCoalesceFlow(),
		NewInlineVars(),
		NewForwardDCE(),
		NewRewriteToSwitch(),
		NewFromSSA(),
		NewCoalesceFlow(),
		NewCopyCoalesce(),
		liveness,
		NewAdvancedDCE(liveness),
		NewCoalesceFlow(),
		NewNormalizeSwitch(),
		NewAllocate(),
	}
}

// Run schedules and executes passes against cfg via RunPasses.
func Run(cfg *ir.CFG, passes []Pass) error {
	return RunPasses(cfg, passes)
}
