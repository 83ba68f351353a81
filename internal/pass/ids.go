package pass

// Canonical pass identities, shared across the pipeline definitions in
// pipeline.go and each pass's own Requires/Preserves/Destroys/Applies sets.
const (
	IDCoalesceFlow             ID = "CoalesceFlow"
	IDUnreachableElimination   ID = "UnreachableCodeElimination"
	IDDominanceFrontiers       ID = "DominanceFrontiers"
	IDToSSA                    ID = "ToSSA"
	IDFromSSA                  ID = "FromSSA"
	IDLivenessAnalysis         ID = "LivenessAnalysis"
	IDSCCP                     ID = "SparseConditionalConstantPropagation"
	IDDeadCodeElimination      ID = "DeadCodeElimination"
	IDAdvancedDCE              ID = "AdvancedDeadCodeElimination"
	IDArithmeticSimplification ID = "ArithmeticSimplification"
	IDInlineVars               ID = "InlineVars"
	IDRewriteToSwitch          ID = "RewriteToSwitch"
	IDNormalizeSwitch          ID = "NormalizeSwitch"
	IDCopyCoalesce             ID = "CopyCoalesce"
	IDAllocateBasic            ID = "AllocateBasic"
	IDAllocate                 ID = "Allocate"
	IDAllocateFast             ID = "AllocateFast"
)
