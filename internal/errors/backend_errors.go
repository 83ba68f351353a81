package errors

import (
	"fmt"
	"strings"
)

// CompilerErrorBuilder provides a fluent interface for building a
// CompilerError with suggestions, notes, and help text.
type CompilerErrorBuilder struct {
	err CompilerError
}

// NewCompilerError starts a fatal-level CompilerError builder.
func NewCompilerError(code, message string, pos Position) *CompilerErrorBuilder {
	return &CompilerErrorBuilder{err: CompilerError{Level: Error, Code: code, Message: message, Position: pos, Length: 1}}
}

// NewCompilerWarning starts a warning-level CompilerError builder.
func NewCompilerWarning(code, message string, pos Position) *CompilerErrorBuilder {
	return &CompilerErrorBuilder{err: CompilerError{Level: Warning, Code: code, Message: message, Position: pos, Length: 1}}
}

func (b *CompilerErrorBuilder) WithLength(length int) *CompilerErrorBuilder {
	b.err.Length = length
	return b
}

func (b *CompilerErrorBuilder) WithSuggestion(message string) *CompilerErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

func (b *CompilerErrorBuilder) WithNote(note string) *CompilerErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

func (b *CompilerErrorBuilder) WithHelp(help string) *CompilerErrorBuilder {
	b.err.HelpText = help
	return b
}

func (b *CompilerErrorBuilder) Build() CompilerError { return b.err }

// InfiniteLoop reports a CFG whose reachable part has no exit block —
// LivenessAnalysis's backward worklist has nowhere to seed from.
func InfiniteLoop(entryBlockID int) CompilerError {
	return NewCompilerError(ErrorInfiniteLoop, fmt.Sprintf("block #%d has no reachable exit", entryBlockID), Position{}).
		WithHelp("every reachable path must eventually reach a block with no outgoing edges").
		WithNote("a callback that loops forever cannot be compiled").
		Build()
}

// AllocationOverflow reports a temp block that could not be placed in the
// scratch region without exceeding its capacity.
func AllocationOverflow(tempName string, offset, size, capacity int) CompilerError {
	return NewCompilerError(ErrorAllocationOverflow,
		fmt.Sprintf("temp '%s' needs offset %d..%d but the scratch region only holds %d cells", tempName, offset, offset+size, capacity), Position{}).
		WithSuggestion("reduce the number of live temporaries, for example by simplifying the callback").
		WithHelp("the scratch region is fixed-size and shared by every concurrently live temp").
		Build()
}

// UnsatisfiablePasses reports a pass scheduler deadlock: some passes'
// Requires() sets can never all become simultaneously active.
func UnsatisfiablePasses(pending []string) CompilerError {
	return NewCompilerError(ErrorUnsatisfiablePasses,
		fmt.Sprintf("pass pipeline could not converge; still pending: %s", strings.Join(pending, ", ")), Position{}).
		WithNote("a pass's Requires() set must be satisfiable by some ordering of Applies()/Preserves()").
		Build()
}

// AssemblyParseError wraps a participle parse failure at a source position.
func AssemblyParseError(message string, pos Position) CompilerError {
	return NewCompilerError(ErrorAssemblyParse, message, pos).
		WithHelp("see the assembly grammar in internal/asm for the accepted syntax").
		Build()
}

// MalformedCFG reports a structural invariant violation caught by a pass
// or the interpreter (a phi whose arms don't match its block's predecessor
// set, a dangling edge).
func MalformedCFG(detail string) CompilerError {
	return NewCompilerError(ErrorMalformedCFG, detail, Position{}).
		WithNote("this indicates a bug in a preceding pass, not in the compiled source").
		Build()
}

// DeadStore warns that a dead-code-elimination pass deleted a store to
// tempName because nothing ever read it back.
func DeadStore(tempName string) CompilerError {
	return NewCompilerWarning(WarningDeadStore, fmt.Sprintf("store to '%s' is never read", tempName), Position{}).
		WithSuggestion("remove the dead store, or check whether a later use was meant to read it").
		Build()
}

// UnknownBlockName reports an unrecognized symbolic block name in asm
// source or a mode's callback table, suggesting the closest known names.
func UnknownBlockName(name string, known []string, pos Position) CompilerError {
	builder := NewCompilerError(ErrorAssemblyParse, fmt.Sprintf("unknown block '%s'", name), pos).
		WithLength(len(name))
	similar := findSimilarNames(name, known)
	if len(similar) > 0 {
		builder = builder.WithSuggestion(fmt.Sprintf("did you mean '%s'?", similar[0]))
	}
	return builder.Build()
}

func findSimilarNames(target string, candidates []string) []string {
	var similar []string
	for _, candidate := range candidates {
		if levenshteinDistance(target, candidate) <= 2 && len(candidate) > 2 {
			similar = append(similar, candidate)
		}
	}
	return similar
}

// levenshteinDistance is a plain edit-distance implementation used to
// suggest the closest known block/temp name for a typo.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	matrix := make([][]int, len(a)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(b)+1)
	}
	for i := 0; i <= len(a); i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len(b); j++ {
		matrix[0][j] = j
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			matrix[i][j] = min3(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}
	return matrix[len(a)][len(b)]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
