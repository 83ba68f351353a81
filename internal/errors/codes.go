package errors

// Error codes for the backend compiler, used in diagnostics to provide
// consistent error identification across the pass pipeline, backend, and
// assembly front end.
//
// Error code ranges:
// E1000-E1099: Backend compiler errors

const (
	// E1001: Liveness analysis found no reachable exit block
	ErrorInfiniteLoop = "E1001"

	// E1002: Allocation could not fit a temp into the scratch region
	ErrorAllocationOverflow = "E1002"

	// E1003: Pass scheduler could not satisfy a pass's requirements
	ErrorUnsatisfiablePasses = "E1003"

	// E1004: Assembly source failed to parse
	ErrorAssemblyParse = "E1004"

	// E1005: A CFG invariant was violated (malformed phi, dangling edge)
	ErrorMalformedCFG = "E1005"

	// W1001: A DCE pass deleted a store to a named temp that was never read
	WarningDeadStore = "W1001"
)
