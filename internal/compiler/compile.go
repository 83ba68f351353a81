package compiler

import (
	"github.com/pkg/errors"

	"sonobackend/internal/backend"
	"sonobackend/internal/ir"
	"sonobackend/internal/pass"
)

// Compile runs passes against cfg to completion and linearizes the result.
// It returns an error if the scheduler's watchdog trips or if any pass
// reports a FatalErrorer error (allocation overflow, infinite loop).
func Compile(cfg *ir.CFG, passes []pass.Pass) (backend.Node, error) {
	if err := pass.Run(cfg, passes); err != nil {
		return nil, errors.Wrap(err, "compiler: running pass pipeline")
	}
	if err := pass.CollectFatalErrors(passes); err != nil {
		return nil, errors.Wrap(err, "compiler: pass pipeline reported a fatal error")
	}
	return backend.Linearize(cfg), nil
}

// CompileCached wraps Compile with CompileCache's single-producer-per-key
// contract: the first caller for cfg's structural hash compiles it, every
// concurrent caller for the same hash blocks on that result instead of
// redoing the work. A fresh []pass.Pass must be passed per call since
// pass.Pass instances carry mutable per-run state (e.g. AdvancedDCE's
// shared LivenessAnalysis) that cannot be reused across CFGs.
func CompileCached(cache *CompileCache, cfg *ir.CFG, passes []pass.Pass) (backend.Node, error) {
	hash := HashCFG(cfg)
	if node, err, claimed := cache.Get(hash); claimed {
		return node, err
	}
	node, err := Compile(cfg, passes)
	cache.Set(hash, node, err)
	return node, err
}
