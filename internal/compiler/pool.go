package compiler

import (
	"sync"

	"github.com/segmentio/ksuid"

	"sonobackend/internal/backend"
	"sonobackend/internal/ir"
	"sonobackend/internal/pass"
)

// Job is one callback's CFG submitted to a Pool for compilation. Name
// identifies the callback for result correlation and diagnostics; ID is
// assigned by NewJob so a failing compile's trace can be followed
// across worker goroutines even when several jobs share Name (the same
// callback compiled once per archetype).
type Job struct {
	ID   ksuid.KSUID
	Name string
	CFG  *ir.CFG
}

// Result is one Job's outcome.
type Result struct {
	JobID ksuid.KSUID
	Name  string
	Node  backend.Node
	Err   error
}

// PassesFunc builds a fresh pass.Pass slice for one job — fresh because
// pass instances carry mutable per-run state that cannot be shared across
// concurrently compiling CFGs (see CompileCached's doc comment).
type PassesFunc func() []pass.Pass

// Pool runs one compile job per callback across a bounded set of worker
// goroutines, the concrete shape SPEC_FULL.md gives to §5's "optional
// worker pool" (original_source/sonolus/build/compile.py dispatches
// callbacks to a concurrent.futures.Executor the same way).
type Pool struct {
	Size      int
	NewPasses PassesFunc
	Cache     *CompileCache // optional; nil disables caching
}

// NewPool returns a Pool of size workers (clamped to at least 1) compiling
// with whatever pass slice newPasses builds per job.
func NewPool(size int, newPasses PassesFunc) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{Size: size, NewPasses: newPasses}
}

// Run compiles every job and returns their results in submission order.
func (p *Pool) Run(jobs []Job) []Result {
	in := make(chan int)
	results := make([]Result, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < p.Size; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range in {
				job := jobs[i]
				passes := p.NewPasses()
				var node backend.Node
				var err error
				if p.Cache != nil {
					node, err = CompileCached(p.Cache, job.CFG, passes)
				} else {
					node, err = Compile(job.CFG, passes)
				}
				results[i] = Result{JobID: job.ID, Name: job.Name, Node: node, Err: err}
			}
		}()
	}

	for i := range jobs {
		in <- i
	}
	close(in)
	wg.Wait()

	return results
}

// NewJob tags name/cfg with a fresh trace id.
func NewJob(name string, cfg *ir.CFG) Job {
	return Job{ID: ksuid.New(), Name: name, CFG: cfg}
}
