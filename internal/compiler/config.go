package compiler

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"sonobackend/internal/ir"
	"sonobackend/internal/pass"
)

// Config is the YAML pipeline configuration spec.md's ambient stack adds
// around the fixed Minimal/Fast/Standard choice: which pipeline to run,
// an optional scratch-region size override for tests, and how many
// workers to run callbacks across.
type Config struct {
	Pipeline       string `yaml:"pipeline"`
	ScratchSize    int    `yaml:"scratch_size"`
	WorkerPoolSize int    `yaml:"worker_pool_size"`
}

// DefaultConfig mirrors the Standard pipeline over the full 4096-cell
// scratch region with no worker pool (sequential compilation).
func DefaultConfig() Config {
	return Config{Pipeline: "standard", ScratchSize: ir.ScratchSize, WorkerPoolSize: 1}
}

// LoadConfig decodes a Config from r, filling in DefaultConfig's values
// for any field the YAML document leaves unset.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("compiler: decoding pipeline config: %w", err)
	}
	if cfg.ScratchSize == 0 {
		cfg.ScratchSize = ir.ScratchSize
	}
	if cfg.WorkerPoolSize == 0 {
		cfg.WorkerPoolSize = 1
	}
	return cfg, nil
}

// Passes resolves the configured pipeline name to its pass.Pass slice,
// applying ScratchSize to whichever pass in it does allocation.
func (c Config) Passes() ([]pass.Pass, error) {
	var passes []pass.Pass
	switch c.Pipeline {
	case "", "standard":
		passes = pass.Standard()
	case "fast":
		passes = pass.Fast()
	case "minimal":
		passes = pass.Minimal()
	default:
		return nil, fmt.Errorf("compiler: unknown pipeline %q", c.Pipeline)
	}
	if c.ScratchSize != 0 {
		pass.SetCapacity(passes, c.ScratchSize)
	}
	return passes, nil
}
