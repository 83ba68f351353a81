// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"sonobackend/internal/asm"
	"sonobackend/internal/backend"
	"sonobackend/internal/blocks"
	"sonobackend/internal/errors"
	"sonobackend/internal/interp"
	"sonobackend/internal/pass"
)

func main() {
	modeFlag := flag.String("mode", "play", "callback mode: play, watch, preview, tutorial")
	pipelineFlag := flag.String("pipeline", "standard", "pass pipeline: minimal, fast, standard")
	runFlag := flag.Bool("run", false, "interpret the compiled node tree and print its result")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: sonobackend [-mode=play] [-pipeline=standard] [-run] <file.asm>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read file: %s", err)
		os.Exit(1)
	}

	mode, ok := resolveMode(*modeFlag)
	if !ok {
		color.Red("unknown mode %q", *modeFlag)
		os.Exit(1)
	}

	reporter := errors.NewErrorReporter(path, string(source))

	cfg, err := asm.Build(mode, path, string(source))
	if err != nil {
		reportError(reporter, err)
		os.Exit(1)
	}

	passes, err := resolvePipeline(*pipelineFlag)
	if err != nil {
		color.Red("%s", err)
		os.Exit(1)
	}

	if err := pass.Run(cfg, passes); err != nil {
		color.Red("pass pipeline failed: %s", err)
		os.Exit(1)
	}
	if err := pass.CollectFatalErrors(passes); err != nil {
		reportError(reporter, err)
		os.Exit(1)
	}
	for _, w := range pass.CollectWarnings(passes) {
		fmt.Print(reporter.FormatError(w))
	}

	tree := backend.Linearize(cfg)
	fmt.Println(tree.String())

	if *runFlag {
		result := interp.New().Run(tree)
		color.Green("-> %g", result)
	}
}

func resolveMode(name string) (blocks.Mode, bool) {
	switch name {
	case "play":
		return blocks.Play, true
	case "watch":
		return blocks.Watch, true
	case "preview":
		return blocks.Preview, true
	case "tutorial":
		return blocks.Tutorial, true
	default:
		return blocks.Play, false
	}
}

func resolvePipeline(name string) ([]pass.Pass, error) {
	switch name {
	case "minimal":
		return pass.Minimal(), nil
	case "fast":
		return pass.Fast(), nil
	case "standard":
		return pass.Standard(), nil
	default:
		return nil, fmt.Errorf("unknown pipeline %q", name)
	}
}

// reportError renders err through reporter's Rust-style formatting when it
// carries the structure to do so (an errors.CompilerError, which every
// diagnostic raised by asm/pass/backend is), falling back to a plain red
// line for anything else (an *os.PathError, say).
func reportError(reporter *errors.ErrorReporter, err error) {
	var cerr errors.CompilerError
	if e, ok := err.(errors.CompilerError); ok {
		cerr = e
	} else {
		cerr = errors.NewCompilerError("", err.Error(), errors.Position{}).Build()
	}
	fmt.Print(reporter.FormatError(cerr))
}
