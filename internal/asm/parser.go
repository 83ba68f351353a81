package asm

import (
	"github.com/alecthomas/participle/v2"

	"sonobackend/internal/errors"
)

var parser = participle.MustBuild[Program](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// Parse parses src (named by filename for diagnostics) into a Program.
func Parse(filename, src string) (*Program, error) {
	prog, err := parser.ParseString(filename, src)
	if err != nil {
		return nil, asError(src, err)
	}
	return prog, nil
}

// asError converts a participle error into a CompilerError carrying a
// precise source position, the same shape the rest of the backend reports
// diagnostics in, rather than the teacher's print-and-return-raw-err
// reportParseError (this package has no CLI of its own to print from).
func asError(src string, err error) error {
	pe, ok := err.(participle.Error)
	if !ok {
		return errors.AssemblyParseError(err.Error(), errors.Position{})
	}
	pos := errors.Position{Line: pe.Position().Line, Column: pe.Position().Column}
	return errors.AssemblyParseError(pe.Message(), pos)
}
