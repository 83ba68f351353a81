// Package asm implements a small textual assembly language for the
// backend IR, used to write literal CFG fixtures for tests and as the
// input format of the debug CLI. Its grammar is authored from scratch for
// this IR (the teacher's grammar parses an unrelated host language) but
// follows the teacher's participle-based structure: a stateful lexer
// (lexer.go), a struct-tagged grammar (this file), and a thin
// participle.Build wrapper that turns parse failures into
// errors.CompilerError values (parser.go), grounded on
// grammar/{lexer,grammar,parser}.go.
package asm

// Program is a sequence of block definitions, one compilation unit.
type Program struct {
	Blocks []*Block `@@*`
}

// Block is one basic block: its id, a body of Set statements, an optional
// branch test, and its outgoing edges.
type Block struct {
	ID    int     `"block" @Int "{"`
	Stmts []*Stmt `@@*`
	Test  *Expr   `[ "test" @@ ]`
	Edges []*Edge `@@* "}"`
}

// Stmt is a Set statement: set(place, expr).
type Stmt struct {
	Place *Place `"set" "(" @@ ","`
	Value *Expr  `@@ ")"`
}

// Edge is one outgoing flow edge: either "-> default : target" for the
// fallthrough arm, or "-> cond : target" for a specific test value.
type Edge struct {
	Default bool     `"->" ( @"default"`
	Cond    *float64 `  | @Float | @Int )`
	Target  int      `":" @Int`
}

// Expr is a numeric literal, a place read, or an operator call.
type Expr struct {
	Number *float64 `  ( @Float | @Int )`
	Get    *Place   `| "get" "(" @@ ")"`
	Call   *Call    `| @@`
}

// Call applies a named opcode (its canonical Name, e.g. Add, Clamp,
// SwitchWithDefault) to zero or more argument expressions.
type Call struct {
	Op   string  `@Ident "("`
	Args []*Expr `[ @@ { "," @@ } ] ")"`
}

// Place names a memory cell: a block reference plus an index and an
// optional static offset, e.g. %acc[0] or RuntimeUpdate[2+1].
type Place struct {
	Block  *BlockRef `@@ "["`
	Index  int       `@Int`
	Offset int       `[ "+" @Int ] "]"`
}

// BlockRef is either a temp block (%name or %name(size) for an array) or a
// fixed block, referenced by symbolic name (resolved against a blocks.Mode
// table by the builder) or by raw numeric id.
type BlockRef struct {
	TempName string `  "%" @Ident`
	TempSize int     `[ "(" @Int ")" ]`
	FixedID  *int    `| @Int`
	Symbol   string  `| @Ident`
}
