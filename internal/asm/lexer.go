package asm

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes assembly source. "->" lexes as a single Arrow token: the
// only other rule that accepts '-' is Int's optional sign, which needs a
// digit after it, and Punctuation accepts neither '-' nor '>'.
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Float", `[0-9]+\.[0-9]+`, nil},
		{"Int", `-?[0-9]+`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Arrow", `->`, nil},
		{"Percent", `%`, nil},
		{"Punctuation", `[{}()\[\]:,+]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
