package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Printer renders a CFG as indented text for debugging, mirroring the
// teacher's Printer/writeLine indent-tracking idiom.
type Printer struct {
	indent int
	output strings.Builder
}

func NewPrinter() *Printer { return &Printer{} }

func (p *Printer) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.output.WriteString("  ")
	}
}

func (p *Printer) writeLine(format string, args ...interface{}) {
	p.writeIndent()
	fmt.Fprintf(&p.output, format, args...)
	p.output.WriteString("\n")
}

// PrintCFG returns a textual rendering of every block reachable from entry,
// in block-id order, including phis, statements, test, and outgoing edges.
func PrintCFG(entry *BasicBlock) string {
	p := NewPrinter()
	blocks := Preorder(entry)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].ID < blocks[j].ID })
	for _, b := range blocks {
		p.printBlock(b)
	}
	return p.output.String()
}

func (p *Printer) printBlock(b *BasicBlock) {
	p.writeLine("B%d:", b.ID)
	p.indent++

	if len(b.Phis) > 0 {
		keys := make([]string, 0, len(b.Phis))
		byKey := map[string]*Phi{}
		for _, ph := range b.Phis {
			k := ph.Target.String()
			keys = append(keys, k)
			byKey[k] = ph
		}
		sort.Strings(keys)
		for _, k := range keys {
			ph := byKey[k]
			preds := make([]*BasicBlock, 0, len(ph.Args))
			for pred := range ph.Args {
				preds = append(preds, pred)
			}
			sort.Slice(preds, func(i, j int) bool { return preds[i].ID < preds[j].ID })
			args := make([]string, len(preds))
			for i, pred := range preds {
				args[i] = fmt.Sprintf("B%d: %s", pred.ID, ph.Args[pred])
			}
			p.writeLine("%s = phi(%s)", ph.Target, strings.Join(args, ", "))
		}
	}

	for _, s := range b.Statements {
		p.writeLine("%s", s)
	}

	if b.Test != nil {
		p.writeLine("test: %s", b.Test)
	}

	for _, e := range SortedOutgoing(b) {
		if e.Cond == nil {
			p.writeLine("-> B%d [default]", e.Dst.ID)
		} else {
			p.writeLine("-> B%d [%g]", e.Dst.ID, *e.Cond)
		}
	}

	p.indent--
}
