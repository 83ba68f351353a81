package ir

import "testing"

func TestTempBlockValueEquality(t *testing.T) {
	a := TempBlock{Name: "x", Size: 1}
	b := TempBlock{Name: "x", Size: 1}
	if a != b {
		t.Fatalf("expected TempBlocks with same name+size to compare equal")
	}
	c := TempBlock{Name: "x", Size: 2}
	if a == c {
		t.Fatalf("expected TempBlocks with different size to compare unequal")
	}
}

func TestBlockPlaceEqualityIgnoresOffset(t *testing.T) {
	temp := TempBlock{Name: "arr", Size: 4}
	p1 := BlockPlace{Block: temp, Index: 2, Offset: 0}
	p2 := BlockPlace{Block: temp, Index: 2, Offset: 5}
	if !PlaceEqual(p1, p2) {
		t.Fatalf("expected BlockPlaces with same block+index to be equal regardless of offset")
	}
	p3 := BlockPlace{Block: temp, Index: 3}
	if PlaceEqual(p1, p3) {
		t.Fatalf("expected BlockPlaces with different index to be unequal")
	}
}

func TestSSAPlaceEquality(t *testing.T) {
	a := SSAPlace{Name: "x", Version: 1}
	b := SSAPlace{Name: "x", Version: 1}
	c := SSAPlace{Name: "x", Version: 2}
	if !PlaceEqual(a, b) {
		t.Fatalf("expected equal SSA places")
	}
	if PlaceEqual(a, c) {
		t.Fatalf("expected different versions to be unequal")
	}
}

func TestIsSelfCopy(t *testing.T) {
	p := TempBlock{Name: "t", Size: 1}.At(0)
	self := &Set{Place: p, Value: &Get{Place: p}}
	if !IsSelfCopy(self) {
		t.Fatalf("expected Set(p, Get(p)) to be detected as a self-copy")
	}
	notSelf := &Set{Place: p, Value: NewConst(1)}
	if IsSelfCopy(notSelf) {
		t.Fatalf("did not expect Set(p, Const) to be a self-copy")
	}
}

func TestWalkVisitsNestedArgs(t *testing.T) {
	t1 := TempBlock{Name: "a", Size: 1}.At(0)
	t2 := TempBlock{Name: "b", Size: 1}.At(0)
	expr := &PureOp{Op: OpAdd, Args: []Node{&Get{Place: t1}, &Get{Place: t2}}}
	var seen []Node
	Walk(expr, func(n Node) { seen = append(seen, n) })
	if len(seen) != 3 {
		t.Fatalf("expected 3 nodes visited (op + 2 gets), got %d", len(seen))
	}
}

func TestEffectsClassification(t *testing.T) {
	constNode := NewConst(1)
	if !IsPure(constNode) {
		t.Fatalf("Const should be pure")
	}
	p := TempBlock{Name: "t", Size: 1}.At(0)
	setNode := &Set{Place: p, Value: constNode}
	if IsPure(setNode) {
		t.Fatalf("Set should not be pure")
	}
	if !HasSideEffects(setNode) {
		t.Fatalf("Set should have side effects")
	}
	debugLog := &OpNode{Op: OpDebugLog, Args: []Node{constNode}}
	if !HasSideEffects(debugLog) {
		t.Fatalf("DebugLog should have side effects")
	}
}

func TestCFGTraversalOrder(t *testing.T) {
	cfg := NewCFG()
	entry := cfg.NewBlock()
	a := cfg.NewBlock()
	b := cfg.NewBlock()
	join := cfg.NewBlock()
	cfg.Entry = entry

	entry.Test = NewConst(1)
	Connect(entry, a, condFloatHelper(1))
	Connect(entry, b, nil)
	Connect(a, join, nil)
	Connect(b, join, nil)

	order := Preorder(entry)
	if len(order) != 4 {
		t.Fatalf("expected 4 reachable blocks, got %d", len(order))
	}
	if order[0] != entry {
		t.Fatalf("expected entry first in preorder")
	}

	sorted := SortedOutgoing(entry)
	if sorted[0].Dst != a || sorted[1].Dst != b {
		t.Fatalf("expected numeric-cond edge before default edge")
	}
}

func condFloatHelper(v float64) *float64 { return &v }
