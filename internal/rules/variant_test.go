package rules

import "testing"

func TestVariantGeometry(t *testing.T) {
	v := NewVariant(6, 4)
	if v.NumCells() != 14 {
		t.Fatalf("NumCells = %d, want 14", v.NumCells())
	}
	if v.TotalSeeds() != 48 {
		t.Fatalf("TotalSeeds = %d, want 48", v.TotalSeeds())
	}
	if v.StoreIndex(SideA) != 6 || v.StoreIndex(SideB) != 13 {
		t.Fatalf("StoreIndex = (%d,%d), want (6,13)", v.StoreIndex(SideA), v.StoreIndex(SideB))
	}
	lo, hi := v.PitRange(SideA)
	if lo != 0 || hi != 6 {
		t.Fatalf("PitRange(A) = (%d,%d), want (0,6)", lo, hi)
	}
	lo, hi = v.PitRange(SideB)
	if lo != 7 || hi != 13 {
		t.Fatalf("PitRange(B) = (%d,%d), want (7,13)", lo, hi)
	}
}

func TestOpeningSeedLevel(t *testing.T) {
	v := NewVariant(6, 4)
	opening := v.Opening()
	if got := v.SeedLevel(opening.Cells); got != v.TotalSeeds() {
		t.Fatalf("SeedLevel(opening) = %d, want %d", got, v.TotalSeeds())
	}
	if opening.Side != SideA {
		t.Fatalf("Opening side = %v, want SideA", opening.Side)
	}
}

func TestSideOpponent(t *testing.T) {
	if SideA.Opponent() != SideB {
		t.Fatal("SideA.Opponent() != SideB")
	}
	if SideB.Opponent() != SideA {
		t.Fatal("SideB.Opponent() != SideA")
	}
}
