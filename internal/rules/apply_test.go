package rules

import "testing"

// TestKalah1x1Resolves plays out Kalah(1,1) — one pit per side, one
// seed each — to its unique forced conclusion: A's only seed lands
// directly in A's own store, emptying A's side and sweeping B's
// single seed into B's store, for a final 1-1 split and a 0 payoff.
func TestKalah1x1Resolves(t *testing.T) {
	v := NewVariant(1, 1)
	state := v.Opening()

	moves := LegalMoves(v, state)
	if len(moves) != 1 || moves[0] != 0 {
		t.Fatalf("LegalMoves = %v, want [0]", moves)
	}

	next := Apply(v, state, 0)
	if !next.Terminal(v) {
		t.Fatalf("Kalah(1,1) after its only move should be terminal, cells=%v", next.Cells)
	}
	if got := next.Payoff(v); got != 0 {
		t.Fatalf("Payoff = %d, want 0", got)
	}
}

// TestApplyPanicsOnIllegalMove checks the documented precondition
// panic fires for an empty pit.
func TestApplyPanicsOnIllegalMove(t *testing.T) {
	v := NewVariant(3, 2)
	state := v.Opening()
	state.Cells[0] = 0

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("Apply did not panic on an empty pit")
		}
	}()
	Apply(v, state, 0)
}

// TestApplyLandingInOwnStoreGrantsExtraTurn checks the extra-turn
// branch: a single seed sown straight into the mover's own store
// leaves the side to move unchanged.
func TestApplyLandingInOwnStoreGrantsExtraTurn(t *testing.T) {
	v := NewVariant(2, 3)
	// cells: [A0, A1, Astore, B0, B1, Bstore]
	state := State{Cells: []uint8{0, 1, 2, 3, 3, 0}, Side: SideA}

	next := Apply(v, state, 1)
	if next.Side != SideA {
		t.Fatalf("landing in own store should grant an extra turn, got side=%v", next.Side)
	}
	if next.Cells[2] != 3 {
		t.Fatalf("A's store = %d, want 3 (2 banked + 1 just sown)", next.Cells[2])
	}
}

// TestApplyCapturesOppositePit verifies the 2p-k capture formula: the
// mover's last seed lands in an own, previously-empty pit, capturing
// both that seed and the opposite pit's seeds into the mover's store
// and passing the turn (capture is not an extra-turn move).
func TestApplyCapturesOppositePit(t *testing.T) {
	v := NewVariant(2, 3)
	// cells: [A0, A1, Astore, B0, B1, Bstore]. Sowing A1's 4 seeds
	// wraps once (skipping B's store), landing the 4th at A0, which
	// was empty: a capture of A0's 1 seed plus opposite pit B1's
	// (2*2-0=4) current seed count.
	state := State{Cells: []uint8{0, 4, 0, 3, 1, 2}, Side: SideA}

	next := Apply(v, state, 1)
	if next.Side != SideB {
		t.Fatalf("a capture ends the mover's turn, got side=%v", next.Side)
	}
	if next.Cells[0] != 0 {
		t.Fatalf("captured pit A0 should end empty, got %d", next.Cells[0])
	}
	if next.Cells[4] != 0 {
		t.Fatalf("captured opposite pit B1 should end empty, got %d", next.Cells[4])
	}
	if next.Cells[2] != 4 {
		t.Fatalf("A's store should gain the captured seed and pit, got %d, want 4", next.Cells[2])
	}
}

// TestApplySweepsOnTermination checks that once a move empties every
// pit on one side, the other side's remaining pit seeds are swept into
// that other side's own store, and the emptied side receives nothing.
func TestApplySweepsOnTermination(t *testing.T) {
	v := NewVariant(2, 3)
	// cells: [A0, A1, Astore, B0, B1, Bstore]; A to move with A1 its
	// last seed, emptying A's side entirely on this move.
	state := State{Cells: []uint8{0, 1, 3, 2, 2, 4}, Side: SideA}

	next := Apply(v, state, 1)
	if !next.Terminal(v) {
		t.Fatalf("expected terminal state after A's side empties, cells=%v", next.Cells)
	}
	if next.Cells[3] != 0 || next.Cells[4] != 0 {
		t.Fatalf("B's pits should be swept empty, cells=%v", next.Cells)
	}
	if next.Cells[5] != 4+2+2 {
		t.Fatalf("B's store should receive its own swept pits, got %d", next.Cells[5])
	}
	total := int(next.Cells[2]) + int(next.Cells[5])
	if total != v.TotalSeeds() {
		t.Fatalf("seed conservation violated: stores sum to %d, want %d", total, v.TotalSeeds())
	}
}

func TestSeedConservationAcrossRandomMoves(t *testing.T) {
	v := NewVariant(3, 2)
	state := v.Opening()
	for step := 0; step < 50; step++ {
		moves := LegalMoves(v, state)
		if len(moves) == 0 {
			break
		}
		state = Apply(v, state, moves[step%len(moves)])
		sum := 0
		for _, c := range state.Cells {
			sum += int(c)
		}
		if sum != v.TotalSeeds() {
			t.Fatalf("seed conservation violated at step %d: sum=%d, want %d", step, sum, v.TotalSeeds())
		}
	}
}
