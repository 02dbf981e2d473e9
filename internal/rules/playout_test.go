package rules

import (
	"testing"

	"lukechampine.com/frand"
)

// TestRandomPlayoutsPreserveSeedCountAndTerminate drives random legal
// playouts across several board shapes, shuffling the move order with
// frand the way domino14/macondo's solver shuffles its move lists for
// unbiased search-order sampling. Every intermediate state must
// conserve the total seed count and every playout must reach a
// terminal state in a bounded number of moves.
func TestRandomPlayoutsPreserveSeedCountAndTerminate(t *testing.T) {
	variants := []Variant{
		NewVariant(2, 1),
		NewVariant(3, 2),
		NewVariant(4, 2),
	}

	for _, v := range variants {
		for trial := 0; trial < 20; trial++ {
			state := v.Opening()
			for step := 0; step < 10_000; step++ {
				moves := LegalMoves(v, state)
				if len(moves) == 0 {
					if !state.Terminal(v) {
						t.Fatalf("%s: no legal moves but state is not terminal: %+v", v, state)
					}
					break
				}
				frand.Shuffle(len(moves), func(i, j int) {
					moves[i], moves[j] = moves[j], moves[i]
				})
				state = Apply(v, state, moves[0])

				sum := 0
				for _, c := range state.Cells {
					sum += int(c)
				}
				if sum != v.TotalSeeds() {
					t.Fatalf("%s trial %d step %d: seed conservation violated, sum=%d want=%d", v, trial, step, sum, v.TotalSeeds())
				}
			}
			if !state.Terminal(v) {
				t.Fatalf("%s trial %d: playout did not reach a terminal state within 10000 moves", v, trial)
			}
		}
	}
}
