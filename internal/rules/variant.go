// Package rules implements Kalah(p,s) state encoding, legal-move
// generation, and move application — the rules engine of the solver.
package rules

import "fmt"

// Side identifies which player is to move.
type Side uint8

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideA {
		return "A"
	}
	return "B"
}

func (s Side) Opponent() Side {
	if s == SideA {
		return SideB
	}
	return SideA
}

// Variant pins down a Kalah(p,s) board shape plus the two rule toggles
// the original implementation exposed as constructor flags. Both are
// fixed "on" by the specification; they are kept as fields rather than
// constants so the empty-capture variant mentioned as an open question
// is a one-line change at construction time, not a rewrite of Apply.
type Variant struct {
	P int
	S int

	// RequireNonEmptyOppositeForCapture, when true (the spec default),
	// requires the opposite pit to hold seeds for a capture to fire.
	// When false, captures are unconditional ("empty-capture" variant).
	RequireNonEmptyOppositeForCapture bool

	// ExtraTurnEnabled, when true (the spec default), grants another
	// turn to the side whose sown seed lands in their own store.
	ExtraTurnEnabled bool
}

// NewVariant returns the spec-mandated Kalah(p,s) rule set: captures
// require a non-empty opposite pit, extra turns are enabled.
func NewVariant(p, s int) Variant {
	return Variant{
		P:                                 p,
		S:                                 s,
		RequireNonEmptyOppositeForCapture: true,
		ExtraTurnEnabled:                  true,
	}
}

func (v Variant) String() string {
	return fmt.Sprintf("Kalah(%d,%d)", v.P, v.S)
}

// NumCells is 2p+2: p pits per side plus one store per side.
func (v Variant) NumCells() int { return 2*v.P + 2 }

// TotalSeeds is the seed-conservation constant 2ps.
func (v Variant) TotalSeeds() int { return 2 * v.P * v.S }

// StoreIndex returns the index of side's store.
func (v Variant) StoreIndex(side Side) int {
	if side == SideA {
		return v.P
	}
	return 2*v.P + 1
}

// PitRange returns the [lo, hi) half-open range of side's pit indices.
func (v Variant) PitRange(side Side) (lo, hi int) {
	if side == SideA {
		return 0, v.P
	}
	return v.P + 1, 2*v.P + 1
}

// Opening returns the start-of-game position: s seeds in every pit,
// zero in both stores, side A to move.
func (v Variant) Opening() State {
	cells := make([]uint8, v.NumCells())
	for i := 0; i < v.P; i++ {
		cells[i] = uint8(v.S)
	}
	for i := v.P + 1; i <= 2*v.P; i++ {
		cells[i] = uint8(v.S)
	}
	return State{Cells: cells, Side: SideA}
}

// SeedLevel sums seeds currently in pits, excluding both stores.
func (v Variant) SeedLevel(cells []uint8) int {
	total := 0
	for i := 0; i < v.P; i++ {
		total += int(cells[i])
	}
	for i := v.P + 1; i <= 2*v.P; i++ {
		total += int(cells[i])
	}
	return total
}
