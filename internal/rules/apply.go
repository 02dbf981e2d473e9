package rules

import "strconv"

// Apply is a total function on legal moves. Calling it with i not in
// LegalMoves(v, s) is a precondition violation — a programmer error,
// not a user-facing error (spec.md §4.1 "Failure modes").
func Apply(v Variant, s State, i int) State {
	mover := s.Side
	lo, hi := v.PitRange(mover)
	if i < lo || i >= hi || s.Cells[i] == 0 {
		panic(PreconditionError{Variant: v, State: s, Move: i})
	}

	next := s.Clone()
	n := int(next.Cells[i])
	next.Cells[i] = 0

	oppStore := v.StoreIndex(mover.Opponent())
	numCells := v.NumCells()
	pos := i
	for step := 0; step < n; step++ {
		pos = (pos + 1) % numCells
		if pos == oppStore {
			pos = (pos + 1) % numCells
		}
		next.Cells[pos]++
	}
	last := pos

	ownStore := v.StoreIndex(mover)
	if v.ExtraTurnEnabled && last == ownStore {
		// side-to-move unchanged
	} else {
		ownLo, ownHi := v.PitRange(mover)
		if last >= ownLo && last < ownHi && next.Cells[last] == 1 {
			opp := 2*v.P - last
			captureFires := !v.RequireNonEmptyOppositeForCapture || next.Cells[opp] > 0
			if captureFires {
				next.Cells[ownStore] += next.Cells[last] + next.Cells[opp]
				next.Cells[last] = 0
				next.Cells[opp] = 0
			}
		}
		next.Side = mover.Opponent()
	}

	sweepIfTerminal(v, &next)
	return next
}

// sweepIfTerminal implements spec.md §4.1 step 6: if all pits on one
// side are empty, the other side's remaining pit seeds move into that
// other side's store. The side that emptied its own pits does not
// receive the swept seeds.
func sweepIfTerminal(v Variant, s *State) {
	aEmpty := sideEmpty(v, s.Cells, SideA)
	bEmpty := sideEmpty(v, s.Cells, SideB)
	switch {
	case aEmpty && !bEmpty:
		sweepInto(v, s.Cells, SideB)
	case bEmpty && !aEmpty:
		sweepInto(v, s.Cells, SideA)
	}
}

func sideEmpty(v Variant, cells []uint8, side Side) bool {
	lo, hi := v.PitRange(side)
	for i := lo; i < hi; i++ {
		if cells[i] != 0 {
			return false
		}
	}
	return true
}

func sweepInto(v Variant, cells []uint8, side Side) {
	lo, hi := v.PitRange(side)
	store := v.StoreIndex(side)
	for i := lo; i < hi; i++ {
		cells[store] += cells[i]
		cells[i] = 0
	}
}

// PreconditionError reports an illegal Apply call: a programmer error
// the caller is expected never to trigger in normal operation.
type PreconditionError struct {
	Variant Variant
	State   State
	Move    int
}

func (e PreconditionError) Error() string {
	return "rules: illegal move " + strconv.Itoa(e.Move) + " on " + e.Variant.String()
}
