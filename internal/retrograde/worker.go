package retrograde

import (
	"context"
	"math"

	"github.com/thekrainbow/kalahsolve/internal/rules"
	"github.com/thekrainbow/kalahsolve/internal/store"
)

const workerUpdateBatchSize = 1000

// evaluateRecords computes score/best_move for every record in sub
// whose children are all already scored, and sends the resulting
// updates to updateCh. Records with a pending (unscored) child produce
// no update this pass — they are picked up again on the next pass
// (spec.md §4.3, "Per-level procedure" step 2).
func evaluateRecords(ctx context.Context, variant rules.Variant, s store.Store, sub []store.Record, updateCh chan<- []scoreUpdate) error {
	batch := make([]scoreUpdate, 0, workerUpdateBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		select {
		case updateCh <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		batch = make([]scoreUpdate, 0, workerUpdateBatchSize)
		return nil
	}

	for _, rec := range sub {
		state := rules.Unpack(variant, rec.PackedCells)

		if state.Terminal(variant) {
			batch = append(batch, scoreUpdate{
				fingerprint: rec.Fingerprint,
				score:       int8(state.Payoff(variant)),
				bestMove:    TerminalBestMove,
			})
			if len(batch) >= workerUpdateBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
			continue
		}

		score, bestMove, ok, err := evaluate(variant, s, state)
		if err != nil {
			return err
		}
		if !ok {
			continue // pending: a child is not yet scored
		}
		batch = append(batch, scoreUpdate{fingerprint: rec.Fingerprint, score: int8(score), bestMove: int8(bestMove)})
		if len(batch) >= workerUpdateBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// evaluate implements spec.md §4.3's per-position minimax step: A
// maximizes, B minimizes, ties break toward the lowest pit index
// (LegalMoves is already ascending, so the first strictly-better move
// wins and later equal scores are ignored).
func evaluate(variant rules.Variant, s store.Store, state rules.State) (score int, bestMove int, ok bool, err error) {
	moves := rules.LegalMoves(variant, state)
	maximizing := state.Side == rules.SideA

	best := 0
	if maximizing {
		best = math.MinInt32
	} else {
		best = math.MaxInt32
	}
	bestMove = -1

	for _, move := range moves {
		child := rules.Apply(variant, state, move)
		childFP := rules.Fingerprint(variant, child)
		rec, found, err := s.Get(childFP)
		if err != nil {
			return 0, 0, false, err
		}
		if !found || !rec.Solved {
			return 0, 0, false, nil // pending
		}
		childScore := int(rec.Score)
		if maximizing && childScore > best {
			best = childScore
			bestMove = move
		} else if !maximizing && childScore < best {
			best = childScore
			bestMove = move
		}
	}
	return best, bestMove, true, nil
}
