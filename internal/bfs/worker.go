package bfs

import (
	"context"

	"github.com/thekrainbow/kalahsolve/internal/governor"
	"github.com/thekrainbow/kalahsolve/internal/rules"
	"github.com/thekrainbow/kalahsolve/internal/store"
)

// generateChildren produces every (fingerprint, packed_cells, depth+1,
// seed_level) record reachable by one legal move from every parent in
// parents, with no store round-trip — deduplication against the store
// happens in InsertBatch. If knobs selects worker-side dedup, a bounded
// local fingerprint set additionally skips duplicates discovered
// within this dispatch (spec.md §4.2, "Deduplication policy").
func generateChildren(ctx context.Context, variant rules.Variant, parents []store.Record, depth int16, knobs governor.Knobs, writeCh chan<- []store.Record) error {
	var seen map[uint64]struct{}
	if !knobs.WorkerDedupOff && knobs.DedupSetMax > 0 {
		seen = make(map[uint64]struct{})
	}

	batch := make([]store.Record, 0, workerBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		select {
		case writeCh <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
		batch = make([]store.Record, 0, workerBatchSize)
		return nil
	}

	childDepth := depth + 1
	for _, parent := range parents {
		state := rules.Unpack(variant, parent.PackedCells)
		for _, move := range rules.LegalMoves(variant, state) {
			child := rules.Apply(variant, state, move)
			fp := rules.Fingerprint(variant, child)
			if seen != nil {
				if _, dup := seen[fp]; dup {
					continue
				}
				if len(seen) < knobs.DedupSetMax {
					seen[fp] = struct{}{}
				}
			}
			batch = append(batch, store.Record{
				Fingerprint: fp,
				PackedCells: rules.Pack(variant, child),
				Depth:       childDepth,
				SeedLevel:   int16(variant.SeedLevel(child.Cells)),
			})
			if len(batch) >= workerBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}
