// Package retrograde implements the backward-induction driver from
// spec.md §4.3: level-by-level backward induction with an intra-level
// fixpoint, exploiting the monotone non-increase of seed_level across
// non-extra-turn moves (spec.md §9, "Cyclic dependencies within a seed
// level").
package retrograde

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thekrainbow/kalahsolve/internal/config"
	"github.com/thekrainbow/kalahsolve/internal/governor"
	"github.com/thekrainbow/kalahsolve/internal/rules"
	"github.com/thekrainbow/kalahsolve/internal/store"
)

// TerminalBestMove is the sentinel best_move value spec.md §3.3 calls
// "absent" (⊥) for a terminal position.
const TerminalBestMove = int8(-1)

// ErrFixpointNoProgress is spec.md §7's "Fixpoint non-progress at
// level L" — a fatal invariant violation, never a real game-tree
// cycle (spec.md §9 proves none can exist), so it indicates a missing
// child fingerprint or a rules bug.
var ErrFixpointNoProgress = errors.New("retrograde: fixpoint made no progress")

// Progress reports the end of each fixpoint pass within a level (Unsolved
// is what the level still holds after that pass), consumed by the
// observability dashboard.
type Progress struct {
	Level    int16
	Passes   int
	Unsolved int
}

// Driver runs the retrograde minimax described in spec.md §4.3.
type Driver struct {
	Store      store.Store
	Variant    rules.Variant
	Governor   *governor.Governor
	Config     config.Config
	OnProgress func(Progress)
}

// Run computes score and best_move for every record in Store, assuming
// every reachable position already has depth and seed_level set and no
// scores (the post-BFS invariant from spec.md §4.3's contract).
func (d *Driver) Run(ctx context.Context) error {
	maxLevel := int16(d.Variant.TotalSeeds())
	for level := int16(0); level <= maxLevel; level++ {
		if err := d.solveLevel(ctx, level); err != nil {
			return errors.Wrapf(err, "retrograde: level %d", level)
		}
	}
	return nil
}

func (d *Driver) solveLevel(ctx context.Context, level int16) error {
	passes := 0
	for {
		unsolvedBefore, err := d.Store.CountUnsolvedByLevel(level)
		if err != nil {
			return err
		}
		if unsolvedBefore == 0 {
			break
		}
		passes++

		if err := d.onePass(ctx, level); err != nil {
			return err
		}

		unsolvedAfter, err := d.Store.CountUnsolvedByLevel(level)
		if err != nil {
			return err
		}
		if unsolvedAfter == unsolvedBefore {
			return errors.Wrapf(ErrFixpointNoProgress, "level %d stuck at %d unsolved after %d passes", level, unsolvedAfter, passes)
		}
		if d.OnProgress != nil {
			d.OnProgress(Progress{Level: level, Passes: passes, Unsolved: unsolvedAfter})
		}
	}
	log.Info().Int16("level", level).Int("passes", passes).Msg("retrograde: level solved")
	return nil
}

// onePass streams every unsolved record at level once (spec.md §4.3
// "Per-level procedure" step 2), writing whichever of them have every
// child already scored.
func (d *Driver) onePass(ctx context.Context, level int16) error {
	knobs := d.Governor.CurrentKnobs(d.Config.BatchSize)

	updateCh := make(chan []scoreUpdate, d.Config.QueueCapacity)
	writer, writerCtx := errgroup.WithContext(ctx)
	writer.Go(func() error {
		return drainUpdates(writerCtx, d.Store, updateCh)
	})
	// Workers stop as soon as the writer fails; updateCh is closed only
	// once every worker has returned.
	eg, egctx := errgroup.WithContext(writerCtx)

	offset := 0
	for {
		batch, next, err := d.Store.ScanUnsolvedByLevel(level, offset, knobs.ChunkOrBatch)
		if err != nil {
			eg.Wait() //nolint:errcheck // the scan error below takes precedence
			close(updateCh)
			writer.Wait() //nolint:errcheck // the scan error below takes precedence
			return errors.Wrap(err, "retrograde: scan unsolved by level")
		}
		if next == offset {
			break
		}
		offset = next
		if len(batch) == 0 {
			continue
		}
		dispatchBatch(egctx, eg, d.Variant, d.Store, batch, knobs, updateCh)
	}
	workerErr := eg.Wait()
	close(updateCh)
	if err := writer.Wait(); err != nil {
		return err
	}
	return workerErr
}

type scoreUpdate struct {
	fingerprint uint64
	score       int8
	bestMove    int8
}

func dispatchBatch(ctx context.Context, eg *errgroup.Group, variant rules.Variant, s store.Store, batch []store.Record, knobs governor.Knobs, updateCh chan<- []scoreUpdate) {
	workers := knobs.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	if workers > len(batch) {
		workers = len(batch)
	}
	per := (len(batch) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * per
		hi := lo + per
		if lo >= len(batch) {
			break
		}
		if hi > len(batch) {
			hi = len(batch)
		}
		sub := batch[lo:hi]
		eg.Go(func() error {
			return evaluateRecords(ctx, variant, s, sub, updateCh)
		})
	}
}

func drainUpdates(ctx context.Context, s store.Store, updateCh <-chan []scoreUpdate) error {
	for {
		select {
		case batch, ok := <-updateCh:
			if !ok {
				return nil
			}
			for _, u := range batch {
				if err := s.UpdateScore(u.fingerprint, u.score, u.bestMove); err != nil {
					return errors.Wrap(err, "retrograde: update score")
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
