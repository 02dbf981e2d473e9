// Package bfs implements the forward enumeration driver from
// spec.md §4.2: depth-by-depth discovery of every reachable state,
// fanned out across worker goroutines via golang.org/x/sync/errgroup
// (the same fan-out device domino14/macondo's negamax solver uses),
// feeding a single writer goroutine through a bounded channel.
package bfs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thekrainbow/kalahsolve/internal/config"
	"github.com/thekrainbow/kalahsolve/internal/governor"
	"github.com/thekrainbow/kalahsolve/internal/rules"
	"github.com/thekrainbow/kalahsolve/internal/store"
)

// Progress reports per-depth completion, consumed by the observability
// dashboard (internal/dashboard).
type Progress struct {
	Depth    int16
	Scanned  int
	Inserted int
	Duration time.Duration
}

// Driver runs the BFS enumeration described in spec.md §4.2.
type Driver struct {
	Store      store.Store
	Variant    rules.Variant
	Governor   *governor.Governor
	Config     config.Config
	OnProgress func(Progress)
}

const workerBatchSize = 1000

// Run populates Store with exactly the set of states reachable from
// the opening position, each tagged with its minimum BFS depth.
func (d *Driver) Run(ctx context.Context) error {
	opening := d.Variant.Opening()
	fp := rules.Fingerprint(d.Variant, opening)
	openingRecord := store.Record{
		Fingerprint: fp,
		PackedCells: rules.Pack(d.Variant, opening),
		Depth:       0,
		SeedLevel:   int16(d.Variant.TotalSeeds()),
	}
	if _, err := d.Store.InsertBatch([]store.Record{openingRecord}); err != nil {
		return errors.Wrap(err, "bfs: insert opening")
	}

	for depth := int16(0); ; depth++ {
		if err := d.processDepth(ctx, depth); err != nil {
			return errors.Wrapf(err, "bfs: depth %d", depth)
		}
		nextCount, err := d.Store.CountByDepth(depth + 1)
		if err != nil {
			return errors.Wrapf(err, "bfs: count depth %d", depth+1)
		}
		if nextCount == 0 {
			log.Info().Int16("final_depth", depth).Msg("bfs: enumeration complete")
			return nil
		}
	}
}

func (d *Driver) processDepth(ctx context.Context, depth int16) error {
	start := time.Now()
	knobs := d.Governor.CurrentKnobs(d.Config.ChunkSize)

	writeCh := make(chan []store.Record, d.Config.QueueCapacity)
	writer, writerCtx := errgroup.WithContext(ctx)
	var totalInserted int
	writer.Go(func() error {
		return drainInserts(writerCtx, d.Store, writeCh, &totalInserted)
	})
	// Workers stop as soon as the writer fails; writeCh is closed only
	// once every worker has returned.
	eg, egctx := errgroup.WithContext(writerCtx)

	scanned := 0
	offset := 0
	for {
		chunk, err := d.Store.ScanByDepth(depth, offset, knobs.ChunkOrBatch)
		if err != nil {
			eg.Wait() //nolint:errcheck // the scan error below takes precedence
			close(writeCh)
			writer.Wait() //nolint:errcheck // the scan error below takes precedence
			return errors.Wrap(err, "bfs: scan by depth")
		}
		if len(chunk) == 0 {
			break
		}
		offset += len(chunk)
		scanned += len(chunk)
		dispatchChunk(egctx, eg, d.Variant, chunk, depth, knobs, writeCh)
	}
	workerErr := eg.Wait()
	close(writeCh)

	if err := writer.Wait(); err != nil {
		return err
	}
	if workerErr != nil {
		return workerErr
	}

	log.Info().Int16("depth", depth).Int("scanned", scanned).Int("inserted", totalInserted).
		Dur("elapsed", time.Since(start)).Msg("bfs: depth complete")
	if d.OnProgress != nil {
		d.OnProgress(Progress{Depth: depth, Scanned: scanned, Inserted: totalInserted, Duration: time.Since(start)})
	}
	return nil
}

func dispatchChunk(ctx context.Context, eg *errgroup.Group, variant rules.Variant, chunk []store.Record, depth int16, knobs governor.Knobs, writeCh chan<- []store.Record) {
	workers := knobs.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	if workers > len(chunk) {
		workers = len(chunk)
	}
	if workers == 0 {
		return
	}
	per := (len(chunk) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * per
		hi := lo + per
		if lo >= len(chunk) {
			break
		}
		if hi > len(chunk) {
			hi = len(chunk)
		}
		sub := chunk[lo:hi]
		eg.Go(func() error {
			return generateChildren(ctx, variant, sub, depth, knobs, writeCh)
		})
	}
}

func drainInserts(ctx context.Context, s store.Store, writeCh <-chan []store.Record, total *int) error {
	for {
		select {
		case batch, ok := <-writeCh:
			if !ok {
				return nil
			}
			n, err := s.InsertBatch(batch)
			if err != nil {
				return errors.Wrap(err, "bfs: writer insert batch")
			}
			*total += n
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
