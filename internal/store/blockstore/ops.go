package blockstore

import (
	"github.com/pkg/errors"

	"github.com/thekrainbow/kalahsolve/internal/store"
)

// InsertBatch implements store.Store. spec.md §4.4: atomic per record,
// not required to be atomic across the batch; records whose
// fingerprint already exists are silently skipped.
func (b *BlockStore) InsertBatch(records []store.Record) (int, error) {
	inserted := 0
	for _, rec := range records {
		ok, err := b.insertOne(rec)
		if err != nil {
			return inserted, errors.Wrapf(err, "blockstore: insert fingerprint %d", rec.Fingerprint)
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

func (b *BlockStore) insertOne(rec store.Record) (bool, error) {
	b.dirMu.Lock()
	if _, exists := b.directory[rec.Fingerprint]; exists {
		b.dirMu.Unlock()
		return false, nil
	}
	entry := &dirEntry{Depth: rec.Depth, SeedLevel: rec.SeedLevel}
	if rec.Solved {
		entry.Solved = true
		entry.Score = rec.Score
		entry.BestMove = rec.BestMove
	}
	b.directory[rec.Fingerprint] = entry
	b.dirMu.Unlock()

	sh, err := b.loadShard(b.shardID(rec.Fingerprint))
	if err != nil {
		return false, err
	}
	b.cacheMu.Lock()
	sh.cells[rec.Fingerprint] = rec.PackedCells
	sh.dirty = true
	b.cacheMu.Unlock()

	b.idxMu.Lock()
	b.depthIndex[rec.Depth] = append(b.depthIndex[rec.Depth], rec.Fingerprint)
	b.levelIndex[rec.SeedLevel] = append(b.levelIndex[rec.SeedLevel], rec.Fingerprint)
	if !rec.Solved {
		b.unsolvedRemaining[rec.SeedLevel]++
	}
	b.idxMu.Unlock()
	return true, nil
}

// Exists implements store.Store.
func (b *BlockStore) Exists(fingerprint uint64) (bool, error) {
	b.dirMu.RLock()
	_, ok := b.directory[fingerprint]
	b.dirMu.RUnlock()
	return ok, nil
}

// Get implements store.Store.
func (b *BlockStore) Get(fingerprint uint64) (store.Record, bool, error) {
	b.dirMu.RLock()
	entry, ok := b.directory[fingerprint]
	var entryCopy dirEntry
	if ok {
		entryCopy = *entry
	}
	b.dirMu.RUnlock()
	if !ok {
		return store.Record{}, false, nil
	}

	sh, err := b.loadShard(b.shardID(fingerprint))
	if err != nil {
		return store.Record{}, false, errors.Wrap(err, "blockstore: get")
	}
	b.cacheMu.Lock()
	cells := sh.cells[fingerprint]
	b.cacheMu.Unlock()

	return store.Record{
		Fingerprint: fingerprint,
		PackedCells: cells,
		Depth:       entryCopy.Depth,
		SeedLevel:   entryCopy.SeedLevel,
		Solved:      entryCopy.Solved,
		Score:       entryCopy.Score,
		BestMove:    entryCopy.BestMove,
	}, true, nil
}

// ScanByDepth implements store.Store. offset/limit index into the
// depth's full, insertion-ordered fingerprint slice, so offsets stay
// stable for the lifetime of a solve (spec.md §4.4).
func (b *BlockStore) ScanByDepth(depth int16, offset, limit int) ([]store.Record, error) {
	b.idxMu.Lock()
	fps := b.depthIndex[depth]
	window := windowSlice(fps, offset, limit)
	b.idxMu.Unlock()

	out := make([]store.Record, 0, len(window))
	for _, fp := range window {
		rec, ok, err := b.Get(fp)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ScanUnsolvedByLevel implements store.Store. offset/limit is a cursor
// into the level's full, insertion-ordered fingerprint slice (solved
// entries included); the cursor walks forward past solved entries,
// collecting up to limit still-unsolved records, and returns the
// cursor position reached so the caller can resume. A full sweep of a
// level is offset 0, then nextOffset, then nextOffset again, ... until
// nextOffset stops advancing.
func (b *BlockStore) ScanUnsolvedByLevel(seedLevel int16, offset, limit int) ([]store.Record, int, error) {
	b.idxMu.Lock()
	fps := b.levelIndex[seedLevel]
	b.idxMu.Unlock()

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = len(fps)
	}
	out := make([]store.Record, 0, limit)
	i := offset
	for i < len(fps) && len(out) < limit {
		fp := fps[i]
		i++
		b.dirMu.RLock()
		entry, ok := b.directory[fp]
		solved := ok && entry.Solved
		b.dirMu.RUnlock()
		if !ok || solved {
			continue
		}
		rec, ok, err := b.Get(fp)
		if err != nil {
			return nil, offset, err
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, i, nil
}

// CountByDepth implements store.Store.
func (b *BlockStore) CountByDepth(depth int16) (int, error) {
	b.idxMu.Lock()
	defer b.idxMu.Unlock()
	return len(b.depthIndex[depth]), nil
}

// CountUnsolvedByLevel implements store.Store.
func (b *BlockStore) CountUnsolvedByLevel(seedLevel int16) (int, error) {
	b.idxMu.Lock()
	defer b.idxMu.Unlock()
	return b.unsolvedRemaining[seedLevel], nil
}

// UpdateScore implements store.Store. Idempotent: re-applying the same
// (score, bestMove) on an already-solved record is a no-op.
func (b *BlockStore) UpdateScore(fingerprint uint64, score int8, bestMove int8) error {
	b.dirMu.Lock()
	entry, ok := b.directory[fingerprint]
	if !ok {
		b.dirMu.Unlock()
		return errors.Wrapf(store.ErrNotFound, "blockstore: update score for %d", fingerprint)
	}
	alreadySolved := entry.Solved
	sameValue := alreadySolved && entry.Score == score && entry.BestMove == bestMove
	entry.Solved = true
	entry.Score = score
	entry.BestMove = bestMove
	seedLevel := entry.SeedLevel
	b.dirMu.Unlock()

	if !alreadySolved {
		b.idxMu.Lock()
		b.unsolvedRemaining[seedLevel]--
		b.idxMu.Unlock()
	} else if !sameValue {
		return errors.Errorf("blockstore: non-idempotent UpdateScore for %d", fingerprint)
	}
	return nil
}

// Flush implements store.Store: persists every dirty shard plus the
// directory snapshot.
func (b *BlockStore) Flush() error {
	b.cacheMu.Lock()
	dirty := make([]*shard, 0)
	for e := b.cacheList.Front(); e != nil; e = e.Next() {
		sh := e.Value.(*shard)
		if sh.dirty {
			dirty = append(dirty, sh)
		}
	}
	b.cacheMu.Unlock()

	for _, sh := range dirty {
		if err := b.writeShardToDisk(sh); err != nil {
			return errors.Wrap(err, "blockstore: flush shard")
		}
		b.cacheMu.Lock()
		sh.dirty = false
		b.cacheMu.Unlock()
	}
	return b.persistDirectory()
}

func windowSlice(fps []uint64, offset, limit int) []uint64 {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(fps) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(fps) {
		end = len(fps)
	}
	return fps[offset:end]
}
