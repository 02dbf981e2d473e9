package blockstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// shard holds the packed_cells payload for every fingerprint whose top
// byte equals id. Metadata (depth, seed_level, solved, score) lives in
// BlockStore.directory instead, so a shard can be evicted from memory
// without losing the ability to answer scans and counts.
type shard struct {
	id      uint8
	cells   map[uint64][]byte
	dirty   bool
	element any // *list.Element, set once the shard enters the LRU
}

func newShard(id uint8) *shard {
	return &shard{id: id, cells: make(map[uint64][]byte)}
}

// shardOnDisk is the gob payload written to shard-XX.block, compressed
// with zstd before being written.
type shardOnDisk struct {
	ID    uint8
	Cells map[uint64][]byte
}

// loadShard returns the in-memory shard for id, loading it from disk
// (or creating it empty) on first touch. Concurrent callers requesting
// the same id collapse onto a single disk read via singleflight, the
// same device freeeve/chessgraph's position store uses to avoid
// duplicate decompression work.
func (b *BlockStore) loadShard(id uint8) (*shard, error) {
	b.cacheMu.Lock()
	if elem, ok := b.cache[id]; ok {
		b.cacheList.MoveToFront(elem)
		sh := elem.Value.(*shard)
		b.cacheMu.Unlock()
		return sh, nil
	}
	b.cacheMu.Unlock()

	key := fmt.Sprintf("%02x", id)
	v, err, _ := b.loadGroup.Do(key, func() (any, error) {
		sh, err := b.readShardFromDisk(id)
		if err != nil {
			return nil, err
		}
		b.cacheMu.Lock()
		defer b.cacheMu.Unlock()
		if elem, ok := b.cache[id]; ok {
			b.cacheList.MoveToFront(elem)
			return elem.Value.(*shard), nil
		}
		elem := b.cacheList.PushFront(sh)
		b.cache[id] = elem
		b.evictLocked()
		return sh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*shard), nil
}

// evictLocked drops the least-recently-used shard once the cache
// exceeds its configured capacity, flushing it first if dirty.
// Callers must hold cacheMu.
func (b *BlockStore) evictLocked() {
	for b.cacheList.Len() > b.maxCached {
		tail := b.cacheList.Back()
		if tail == nil {
			return
		}
		sh := tail.Value.(*shard)
		if sh.dirty {
			if err := b.writeShardToDisk(sh); err != nil {
				// Keep the shard resident rather than lose dirty data;
				// the next Flush() call will retry.
				return
			}
			sh.dirty = false
		}
		b.cacheList.Remove(tail)
		delete(b.cache, sh.id)
	}
}

func (b *BlockStore) readShardFromDisk(id uint8) (*shard, error) {
	path := b.dirPathFor(id)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newShard(id), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "blockstore: read shard %02x", id)
	}
	decompressed, err := b.decoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "blockstore: decompress shard %02x", id)
	}
	var onDisk shardOnDisk
	if err := gob.NewDecoder(bytes.NewReader(decompressed)).Decode(&onDisk); err != nil {
		return nil, errors.Wrapf(err, "blockstore: decode shard %02x", id)
	}
	sh := newShard(id)
	if onDisk.Cells != nil {
		sh.cells = onDisk.Cells
	}
	return sh, nil
}

func (b *BlockStore) writeShardToDisk(sh *shard) error {
	var buf bytes.Buffer
	onDisk := shardOnDisk{ID: sh.id, Cells: sh.cells}
	if err := gob.NewEncoder(&buf).Encode(&onDisk); err != nil {
		return errors.Wrapf(err, "blockstore: encode shard %02x", sh.id)
	}
	compressed := b.encoder.EncodeAll(buf.Bytes(), nil)
	path := b.dirPathFor(sh.id)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "blockstore: create shard file %02x", sh.id)
	}
	if _, err := f.Write(compressed); err != nil {
		f.Close()
		return errors.Wrapf(err, "blockstore: write shard file %02x", sh.id)
	}
	if !b.fastMode {
		if err := f.Sync(); err != nil {
			f.Close()
			return errors.Wrapf(err, "blockstore: fsync shard file %02x", sh.id)
		}
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "blockstore: close shard file %02x", sh.id)
	}
	return os.Rename(tmp, path)
}
