// Package blockstore is the reference Store backend from spec.md §6:
// an embedded, single-process key-value store keyed by fingerprint,
// with insertion-ordered secondary indexes on depth and seed_level. Small fixed-size metadata (depth,
// seed_level, solved, score, best_move) stays resident in memory; the
// bulkier packed_cells payload is grouped into shard blocks keyed by
// the fingerprint's top byte, zstd-compressed on disk, and paged into
// an LRU cache of decompressed blocks on demand — the same shape as
// freeeve/chessgraph's position store, simplified from its multi-level
// folder/filename split (chess positions need 26-byte keys; Kalah
// records need 9) down to a single 256-way shard split.
package blockstore

import (
	"container/list"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/thekrainbow/kalahsolve/internal/store"
)

// dirEntry is the always-resident metadata row for one fingerprint.
type dirEntry struct {
	Depth     int16
	SeedLevel int16
	Solved    bool
	Score     int8
	BestMove  int8
}

// BlockStore implements store.Store.
type BlockStore struct {
	dir       string
	fastMode  bool
	maxCached int

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	dirMu     sync.RWMutex
	directory map[uint64]*dirEntry

	idxMu             sync.Mutex
	depthIndex        map[int16][]uint64
	levelIndex        map[int16][]uint64
	unsolvedRemaining map[int16]int

	cacheMu   sync.Mutex
	cache     map[uint8]*list.Element
	cacheList *list.List
	loadGroup singleflight.Group
}

// Option configures a BlockStore at construction time.
type Option func(*BlockStore)

// WithFastMode relaxes fsync-per-flush durability (spec.md §4.4,
// "Durability knob"): on crash in this mode, uncommitted work is lost
// and the store is re-populated from scratch.
func WithFastMode(fast bool) Option {
	return func(b *BlockStore) { b.fastMode = fast }
}

// WithMaxCachedShards caps the number of decompressed shard blocks
// kept resident at once. The cap is fixed at Open; nothing lowers it
// at run time.
func WithMaxCachedShards(n int) Option {
	return func(b *BlockStore) {
		if n > 0 {
			b.maxCached = n
		}
	}
}

const defaultMaxCachedShards = 64

// Open creates or reopens a BlockStore rooted at dir, loading any
// shard directory metadata previously flushed there.
func Open(dir string, opts ...Option) (*BlockStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "blockstore: create dir %s", dir)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, errors.Wrap(err, "blockstore: create zstd encoder")
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		return nil, errors.Wrap(err, "blockstore: create zstd decoder")
	}
	b := &BlockStore{
		dir:               dir,
		maxCached:         defaultMaxCachedShards,
		encoder:           encoder,
		decoder:           decoder,
		directory:         make(map[uint64]*dirEntry),
		depthIndex:        make(map[int16][]uint64),
		levelIndex:        make(map[int16][]uint64),
		unsolvedRemaining: make(map[int16]int),
		cache:             make(map[uint8]*list.Element),
		cacheList:         list.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := b.loadDirectory(); err != nil {
		encoder.Close()
		decoder.Close()
		return nil, errors.Wrap(err, "blockstore: load directory")
	}
	return b, nil
}

// Close flushes and releases zstd resources.
func (b *BlockStore) Close() error {
	err := b.Flush()
	b.encoder.Close()
	b.decoder.Close()
	return err
}

func (b *BlockStore) shardID(fingerprint uint64) uint8 {
	return uint8(fingerprint >> 56)
}

func (b *BlockStore) dirPathFor(id uint8) string {
	return filepath.Join(b.dir, fmt.Sprintf("shard-%02x.block", id))
}

var _ store.Store = (*BlockStore)(nil)
