// Package store defines the position store's capability set
// (spec.md §4.4) and the record types shared by every backend. The
// reference backend lives in the blockstore subpackage; server-class
// MVCC backends are contract-only per spec.md §6.
package store

import "github.com/pkg/errors"

// Record is a stored position (spec.md §3.3). Score and BestMove are
// absent (Solved == false) until the retrograde phase sets them
// exactly once.
type Record struct {
	Fingerprint uint64
	PackedCells []byte
	Depth       int16
	SeedLevel   int16
	Solved      bool
	Score       int8
	BestMove    int8 // -1 (terminal, no move) once Solved
}

// Store is the capability set every backend — embedded or
// server-class — must implement (spec.md §4.4).
type Store interface {
	// InsertBatch inserts each record whose fingerprint is not already
	// present and silently skips the rest. Returns the count of
	// newly-inserted records. Atomic per record, not across the batch.
	InsertBatch(records []Record) (inserted int, err error)

	Exists(fingerprint uint64) (bool, error)
	Get(fingerprint uint64) (Record, bool, error)

	// ScanByDepth streams up to limit records at depth d starting at a
	// store-defined, solve-stable offset.
	ScanByDepth(depth int16, offset, limit int) ([]Record, error)

	// ScanUnsolvedByLevel streams up to limit records at seedLevel L
	// with Solved == false, starting at a store-defined cursor offset
	// and returning the cursor to resume from. nextOffset == offset
	// signals the level's records are exhausted from offset onward.
	ScanUnsolvedByLevel(seedLevel int16, offset, limit int) (records []Record, nextOffset int, err error)

	CountByDepth(depth int16) (int, error)
	CountUnsolvedByLevel(seedLevel int16) (int, error)

	// UpdateScore sets score and bestMove on an existing record.
	// Idempotent: re-applying the same (score, bestMove) is a no-op.
	UpdateScore(fingerprint uint64, score int8, bestMove int8) error

	// Flush durably persists all prior writes.
	Flush() error
}

// ErrNotFound is returned (wrapped) by UpdateScore for a fingerprint
// the store does not hold. Get reports absence through its boolean
// result instead.
var ErrNotFound = errors.New("store: record not found")
