// Package config holds the solver's tunable parameters (spec.md §6).
// Loading these from a file, flag set, or environment is the caller's
// job — out of scope per spec.md §1 — this package only defines the
// struct, its defaults, and an atomically-swappable in-memory store,
// the same split the teacher's config.go makes between Config and
// ConfigStore.
package config

import "sync"

// Config is the enumerated parameter set from spec.md §6.
type Config struct {
	P int `json:"p"`
	S int `json:"s"`

	WorkerCount  int `json:"worker_count"`
	ChunkSize    int `json:"chunk_size"`
	BatchSize    int `json:"batch_size"`
	DedupSetMax  int `json:"dedup_set_max"`
	QueueCapacity int `json:"queue_capacity"`

	MemWarnBytes uint64 `json:"mem_warn_bytes"`
	MemCritBytes uint64 `json:"mem_crit_bytes"`

	FastMode bool `json:"fast_mode"`

	MaxCachedShards int `json:"max_cached_shards"`
}

// DefaultConfig mirrors spec.md §4.2/§4.3's stated defaults (C = 1e5,
// B = 1e5, K = 1e7, Q ~= 1e3) and §4.5's default thresholds (4 GiB /
// 2 GiB free).
func DefaultConfig() Config {
	return Config{
		WorkerCount:     0, // 0 means "use runtime.GOMAXPROCS(0)"
		ChunkSize:       100_000,
		BatchSize:       100_000,
		DedupSetMax:     10_000_000,
		QueueCapacity:   1_000,
		MemWarnBytes:    4 << 30,
		MemCritBytes:    2 << 30,
		FastMode:        false,
		MaxCachedShards: 64,
	}
}

// Store is a sync.RWMutex-guarded Config holder, the same shape as the
// teacher's ConfigStore: cheap concurrent reads, serialized updates.
type Store struct {
	mu     sync.RWMutex
	config Config
}

// NewStore returns a Store seeded with cfg.
func NewStore(cfg Config) *Store {
	return &Store{config: cfg}
}

// Get returns the current config.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Update replaces the current config.
func (s *Store) Update(cfg Config) {
	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
}
