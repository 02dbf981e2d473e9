package config

import "testing"

func TestStoreGetUpdate(t *testing.T) {
	s := NewStore(DefaultConfig())
	cfg := s.Get()
	if cfg.ChunkSize != 100_000 {
		t.Fatalf("ChunkSize = %d, want 100000", cfg.ChunkSize)
	}

	cfg.ChunkSize = 42
	s.Update(cfg)
	if got := s.Get().ChunkSize; got != 42 {
		t.Fatalf("after Update, ChunkSize = %d, want 42", got)
	}
}

func TestDefaultConfigThresholds(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MemCritBytes >= cfg.MemWarnBytes {
		t.Fatalf("MemCritBytes (%d) should be below MemWarnBytes (%d)", cfg.MemCritBytes, cfg.MemWarnBytes)
	}
}
