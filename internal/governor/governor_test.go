package governor

import (
	"errors"
	"testing"

	"github.com/thekrainbow/kalahsolve/internal/config"
)

func newTestGovernor(t *testing.T, free uint64) *Governor {
	t.Helper()
	cfg := config.DefaultConfig()
	g := New(cfg)
	g.freeMemFunc = func() (uint64, error) { return free, nil }
	return g
}

func TestLevelTransitions(t *testing.T) {
	cfg := config.DefaultConfig()

	cases := []struct {
		free uint64
		want Level
	}{
		{free: cfg.MemWarnBytes + 1, want: Normal},
		{free: cfg.MemWarnBytes, want: Throttled},
		{free: cfg.MemCritBytes, want: Critical},
		{free: 0, want: Critical},
	}
	for _, c := range cases {
		g := newTestGovernor(t, c.free)
		g.poll()
		if got := g.Level(); got != c.want {
			t.Fatalf("free=%d: Level() = %v, want %v", c.free, got, c.want)
		}
	}
}

func TestCurrentKnobsCriticalDisablesWorkerDedup(t *testing.T) {
	cfg := config.DefaultConfig()
	g := newTestGovernor(t, cfg.MemCritBytes)
	g.poll()

	knobs := g.CurrentKnobs(cfg.ChunkSize)
	if !knobs.WorkerDedupOff {
		t.Fatal("Critical level should disable worker-side dedup")
	}
	if knobs.ChunkOrBatch != cfg.ChunkSize/2 {
		t.Fatalf("Critical ChunkOrBatch = %d, want %d", knobs.ChunkOrBatch, cfg.ChunkSize/2)
	}
}

func TestCurrentKnobsNormalUsesFullSizing(t *testing.T) {
	cfg := config.DefaultConfig()
	g := newTestGovernor(t, cfg.MemWarnBytes+1)
	g.poll()

	knobs := g.CurrentKnobs(cfg.ChunkSize)
	if knobs.WorkerDedupOff {
		t.Fatal("Normal level should leave worker-side dedup enabled")
	}
	if knobs.DedupSetMax != cfg.DedupSetMax {
		t.Fatalf("Normal DedupSetMax = %d, want %d", knobs.DedupSetMax, cfg.DedupSetMax)
	}
}

func TestFreeMemErrorFallsBackToNormal(t *testing.T) {
	cfg := config.DefaultConfig()
	g := New(cfg)
	g.freeMemFunc = func() (uint64, error) { return 0, errors.New("meminfo unavailable") }
	g.poll()
	if got := g.Level(); got != Normal {
		t.Fatalf("Level() on freeMemFunc error = %v, want Normal", got)
	}
}
