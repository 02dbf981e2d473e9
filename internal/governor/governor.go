// Package governor implements the resource governor from spec.md §4.5:
// it polls free memory at a regular interval and exposes one of three
// states, each carrying the derived knobs (worker count, dedup-set
// capacity, chunk/batch size) the BFS and retrograde drivers read
// before dispatching each chunk or batch.
package governor

import (
	"bufio"
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thekrainbow/kalahsolve/internal/config"
)

// Level is one of the three memory-pressure states from spec.md §4.5.
type Level int

const (
	Normal Level = iota
	Throttled
	Critical
)

func (l Level) String() string {
	switch l {
	case Normal:
		return "normal"
	case Throttled:
		return "throttled"
	case Critical:
		return "critical"
	default:
		return "unknown"
	}
}

// Knobs is the derived parameter set a driver should use for its next
// chunk or batch, given the governor's current Level.
type Knobs struct {
	Level          Level
	WorkerCount    int
	DedupSetMax    int
	ChunkOrBatch   int
	WorkerDedupOff bool // Critical: workers must not keep a local dedup set
}

// Governor polls free memory at PollInterval and recomputes Knobs.
type Governor struct {
	cfg          config.Config
	pollInterval time.Duration
	freeMemFunc  func() (uint64, error)

	level atomic.Int32
}

// New returns a Governor for cfg, polling at least once per second per
// spec.md §4.5 ("≥1 Hz").
func New(cfg config.Config) *Governor {
	return &Governor{
		cfg:          cfg,
		pollInterval: time.Second,
		freeMemFunc:  freeMemoryLinux,
	}
}

// Run polls until ctx is cancelled. Call it in its own goroutine.
func (g *Governor) Run(ctx context.Context) {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()
	g.poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.poll()
		}
	}
}

func (g *Governor) poll() {
	free, err := g.freeMemFunc()
	if err != nil {
		// Can't determine free memory: assume Normal rather than
		// stalling the solve on a platform without /proc/meminfo.
		g.level.Store(int32(Normal))
		return
	}
	var lvl Level
	switch {
	case free <= g.cfg.MemCritBytes:
		lvl = Critical
	case free <= g.cfg.MemWarnBytes:
		lvl = Throttled
	default:
		lvl = Normal
	}
	if Level(g.level.Swap(int32(lvl))) != lvl {
		log.Info().Str("level", lvl.String()).Uint64("free_bytes", free).Msg("governor: memory pressure level changed")
	}
}

// Level returns the most recently observed pressure level.
func (g *Governor) Level() Level {
	return Level(g.level.Load())
}

// CurrentKnobs derives the driver-facing parameters for the current
// level, per spec.md §4.5's table.
func (g *Governor) CurrentKnobs(baseChunkOrBatch int) Knobs {
	workers := g.cfg.WorkerCount
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	switch g.Level() {
	case Critical:
		return Knobs{
			Level:          Critical,
			WorkerCount:    workers,
			DedupSetMax:    0,
			ChunkOrBatch:   baseChunkOrBatch / 2,
			WorkerDedupOff: true,
		}
	case Throttled:
		return Knobs{
			Level:        Throttled,
			WorkerCount:  workers,
			DedupSetMax:  g.cfg.DedupSetMax / 2,
			ChunkOrBatch: baseChunkOrBatch / 2,
		}
	default:
		return Knobs{
			Level:        Normal,
			WorkerCount:  workers,
			DedupSetMax:  g.cfg.DedupSetMax,
			ChunkOrBatch: baseChunkOrBatch,
		}
	}
}

// freeMemoryLinux reads MemAvailable from /proc/meminfo, the same
// signal original_source/utils/resource_monitor.py polls.
func freeMemoryLinux() (uint64, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return kb * 1024, nil
	}
	return 0, scanner.Err()
}
