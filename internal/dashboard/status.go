package dashboard

import (
	"github.com/thekrainbow/kalahsolve/internal/bfs"
	"github.com/thekrainbow/kalahsolve/internal/governor"
	"github.com/thekrainbow/kalahsolve/internal/retrograde"
	"github.com/thekrainbow/kalahsolve/internal/rules"
)

// bfsProgressDTO is bfs.Progress on the wire.
type bfsProgressDTO struct {
	Depth      int16 `json:"depth"`
	Scanned    int   `json:"scanned"`
	Inserted   int   `json:"inserted"`
	DurationMs int64 `json:"duration_ms"`
}

// retrogradeProgressDTO is retrograde.Progress on the wire.
type retrogradeProgressDTO struct {
	Level    int16 `json:"level"`
	Passes   int   `json:"passes"`
	Unsolved int   `json:"unsolved"`
}

type governorLevelDTO struct {
	Level string `json:"level"`
}

// StatusResponse is the payload for GET /status: the shape a poller or
// a fresh dashboard tab starts from before subscribing to /ws/progress.
type StatusResponse struct {
	Variant       variantDTO `json:"variant"`
	GovernorLevel string     `json:"governor_level"`
	Phase         string     `json:"phase"`
}

type variantDTO struct {
	P int `json:"p"`
	S int `json:"s"`
}

// positionDTO is the payload for GET /positions/{fingerprint}.
type positionDTO struct {
	Fingerprint uint64 `json:"fingerprint"`
	Found       bool   `json:"found"`
	Cells       []int  `json:"cells,omitempty"`
	Side        string `json:"side,omitempty"`
	Depth       int16  `json:"depth,omitempty"`
	SeedLevel   int16  `json:"seed_level,omitempty"`
	Solved      bool   `json:"solved,omitempty"`
	Score       int8   `json:"score,omitempty"`
	BestMove    int8   `json:"best_move,omitempty"`
}

func toBFSProgressDTO(p bfs.Progress) bfsProgressDTO {
	return bfsProgressDTO{
		Depth:      p.Depth,
		Scanned:    p.Scanned,
		Inserted:   p.Inserted,
		DurationMs: p.Duration.Milliseconds(),
	}
}

func toRetrogradeProgressDTO(p retrograde.Progress) retrogradeProgressDTO {
	return retrogradeProgressDTO{Level: p.Level, Passes: p.Passes, Unsolved: p.Unsolved}
}

func toPositionDTO(variant rules.Variant, fp uint64, state rules.State, found bool, depth, seedLevel int16, solved bool, score, bestMove int8) positionDTO {
	if !found {
		return positionDTO{Fingerprint: fp, Found: false}
	}
	cells := make([]int, len(state.Cells))
	for i, c := range state.Cells {
		cells[i] = int(c)
	}
	return positionDTO{
		Fingerprint: fp,
		Found:       true,
		Cells:       cells,
		Side:        state.Side.String(),
		Depth:       depth,
		SeedLevel:   seedLevel,
		Solved:      solved,
		Score:       score,
		BestMove:    bestMove,
	}
}

// metricsDTO is the payload for GET /metrics: the governor's live
// knobs plus the depth/level the last progress event named, enough for
// a low-frequency scrape without a dependency on a metrics library the
// pack never imports.
type metricsDTO struct {
	GovernorLevel  string `json:"governor_level"`
	WorkerCount    int    `json:"worker_count"`
	DedupSetMax    int    `json:"dedup_set_max"`
	LastBFSDepth   int16  `json:"last_bfs_depth"`
	LastRetroLevel int16  `json:"last_retro_level"`
}

func currentMetrics(g *governor.Governor, cfg func() (baseChunkOrBatch int), lastDepth, lastLevel int16) metricsDTO {
	knobs := g.CurrentKnobs(cfg())
	return metricsDTO{
		GovernorLevel:  g.Level().String(),
		WorkerCount:    knobs.WorkerCount,
		DedupSetMax:    knobs.DedupSetMax,
		LastBFSDepth:   lastDepth,
		LastRetroLevel: lastLevel,
	}
}
