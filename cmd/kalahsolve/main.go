// Command kalahsolve strongly solves Kalah(p,s): it enumerates every
// reachable position with internal/bfs, backward-induces score and
// best_move with internal/retrograde, and prints the opening score and
// best move (SPEC_FULL.md §6).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/thekrainbow/kalahsolve/internal/bfs"
	"github.com/thekrainbow/kalahsolve/internal/config"
	"github.com/thekrainbow/kalahsolve/internal/dashboard"
	"github.com/thekrainbow/kalahsolve/internal/governor"
	"github.com/thekrainbow/kalahsolve/internal/retrograde"
	"github.com/thekrainbow/kalahsolve/internal/rules"
	"github.com/thekrainbow/kalahsolve/internal/store/blockstore"
)

func main() {
	var (
		p           = flag.Int("p", 6, "pits per side")
		s           = flag.Int("s", 4, "seeds per pit at opening")
		storeDir    = flag.String("store", "./kalahsolve-store", "position store directory")
		workerCount = flag.Int("workers", 0, "worker goroutines (0 = GOMAXPROCS)")
		fastMode    = flag.Bool("fast", false, "skip fsync on shard writes")
		dashAddr    = flag.String("dashboard", "", "address to serve the observability dashboard on (empty disables it)")
	)
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	variant := rules.NewVariant(*p, *s)

	cfg := config.DefaultConfig()
	cfg.P, cfg.S = *p, *s
	cfg.WorkerCount = *workerCount
	cfg.FastMode = *fastMode
	cfgStore := config.NewStore(cfg)

	bs, err := blockstore.Open(*storeDir, blockstore.WithFastMode(cfg.FastMode), blockstore.WithMaxCachedShards(cfg.MaxCachedShards))
	if err != nil {
		log.Fatalf("kalahsolve: open store: %v", err)
	}
	defer func() {
		if err := bs.Flush(); err != nil {
			zlog.Error().Err(err).Msg("kalahsolve: final flush failed")
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gov := governor.New(cfg)
	go gov.Run(ctx)

	var dash *dashboard.Server
	if *dashAddr != "" {
		dash = dashboard.NewServer(bs, variant, gov, cfgStore)
		go dash.Hub.Run(ctx.Done())
		server := &http.Server{Addr: *dashAddr, Handler: dash.Router()}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				zlog.Error().Err(err).Msg("kalahsolve: dashboard server error")
			}
		}()
		zlog.Info().Str("addr", *dashAddr).Msg("kalahsolve: dashboard listening")
	}

	zlog.Info().Str("variant", variant.String()).Msg("kalahsolve: starting BFS enumeration")
	bfsDriver := &bfs.Driver{Store: bs, Variant: variant, Governor: gov, Config: cfg}
	if dash != nil {
		bfsDriver.OnProgress = dash.OnBFSProgress
	}
	if err := bfsDriver.Run(ctx); err != nil {
		log.Fatalf("kalahsolve: bfs: %v", err)
	}

	zlog.Info().Msg("kalahsolve: starting retrograde analysis")
	retroDriver := &retrograde.Driver{Store: bs, Variant: variant, Governor: gov, Config: cfg}
	if dash != nil {
		retroDriver.OnProgress = dash.OnRetrogradeProgress
	}
	if err := retroDriver.Run(ctx); err != nil {
		log.Fatalf("kalahsolve: retrograde: %v", err)
	}

	if err := bs.Flush(); err != nil {
		log.Fatalf("kalahsolve: flush: %v", err)
	}

	opening := variant.Opening()
	fp := rules.Fingerprint(variant, opening)
	rec, found, err := bs.Get(fp)
	if err != nil {
		log.Fatalf("kalahsolve: get opening record: %v", err)
	}
	if !found || !rec.Solved {
		log.Fatalf("kalahsolve: opening position unsolved after retrograde pass")
	}

	fmt.Printf("%s opening_score=%d best_move=%d\n", variant.String(), rec.Score, rec.BestMove)

	if *dashAddr != "" {
		// Keep serving the dashboard until the process is interrupted,
		// so a trailing client can still poll the finished solve.
		<-ctx.Done()
	}
}
