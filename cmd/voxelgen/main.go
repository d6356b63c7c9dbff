// Command voxelgen runs the chunk streamer headless: a scripted observer walks
// through the generated world while activations are journaled and an
// optional top-down preview is written on exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/xlab/closer"

	"voxelgen/internal/config"
	"voxelgen/internal/journal"
	"voxelgen/internal/preview"
	"voxelgen/internal/streaming"
	"voxelgen/internal/terrain"
	"voxelgen/internal/world"
)

type options struct {
	configPath     string
	ticks          int
	speed          float64
	turn           float64
	journalDir     string
	journalSegment int
	previewPath    string
	previewScale   int
	verbose        bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "YAML config file (defaults when empty)")
	flag.IntVar(&o.ticks, "ticks", 600, "ticks to run, 0 runs until interrupted")
	flag.Float64Var(&o.speed, "speed", 1.5, "observer speed in blocks per tick")
	flag.Float64Var(&o.turn, "turn", 0.004, "observer turn rate in radians per tick")
	flag.StringVar(&o.journalDir, "journal", "", "directory for the zstd event journal")
	flag.IntVar(&o.journalSegment, "journal-segment", 10000, "events per journal segment, 0 rolls by hour only")
	flag.StringVar(&o.previewPath, "preview", "", "write a top-down PNG of active chunks on exit")
	flag.IntVar(&o.previewScale, "preview-scale", 2, "preview pixels per block")
	flag.BoolVar(&o.verbose, "v", false, "debug logging")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	a, err := newApp(opts, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	closer.Bind(a.shutdown)

	a.run()
	closer.Close()
}

type app struct {
	opts     options
	cfg      config.Config
	log      *slog.Logger
	streamer *streaming.Streamer
	journal  *journal.Journal
	counter  *countingSink
	walker   *walker

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// randomizeSeeds replaces zero seeds with random ones so every run without
// explicit seeds produces a new world.
func randomizeSeeds(t *config.TerrainConfig, r *rand.Rand) {
	pick := func(s *int64) {
		for *s == 0 {
			*s = r.Int64()
		}
	}
	pick(&t.Seed)
	pick(&t.CaveSeed)
	pick(&t.PortalSeed)
}

func newApp(opts options, logger *slog.Logger) (*app, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	randomizeSeeds(&cfg.Terrain, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	logger.Info("world seeds",
		"seed", cfg.Terrain.Seed,
		"caveSeed", cfg.Terrain.CaveSeed,
		"portalSeed", cfg.Terrain.PortalSeed)

	sampler, err := terrain.NewSampler(cfg.Terrain, cfg.World.ChunkSizeY)
	if err != nil {
		return nil, fmt.Errorf("terrain sampler: %w", err)
	}

	a := &app{
		opts:    opts,
		cfg:     cfg,
		log:     logger,
		counter: &countingSink{},
		done:    make(chan struct{}),
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	sinks := streaming.MultiSink{a.counter}
	if opts.journalDir != "" {
		a.journal = journal.Open(opts.journalDir, opts.journalSegment, logger)
		sinks = append(sinks, a.journal)
		logger.Info("journal enabled", "dir", opts.journalDir, "session", a.journal.Session())
	}

	a.streamer, err = streaming.New(streaming.Options{
		Config:  cfg,
		Sampler: sampler,
		Sink:    sinks,
		Logger:  logger,
	})
	if err != nil {
		if a.journal != nil {
			a.journal.Close()
		}
		return nil, err
	}

	a.walker = &walker{
		speed: float32(opts.speed),
		turn:  opts.turn,
		height: func(x, z float64) int {
			return sampler.TerrainHeight(x, z)
		},
	}
	a.walker.ground()
	return a, nil
}

func (a *app) run() {
	defer close(a.done)

	far := float32((a.streamer.ViewDistance() + 1) * max(a.cfg.World.ChunkSizeX, a.cfg.World.ChunkSizeZ))
	ticker := time.NewTicker(a.cfg.Streaming.TickRate.Duration())
	defer ticker.Stop()

	for tick := 1; a.opts.ticks == 0 || tick <= a.opts.ticks; tick++ {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
		}
		rep := a.streamer.Tick(a.walker.observer(far))
		if rep.Activated > 0 || rep.Unloaded > 0 {
			st := a.streamer.Stats()
			a.log.Debug("tick",
				"tick", tick,
				"center", rep.Center,
				"activated", rep.Activated,
				"unloaded", rep.Unloaded,
				"active", st.Active,
				"queued", st.Queued)
		}
		a.walker.step()
	}
}

// shutdown runs once, from closer, either after run returns or on a signal.
func (a *app) shutdown() {
	a.cancel()
	<-a.done

	if a.opts.previewPath != "" {
		if err := a.writePreview(); err != nil {
			a.log.Error("preview failed", "error", err)
		} else {
			a.log.Info("preview written", "path", a.opts.previewPath)
		}
	}

	st := a.streamer.Stats()
	a.streamer.Close()
	a.log.Info("streaming stopped",
		"activated", a.counter.activated,
		"deactivated", a.counter.deactivated,
		"portals", a.counter.portals,
		"active", st.Active,
		"pooled", st.Pooled)

	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Error("journal close failed", "error", err)
		}
		a.log.Info("journal closed", "files", a.journal.Files(), "errors", a.journal.Errors())
	}
}

func (a *app) writePreview() error {
	img, err := preview.Render(a.streamer.ActiveChunks(), preview.Options{
		WaterLevel: a.cfg.World.WaterLevel,
		Scale:      a.opts.previewScale,
	})
	if err != nil {
		return err
	}
	return preview.Save(a.opts.previewPath, img)
}

// countingSink tallies streamer events for the exit summary.
type countingSink struct {
	activated   int
	deactivated int
	portals     int
}

func (c *countingSink) ChunkActivated(streaming.BuiltChunk) { c.activated++ }

func (c *countingSink) PortalPlaced(streaming.PortalSite) { c.portals++ }

func (c *countingSink) ChunkDeactivated(world.ChunkCoord) { c.deactivated++ }
