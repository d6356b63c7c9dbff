// Package streaming keeps the set of built chunks around a moving observer:
// it decides what to load and unload each tick, orders and throttles builds,
// recycles chunk objects and reports results to a host Sink.
package streaming

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/time/rate"

	"voxelgen/internal/config"
	"voxelgen/internal/profiling"
	"voxelgen/internal/terrain"
	"voxelgen/internal/world"
)

const (
	minViewDistance = 1
	maxViewDistance = 64
)

// ChunkState is the lifecycle position of a coordinate.
type ChunkState uint8

const (
	StateNotLoaded ChunkState = iota
	StateQueued
	StateBuilding
	StateActive
)

func (s ChunkState) String() string {
	switch s {
	case StateNotLoaded:
		return "not_loaded"
	case StateQueued:
		return "queued"
	case StateBuilding:
		return "building"
	case StateActive:
		return "active"
	}
	return "unknown"
}

// Options configures a Streamer.
type Options struct {
	Config  config.Config
	Sampler *terrain.Sampler
	Sink    Sink         // defaults to NopSink
	Logger  *slog.Logger // defaults to slog.Default()
}

// TickReport summarises the work done by one Tick.
type TickReport struct {
	Idle      bool // nothing to do; the tick returned early
	Center    world.ChunkCoord
	Queued    int
	Started   int
	Activated int
	Unloaded  int
	Elapsed   time.Duration
}

// Stats is a point-in-time view of the streamer's bookkeeping.
type Stats struct {
	Center       world.ChunkCoord
	ViewDistance int
	Active       int
	Queued       int
	Building     int
	Pooled       int
}

// Streamer owns every chunk. All methods must be called from one goroutine;
// background builds hand chunks back through a channel drained by Tick.
type Streamer struct {
	cfg      config.StreamingConfig
	dim      world.Dimensions
	pipeline *Pipeline
	workers  *BuildPool
	limiter  *rate.Limiter
	sink     Sink
	log      *slog.Logger

	active   map[world.ChunkCoord]*Chunk
	building map[world.ChunkCoord]*Chunk
	queue    []world.ChunkCoord
	queued   map[world.ChunkCoord]struct{}
	required map[world.ChunkCoord]struct{}
	inflight []*Chunk // inline mode, in start order
	pool     []*Chunk

	viewDistance  int
	center        world.ChunkCoord
	hasCenter     bool
	dirty         bool
	unloadBacklog bool
}

// New validates the options and builds an idle streamer.
func New(opts Options) (*Streamer, error) {
	if opts.Sampler == nil {
		return nil, errors.New("streaming: terrain sampler is required")
	}
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("streaming: %w", err)
	}
	cfg := opts.Config
	dim := world.Dimensions{X: cfg.World.ChunkSizeX, Y: cfg.World.ChunkSizeY, Z: cfg.World.ChunkSizeZ}
	if opts.Sampler.SizeY() != dim.Y {
		return nil, fmt.Errorf("streaming: sampler height %d does not match chunk height %d", opts.Sampler.SizeY(), dim.Y)
	}
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Streamer{
		cfg:          cfg.Streaming,
		dim:          dim,
		pipeline:     NewPipeline(cfg, opts.Sampler),
		sink:         sink,
		log:          logger,
		active:       make(map[world.ChunkCoord]*Chunk),
		building:     make(map[world.ChunkCoord]*Chunk),
		queued:       make(map[world.ChunkCoord]struct{}),
		required:     make(map[world.ChunkCoord]struct{}),
		viewDistance: clampViewDistance(cfg.Streaming.ViewDistance),
	}
	if d := cfg.Streaming.GenerationDelay.Duration(); d > 0 {
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
	if cfg.Streaming.Workers > 0 {
		s.workers = NewBuildPool(s.pipeline, cfg.Streaming.Workers, s.maxInFlight())
	}
	return s, nil
}

// Close stops background builders. Chunks still being built are dropped.
func (s *Streamer) Close() {
	if s.workers != nil {
		s.workers.Shutdown()
	}
}

func clampViewDistance(n int) int {
	return max(minViewDistance, min(n, maxViewDistance))
}

// SetViewDistance changes the streaming radius; the next tick replans.
func (s *Streamer) SetViewDistance(n int) {
	n = clampViewDistance(n)
	if n == s.viewDistance {
		return
	}
	s.viewDistance = n
	s.dirty = true
}

// ViewDistance returns the current radius in chunks.
func (s *Streamer) ViewDistance() int { return s.viewDistance }

func (s *Streamer) maxInFlight() int {
	return s.cfg.ChunksPerFrame * max(s.cfg.Workers, 1) * 2
}

// Tick advances streaming by one host frame.
func (s *Streamer) Tick(obs Observer) TickReport {
	start := time.Now()
	profiling.ResetFrame()
	stop := profiling.Track("streaming.Tick")

	center := world.ChunkCoordAt(float64(obs.Position.X()), float64(obs.Position.Z()), s.dim)
	moved := !s.hasCenter || center != s.center
	if !moved && !s.dirty && len(s.queue) == 0 && len(s.building) == 0 && !s.unloadBacklog {
		stop()
		return TickReport{Idle: true, Center: center}
	}
	s.center, s.hasCenter = center, true

	rep := TickReport{Center: center}
	if moved || s.dirty || len(s.queue) > 0 {
		rep.Queued = s.plan(obs)
		s.dirty = false
	}
	rep.Unloaded = s.unload()
	if s.workers != nil {
		s.drainWorkers(&rep)
	} else {
		s.drainInline(&rep)
	}

	stop()
	rep.Elapsed = time.Since(start)
	if threshold := s.cfg.SlowTickThreshold.Duration(); threshold > 0 && rep.Elapsed > threshold {
		s.log.Warn("slow streamer tick",
			"elapsed", rep.Elapsed,
			"started", rep.Started,
			"activated", rep.Activated,
			"top", profiling.TopN(3))
	}
	return rep
}

// plan recomputes the required set, cancels queued chunks that left it and
// queues visible chunks that are not yet loaded.
func (s *Streamer) plan(obs Observer) int {
	defer profiling.Track("streaming.plan")()

	req := RequiredChunks(s.center, s.viewDistance)
	clear(s.required)
	for _, c := range req {
		s.required[c] = struct{}{}
	}

	kept := s.queue[:0]
	for _, c := range s.queue {
		if _, ok := s.required[c]; ok {
			kept = append(kept, c)
		} else {
			delete(s.queued, c)
		}
	}
	s.queue = kept

	added := 0
	for _, c := range req {
		if s.State(c) != StateNotLoaded || !s.visible(c, obs) {
			continue
		}
		s.queue = append(s.queue, c)
		s.queued[c] = struct{}{}
		added++
	}
	if added > 0 && s.cfg.PrioritizeViewDirection {
		prioritize(s.queue, obs, s.dim)
	}
	return added
}

func (s *Streamer) chunkCenter(c world.ChunkCoord) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(c.X*s.dim.X + s.dim.X/2),
		float32(s.dim.Y / 2),
		float32(c.Z*s.dim.Z + s.dim.Z/2),
	}
}

// visible applies the distance, frustum and occlusion tests.
func (s *Streamer) visible(c world.ChunkCoord, obs Observer) bool {
	center := s.chunkCenter(c)
	toCenter := center.Sub(obs.Position)
	d2 := toCenter.LenSqr()

	maxDist := float32(s.viewDistance * s.dim.X)
	if d2 > maxDist*maxDist {
		return false
	}

	if obs.Frustum != nil {
		ox, oz := c.Origin(s.dim)
		lo := mgl32.Vec3{float32(ox), 0, float32(oz)}
		hi := mgl32.Vec3{float32(ox + s.dim.X), float32(s.dim.Y), float32(oz + s.dim.Z)}
		if !obs.Frustum.IntersectsAABB(lo, hi) {
			return false
		}
	}

	size := float32(s.dim.X)
	if s.cfg.UseOcclusionCulling && d2 > size*size*3 {
		dist := float32(math.Sqrt(float64(d2)))
		if raycastSolid(obs.Position, toCenter.Mul(1/dist), dist-size, s.SolidAt) {
			return false
		}
	}
	return true
}

// unload releases active chunks that left the required set, farthest first,
// at most MaxUnloadsPerTick per call.
func (s *Streamer) unload() int {
	var stale []world.ChunkCoord
	for c := range s.active {
		if _, ok := s.required[c]; !ok {
			stale = append(stale, c)
		}
	}
	sort.Slice(stale, func(i, j int) bool {
		di, dj := stale[i].DistSqr(s.center), stale[j].DistSqr(s.center)
		if di != dj {
			return di > dj
		}
		if stale[i].X != stale[j].X {
			return stale[i].X < stale[j].X
		}
		return stale[i].Z < stale[j].Z
	})

	n := min(len(stale), s.cfg.MaxUnloadsPerTick)
	for _, c := range stale[:n] {
		s.release(c)
	}
	s.unloadBacklog = len(stale) > n
	return n
}

func (s *Streamer) release(c world.ChunkCoord) {
	ch := s.active[c]
	delete(s.active, c)
	s.sink.ChunkDeactivated(c)
	ch.reset(world.ChunkCoord{})
	s.pool = append(s.pool, ch)
	s.log.Debug("chunk unloaded", "coord", c)
}

func (s *Streamer) acquire(c world.ChunkCoord) *Chunk {
	var ch *Chunk
	if n := len(s.pool); n > 0 {
		ch = s.pool[n-1]
		s.pool[n-1] = nil
		s.pool = s.pool[:n-1]
	} else {
		ch = newChunk(s.dim)
	}
	ch.reset(c)
	return ch
}

// popQueued removes the next coordinate to build, skipping any that became
// active in the meantime.
func (s *Streamer) popQueued() (world.ChunkCoord, bool) {
	for len(s.queue) > 0 {
		c := s.queue[0]
		s.queue = s.queue[1:]
		delete(s.queued, c)
		if _, ok := s.active[c]; ok {
			continue
		}
		if _, ok := s.building[c]; ok {
			continue
		}
		return c, true
	}
	return world.ChunkCoord{}, false
}

func (s *Streamer) sliceAllowed() bool {
	if len(s.queue) == 0 {
		return false
	}
	return s.limiter == nil || s.limiter.Allow()
}

// drainInline advances each in-flight chunk by one stage, then starts up to
// ChunksPerFrame new builds.
func (s *Streamer) drainInline(rep *TickReport) {
	still := s.inflight[:0]
	for _, ch := range s.inflight {
		if s.pipeline.Advance(ch) {
			s.activate(ch)
			rep.Activated++
			continue
		}
		still = append(still, ch)
	}
	clear(s.inflight[len(still):])
	s.inflight = still

	if !s.sliceAllowed() {
		return
	}
	for rep.Started < s.cfg.ChunksPerFrame {
		c, ok := s.popQueued()
		if !ok {
			break
		}
		ch := s.acquire(c)
		s.building[c] = ch
		s.pipeline.Advance(ch)
		s.inflight = append(s.inflight, ch)
		rep.Started++
	}
}

// drainWorkers collects finished background builds, then submits new ones.
func (s *Streamer) drainWorkers(rep *TickReport) {
collect:
	for {
		select {
		case ch := <-s.workers.Results():
			s.activate(ch)
			rep.Activated++
		default:
			break collect
		}
	}

	if !s.sliceAllowed() {
		return
	}
	for rep.Started < s.cfg.ChunksPerFrame && len(s.building) < s.maxInFlight() {
		c, ok := s.popQueued()
		if !ok {
			break
		}
		ch := s.acquire(c)
		s.building[c] = ch
		s.workers.Submit(ch)
		rep.Started++
	}
}

func (s *Streamer) activate(ch *Chunk) {
	delete(s.building, ch.Coord)
	s.active[ch.Coord] = ch

	if ch.Portal != nil {
		site := portalSite(ch)
		s.log.Info("portal placed", "coord", ch.Coord, "center", site.Center, "fallback", site.Fallback)
		s.sink.PortalPlaced(site)
	}
	s.sink.ChunkActivated(BuiltChunk{
		Coord:  ch.Coord,
		Origin: ch.Origin(),
		Mesh:   ch.Mesh,
		Water:  ch.Water,
		Stats:  ch.Stats,
	})
	s.log.Debug("chunk activated",
		"coord", ch.Coord,
		"vertices", ch.Mesh.VertexCount(),
		"triangles", ch.Mesh.TotalTriangles())

	// finished after the observer moved away
	if _, ok := s.required[ch.Coord]; !ok {
		s.unloadBacklog = true
	}
}

// State reports where a coordinate is in its lifecycle.
func (s *Streamer) State(c world.ChunkCoord) ChunkState {
	if _, ok := s.active[c]; ok {
		return StateActive
	}
	if _, ok := s.building[c]; ok {
		return StateBuilding
	}
	if _, ok := s.queued[c]; ok {
		return StateQueued
	}
	return StateNotLoaded
}

// Chunk returns the active chunk at c, if any.
func (s *Streamer) Chunk(c world.ChunkCoord) (*Chunk, bool) {
	ch, ok := s.active[c]
	return ch, ok
}

// ActiveChunks returns the active chunks ordered by x then z.
func (s *Streamer) ActiveChunks() []*Chunk {
	out := make([]*Chunk, 0, len(s.active))
	for _, ch := range s.active {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Coord.X != out[j].Coord.X {
			return out[i].Coord.X < out[j].Coord.X
		}
		return out[i].Coord.Z < out[j].Coord.Z
	})
	return out
}

// SolidAt reports whether the world voxel is solid in an active chunk.
// Unloaded space counts as empty.
func (s *Streamer) SolidAt(x, y, z int) bool {
	c, lx, lz := world.ChunkOf(x, z, s.dim)
	ch, ok := s.active[c]
	if !ok {
		return false
	}
	return ch.Grid.IsSolid(lx, y, lz)
}

// Stats returns current counts.
func (s *Streamer) Stats() Stats {
	return Stats{
		Center:       s.center,
		ViewDistance: s.viewDistance,
		Active:       len(s.active),
		Queued:       len(s.queue),
		Building:     len(s.building),
		Pooled:       len(s.pool),
	}
}
