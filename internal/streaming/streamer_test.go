package streaming

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelgen/internal/config"
	"voxelgen/internal/terrain"
	"voxelgen/internal/world"
)

type recordingSink struct {
	activated   []world.ChunkCoord
	deactivated []world.ChunkCoord
	portals     []PortalSite
}

func (r *recordingSink) ChunkActivated(b BuiltChunk) { r.activated = append(r.activated, b.Coord) }
func (r *recordingSink) PortalPlaced(p PortalSite)   { r.portals = append(r.portals, p) }
func (r *recordingSink) ChunkDeactivated(c world.ChunkCoord) {
	r.deactivated = append(r.deactivated, c)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.World.ChunkSizeX = 16
	cfg.World.ChunkSizeZ = 16
	cfg.Terrain.Seed = 12345
	cfg.Terrain.CaveSeed = 999
	cfg.Terrain.PortalSeed = 4242
	cfg.Streaming.ViewDistance = 2
	cfg.Streaming.GenerationDelay = 0
	cfg.Streaming.UseOcclusionCulling = false
	cfg.Streaming.SlowTickThreshold = 0
	cfg.Water.Tessellation = 4
	return cfg
}

func newTestStreamer(t *testing.T, cfg config.Config) (*Streamer, *recordingSink) {
	t.Helper()
	sampler, err := terrain.NewSampler(cfg.Terrain, cfg.World.ChunkSizeY)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	sink := &recordingSink{}
	s, err := New(Options{Config: cfg, Sampler: sampler, Sink: sink})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s, sink
}

// observerIn stands at the centre of chunk c, mid-height, facing +X.
func observerIn(c world.ChunkCoord, dim world.Dimensions) Observer {
	return Observer{
		Position: mgl32.Vec3{float32(c.X*dim.X + dim.X/2), float32(dim.Y / 2), float32(c.Z*dim.Z + dim.Z/2)},
		Forward:  mgl32.Vec3{1, 0, 0},
	}
}

func checkInvariants(t *testing.T, s *Streamer) {
	t.Helper()
	if len(s.queue) != len(s.queued) {
		t.Fatalf("queue has %d entries but membership set has %d", len(s.queue), len(s.queued))
	}
	for c := range s.queued {
		if _, ok := s.active[c]; ok {
			t.Fatalf("%v both queued and active", c)
		}
		if _, ok := s.building[c]; ok {
			t.Fatalf("%v both queued and building", c)
		}
	}
	for c := range s.building {
		if _, ok := s.active[c]; ok {
			t.Fatalf("%v both building and active", c)
		}
	}
	live := make(map[*Chunk]bool, len(s.active))
	for c, ch := range s.active {
		live[ch] = true
		if ch.Stage() != StageMeshed {
			t.Fatalf("active chunk %v at stage %v", c, ch.Stage())
		}
	}
	for _, ch := range s.pool {
		if live[ch] {
			t.Fatal("pooled chunk is also active")
		}
	}
}

func tickUntil(t *testing.T, s *Streamer, obs Observer, maxTicks int, done func() bool) {
	t.Helper()
	for i := 0; i < maxTicks; i++ {
		s.Tick(obs)
		checkInvariants(t, s)
		if done() {
			return
		}
	}
	t.Fatalf("condition not reached after %d ticks: %+v", maxTicks, s.Stats())
}

func TestStreamerLoadsRequiredSet(t *testing.T) {
	cfg := testConfig()
	s, sink := newTestStreamer(t, cfg)
	obs := observerIn(world.ChunkCoord{}, s.dim)

	tickUntil(t, s, obs, 50, func() bool { return s.Stats().Active == 13 })

	for _, c := range RequiredChunks(world.ChunkCoord{}, 2) {
		if st := s.State(c); st != StateActive {
			t.Errorf("%v state = %v, want active", c, st)
		}
	}
	if len(sink.activated) != 13 {
		t.Errorf("sink saw %d activations, want 13", len(sink.activated))
	}
	if len(sink.portals) != 1 || sink.portals[0].Coord != (world.ChunkCoord{}) {
		t.Errorf("portal events = %+v, want one at the origin chunk", sink.portals)
	}

	ch, ok := s.Chunk(world.ChunkCoord{})
	if !ok || ch.Mesh.TotalTriangles() == 0 || ch.Water == nil {
		t.Fatal("origin chunk missing mesh or water")
	}
	if ch.Portal == nil {
		t.Fatal("origin chunk has no portal placement")
	}
}

func TestStreamerIdleOnceSettled(t *testing.T) {
	s, _ := newTestStreamer(t, testConfig())
	obs := observerIn(world.ChunkCoord{}, s.dim)
	tickUntil(t, s, obs, 50, func() bool { return s.Stats().Active == 13 })

	// one more tick may be needed to clear the last bookkeeping
	s.Tick(obs)
	if rep := s.Tick(obs); !rep.Idle {
		t.Fatalf("settled streamer did not idle: %+v", rep)
	}
}

func TestStreamerUnloadsFarthestFirstOnePerTick(t *testing.T) {
	s, sink := newTestStreamer(t, testConfig())
	tickUntil(t, s, observerIn(world.ChunkCoord{}, s.dim), 50, func() bool { return s.Stats().Active == 13 })

	first := make(map[*Chunk]bool)
	for _, ch := range s.ActiveChunks() {
		first[ch] = true
	}

	far := observerIn(world.ChunkCoord{X: 10}, s.dim)
	rep := s.Tick(far)
	if rep.Unloaded != 1 {
		t.Fatalf("first tick after moving unloaded %d chunks, want 1", rep.Unloaded)
	}
	if sink.deactivated[0] != (world.ChunkCoord{X: -2}) {
		t.Errorf("first unloaded %v, want the farthest chunk (-2,0)", sink.deactivated[0])
	}

	tickUntil(t, s, far, 100, func() bool {
		st := s.Stats()
		return st.Active == 13 && st.Building == 0 && len(sink.deactivated) == 13
	})
	for _, c := range RequiredChunks(world.ChunkCoord{X: 10}, 2) {
		if st := s.State(c); st != StateActive {
			t.Errorf("%v state = %v, want active", c, st)
		}
	}

	reused := 0
	for _, ch := range s.ActiveChunks() {
		if first[ch] {
			reused++
		}
	}
	if reused == 0 {
		t.Error("no pooled chunk objects were reused")
	}
}

func TestStreamerCancelsQueuedChunks(t *testing.T) {
	cfg := testConfig()
	cfg.Streaming.ChunksPerFrame = 1
	s, _ := newTestStreamer(t, cfg)

	s.Tick(observerIn(world.ChunkCoord{}, s.dim))
	if s.Stats().Queued == 0 {
		t.Fatal("expected queued chunks after the first tick")
	}

	s.Tick(observerIn(world.ChunkCoord{X: 20, Z: 20}, s.dim))
	checkInvariants(t, s)
	for _, c := range RequiredChunks(world.ChunkCoord{}, 2) {
		if s.State(c) == StateQueued {
			t.Errorf("%v still queued after leaving the required set", c)
		}
	}
}

func TestStreamerFrustumSkipsChunksBehind(t *testing.T) {
	cfg := testConfig()
	s, _ := newTestStreamer(t, cfg)

	obs := observerIn(world.ChunkCoord{}, s.dim)
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 500)
	view := mgl32.LookAtV(obs.Position, obs.Position.Add(mgl32.Vec3{1, 0, 0}), mgl32.Vec3{0, 1, 0})
	f := FrustumFromMatrix(proj.Mul4(view))
	obs.Frustum = &f

	s.Tick(obs)
	if st := s.State(world.ChunkCoord{X: -2}); st != StateNotLoaded {
		t.Errorf("chunk behind the observer state = %v, want not_loaded", st)
	}
	if st := s.State(world.ChunkCoord{X: 2}); st == StateNotLoaded {
		t.Errorf("chunk ahead of the observer was not scheduled")
	}
}

func TestStreamerSetViewDistance(t *testing.T) {
	s, _ := newTestStreamer(t, testConfig())
	obs := observerIn(world.ChunkCoord{}, s.dim)
	tickUntil(t, s, obs, 50, func() bool { return s.Stats().Active == 13 })

	s.SetViewDistance(1)
	tickUntil(t, s, obs, 50, func() bool { return s.Stats().Active == 5 })

	s.SetViewDistance(1000)
	if s.ViewDistance() != maxViewDistance {
		t.Errorf("view distance = %d, want clamp to %d", s.ViewDistance(), maxViewDistance)
	}
	s.SetViewDistance(-3)
	if s.ViewDistance() != minViewDistance {
		t.Errorf("view distance = %d, want clamp to %d", s.ViewDistance(), minViewDistance)
	}
}

func TestStreamerGenerationDelayThrottles(t *testing.T) {
	cfg := testConfig()
	cfg.Streaming.GenerationDelay = config.Duration(time.Hour)
	s, _ := newTestStreamer(t, cfg)
	obs := observerIn(world.ChunkCoord{}, s.dim)

	if rep := s.Tick(obs); rep.Started != cfg.Streaming.ChunksPerFrame {
		t.Fatalf("first slice started %d, want %d", rep.Started, cfg.Streaming.ChunksPerFrame)
	}
	for i := 0; i < 5; i++ {
		if rep := s.Tick(obs); rep.Started != 0 {
			t.Fatalf("tick %d started %d builds inside the generation delay", i, rep.Started)
		}
	}
}

func TestStreamerWorkerMode(t *testing.T) {
	cfg := testConfig()
	cfg.Streaming.Workers = 2
	s, sink := newTestStreamer(t, cfg)
	obs := observerIn(world.ChunkCoord{}, s.dim)

	deadline := time.Now().Add(20 * time.Second)
	for s.Stats().Active < 13 {
		if time.Now().After(deadline) {
			t.Fatalf("worker mode did not converge: %+v", s.Stats())
		}
		s.Tick(obs)
		checkInvariants(t, s)
		time.Sleep(time.Millisecond)
	}
	if len(sink.activated) != 13 {
		t.Errorf("sink saw %d activations, want 13", len(sink.activated))
	}
}

func TestStreamerSolidAt(t *testing.T) {
	s, _ := newTestStreamer(t, testConfig())
	tickUntil(t, s, observerIn(world.ChunkCoord{}, s.dim), 50, func() bool { return s.Stats().Active == 13 })

	if !s.SolidAt(3, 0, 3) {
		t.Error("bedrock at y=0 should be solid")
	}
	if s.SolidAt(3, s.dim.Y-1+10, 3) {
		t.Error("above the chunk should not be solid")
	}
	if s.SolidAt(10_000, 0, 10_000) {
		t.Error("unloaded space should not be solid")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	cfg := testConfig()
	if _, err := New(Options{Config: cfg}); err == nil {
		t.Error("expected error without a sampler")
	}

	sampler, err := terrain.NewSampler(cfg.Terrain, 64)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	if _, err := New(Options{Config: cfg, Sampler: sampler}); err == nil {
		t.Error("expected error for mismatched sampler height")
	}

	bad := testConfig()
	bad.Streaming.ChunksPerFrame = 0
	good, _ := terrain.NewSampler(bad.Terrain, bad.World.ChunkSizeY)
	if _, err := New(Options{Config: bad, Sampler: good}); err == nil {
		t.Error("expected error for invalid config")
	}
}
