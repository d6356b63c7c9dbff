package journal

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"voxelgen/internal/meshing"
	"voxelgen/internal/streaming"
	"voxelgen/internal/world"
)

// Event kinds.
const (
	KindChunkActivated   = "chunk_activated"
	KindChunkDeactivated = "chunk_deactivated"
	KindPortalPlaced     = "portal_placed"
)

// Event is one journal line.
type Event struct {
	Session   string         `json:"session"`
	Seq       uint64         `json:"seq"`
	Time      time.Time      `json:"time"`
	Kind      string         `json:"kind"`
	Chunk     [2]int         `json:"chunk"`
	Vertices  int            `json:"vertices,omitempty"`
	Triangles map[string]int `json:"triangles,omitempty"`
	Height    *HeightRange   `json:"height,omitempty"`
	Portal    *Portal        `json:"portal,omitempty"`
}

// HeightRange is the lowest and highest terrain surface in a chunk.
type HeightRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Portal records where a chunk's portal frame was centred and whether the
// fallback position was used.
type Portal struct {
	Center   [3]float32 `json:"center"`
	Fallback bool       `json:"fallback"`
}

// Journal is a streaming.Sink that writes every event to numbered segment
// files. Write errors are logged and counted; they never interrupt streaming.
type Journal struct {
	session string
	w       *segmentWriter
	log     *slog.Logger
	seq     atomic.Uint64
	errs    atomic.Int64
}

var _ streaming.Sink = (*Journal)(nil)

// Open starts a new session journal under dir. A segment holds at most
// segmentEvents events; zero or less means segments only roll by hour.
func Open(dir string, segmentEvents int, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	session := uuid.NewString()
	return &Journal{
		session: session,
		w:       newSegmentWriter(dir, "session-"+session, max(segmentEvents, 0)),
		log:     logger,
	}
}

// Session returns the session id stamped on every event.
func (j *Journal) Session() string { return j.session }

// Files lists the segment files written so far, oldest first.
func (j *Journal) Files() []string { return j.w.segments() }

// Errors returns how many events failed to write.
func (j *Journal) Errors() int64 { return j.errs.Load() }

// Close flushes the journal.
func (j *Journal) Close() error { return j.w.close() }

// ChunkActivated records a built chunk with its vertex count, per-material
// triangle counts and surface height range.
func (j *Journal) ChunkActivated(b streaming.BuiltChunk) {
	ev := j.event(KindChunkActivated, b.Coord)
	ev.Vertices = b.Mesh.VertexCount()
	ev.Triangles = make(map[string]int)
	for m := meshing.Material(0); m < meshing.MaterialCount; m++ {
		if n := b.Mesh.TriangleCount(m); n > 0 {
			ev.Triangles[m.String()] = n
		}
	}
	ev.Height = &HeightRange{Min: b.Stats.MinHeight, Max: b.Stats.MaxHeight}
	j.write(ev)
}

// PortalPlaced records a portal frame placement.
func (j *Journal) PortalPlaced(p streaming.PortalSite) {
	ev := j.event(KindPortalPlaced, p.Coord)
	ev.Portal = &Portal{Center: p.Center, Fallback: p.Fallback}
	j.write(ev)
}

// ChunkDeactivated records a chunk leaving the active set.
func (j *Journal) ChunkDeactivated(c world.ChunkCoord) {
	j.write(j.event(KindChunkDeactivated, c))
}

func (j *Journal) event(kind string, c world.ChunkCoord) Event {
	return Event{
		Session: j.session,
		Seq:     j.seq.Add(1),
		Time:    time.Now().UTC(),
		Kind:    kind,
		Chunk:   [2]int{c.X, c.Z},
	}
}

func (j *Journal) write(ev Event) {
	if err := j.w.write(ev); err != nil {
		j.errs.Add(1)
		j.log.Error("journal write failed", "kind", ev.Kind, "error", err)
	}
}
