package streaming

import (
	"context"
	"sync/atomic"

	"github.com/alitto/pond/v2"
)

// BuildPool runs whole chunk builds on background goroutines. Finished chunks
// come back on Results, which only the streamer's Tick drains.
type BuildPool struct {
	pool     pond.Pool
	pipeline *Pipeline
	results  chan *Chunk
	ctx      context.Context
	cancel   context.CancelFunc
	inFlight atomic.Int64
}

// NewBuildPool starts a pool of workers goroutines. capacity bounds the number
// of builds that may be outstanding at once.
func NewBuildPool(p *Pipeline, workers, capacity int) *BuildPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &BuildPool{
		pool:     pond.NewPool(workers),
		pipeline: p,
		results:  make(chan *Chunk, capacity),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Submit schedules a full build of c. The caller must not touch c until it is
// received from Results.
func (b *BuildPool) Submit(c *Chunk) {
	b.inFlight.Add(1)
	b.pool.Submit(func() {
		defer b.inFlight.Add(-1)
		b.pipeline.BuildAll(c)
		select {
		case b.results <- c:
		case <-b.ctx.Done():
		}
	})
}

// Results delivers built chunks.
func (b *BuildPool) Results() <-chan *Chunk { return b.results }

// InFlight returns the number of builds not yet handed back.
func (b *BuildPool) InFlight() int { return int(b.inFlight.Load()) }

// Shutdown abandons undelivered results and waits for running builds.
func (b *BuildPool) Shutdown() {
	b.cancel()
	b.pool.StopAndWait()
}
