// Package profiling accumulates per-tick wall time by named section so slow
// streamer ticks can report where the time went.
package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Entry is the accumulated time and call count of one section.
type Entry struct {
	Name  string
	Total time.Duration
	Calls int
}

var (
	mu       sync.Mutex
	sections = make(map[string]*Entry)
)

// Track starts timing name and returns the function that stops it.
// Usage: defer profiling.Track("streaming.Tick")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		e, ok := sections[name]
		if !ok {
			e = &Entry{Name: name}
			sections[name] = e
		}
		e.Total += d
		e.Calls++
		mu.Unlock()
	}
}

// ResetFrame clears the totals. Call at the start of each tick.
func ResetFrame() {
	mu.Lock()
	clear(sections)
	mu.Unlock()
}

// Snapshot returns the entries sorted by descending total time.
func Snapshot() []Entry {
	mu.Lock()
	out := make([]Entry, 0, len(sections))
	for _, e := range sections {
		out = append(out, *e)
	}
	mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopN formats the n most expensive sections,
// e.g. "terrain.Build:4.2ms(3), meshing.Generate:2.1ms(3)".
func TopN(n int) string {
	list := Snapshot()
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, e := range list[:n] {
		ms := float64(e.Total.Microseconds()) / 1000
		parts = append(parts, e.Name+":"+strconv.FormatFloat(ms, 'f', 1, 64)+"ms("+strconv.Itoa(e.Calls)+")")
	}
	return strings.Join(parts, ", ")
}
