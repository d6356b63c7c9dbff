// Package journal records streamer events as zstd-compressed JSON lines.
// A session is split into numbered segments so long runs stay readable in
// pieces and a segment is never reopened once closed.
package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// segmentWriter appends one JSON value per line to the current segment and
// starts a new one when the UTC hour changes or the segment is full.
type segmentWriter struct {
	dir       string
	prefix    string
	maxEvents int // lines per segment, 0 for no limit
	now       func() time.Time

	mu     sync.Mutex
	seq    int    // number of the open segment, 0 before the first
	hour   string // hour the open segment was started in
	events int
	files  []string
	f      *os.File
	enc    *zstd.Encoder
	buf    *bufio.Writer
}

func newSegmentWriter(dir, prefix string, maxEvents int) *segmentWriter {
	return &segmentWriter{dir: dir, prefix: prefix, maxEvents: maxEvents, now: time.Now}
}

func (w *segmentWriter) write(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("journal: encode: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006010215")
	if w.buf == nil || hour != w.hour || (w.maxEvents > 0 && w.events >= w.maxEvents) {
		if err := w.openNextLocked(hour); err != nil {
			return err
		}
	}
	if _, err := w.buf.Write(line); err != nil {
		return fmt.Errorf("journal: write: %w", err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("journal: write: %w", err)
	}
	w.events++
	return w.buf.Flush()
}

// openNextLocked closes the open segment and creates the next one. Segment
// numbers only grow, so every file name is used once.
func (w *segmentWriter) openNextLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("journal: create dir: %w", err)
	}
	w.seq++
	path := filepath.Join(w.dir, fmt.Sprintf("%s-%s-%04d.jsonl.zst", w.prefix, hour, w.seq))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("journal: create segment: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("journal: zstd: %w", err)
	}
	w.f, w.enc = f, enc
	w.buf = bufio.NewWriterSize(enc, 32*1024)
	w.hour = hour
	w.events = 0
	w.files = append(w.files, path)
	return nil
}

func (w *segmentWriter) segments() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.files...)
}

func (w *segmentWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *segmentWriter) closeLocked() error {
	if w.buf == nil {
		return nil
	}
	err := w.buf.Flush()
	err = errors.Join(err, w.enc.Close(), w.f.Close())
	w.buf, w.enc, w.f = nil, nil, nil
	if err != nil {
		return fmt.Errorf("journal: close segment: %w", err)
	}
	return nil
}

// ReadSegment decodes every event of one segment file.
func ReadSegment(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open segment: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("journal: zstd: %w", err)
	}
	defer dec.Close()

	var out []Event
	jd := json.NewDecoder(dec)
	for {
		var ev Event
		if err := jd.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("journal: decode %s: %w", filepath.Base(path), err)
		}
		out = append(out, ev)
	}
}
