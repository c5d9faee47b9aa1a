// Package log persists the edit journal as zstd-compressed JSONL, rotated
// hourly. Replaying the journal over a snapshot reconstructs the world.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"voxelforge.dev/internal/sim/world"
)

// EditJournal appends one JSON line per committed edit batch. It implements
// world.EditSink and is safe for concurrent use.
type EditJournal struct {
	dir string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	buf     *bufio.Writer
}

func NewEditJournal(worldDir string) *EditJournal {
	return &EditJournal{dir: filepath.Join(worldDir, "edits")}
}

func (j *EditJournal) WriteEdit(entry world.EditLogEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != j.curHour {
		if err := j.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := j.buf.Write(b); err != nil {
		return err
	}
	if err := j.buf.WriteByte('\n'); err != nil {
		return err
	}
	// Flush per entry so a crash loses at most the zstd frame in flight.
	return j.buf.Flush()
}

func (j *EditJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.closeLocked()
}

func (j *EditJournal) rotateLocked(hour string) error {
	if err := j.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(j.dir, fmt.Sprintf("edits-%s.jsonl.zst", hour))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	j.f = f
	j.enc = enc
	j.buf = bufio.NewWriterSize(enc, 128*1024)
	j.curHour = hour
	return nil
}

func (j *EditJournal) closeLocked() error {
	var err error
	if j.buf != nil {
		_ = j.buf.Flush()
	}
	if j.enc != nil {
		err = j.enc.Close()
		j.enc = nil
	}
	if j.f != nil {
		_ = j.f.Close()
		j.f = nil
	}
	j.buf = nil
	return err
}
