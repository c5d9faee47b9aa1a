// Package snapshot persists the streamed world: every loaded chunk's voxel
// field plus the session inventory, zstd-compressed. Breaking progress is
// transient preview state and is deliberately not captured.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed      int64   `json:"seed"`
	ChunkEdge float64 `json:"chunk_edge"`
	GridDim   int     `json:"grid_dim"`

	Inventory map[string]int `json:"inventory,omitempty"`
	Chunks    []ChunkV1      `json:"chunks"`
}

// ChunkV1 is one chunk's voxel field in grid index order. Materials are
// run-length encoded (see internal/sim/encoding); iso values stay raw and
// lean on zstd.
type ChunkV1 struct {
	Coord        [3]int    `json:"coord"`
	MaterialsRLE string    `json:"materials_rle"`
	Iso          []float32 `json:"iso"`
}

// WriteSnapshot writes a human-greppable JSON header line followed by the
// gob body, all zstd-compressed.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header line is advisory; the gob body repeats it.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// SnapshotPath names a snapshot file for a tick.
func SnapshotPath(dir string, tick uint64) string {
	return filepath.Join(dir, fmt.Sprintf("snap_%012d.zst", tick))
}

// LatestPath finds the newest snapshot in dir, or "" when none exist.
func LatestPath(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "snap_") && strings.HasSuffix(name, ".zst") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
