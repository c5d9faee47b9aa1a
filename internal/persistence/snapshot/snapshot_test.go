package snapshot

import (
	"os"
	"path/filepath"
	"testing"
)

func sampleSnapshot() SnapshotV1 {
	return SnapshotV1{
		Header:    Header{Version: 1, WorldID: "alpha", Tick: 4200},
		Seed:      1337,
		ChunkEdge: 16,
		GridDim:   19,
		Inventory: map[string]int{"STONE": 12, "SAND": -3},
		Chunks: []ChunkV1{
			{Coord: [3]int{0, 0, 0}, MaterialsRLE: "AAEC", Iso: []float32{0, 0.5, 1}},
			{Coord: [3]int{1, 0, -2}, MaterialsRLE: "AQM", Iso: []float32{0.25, 0.75}},
		},
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := SnapshotPath(dir, 4200)

	want := sampleSnapshot()
	if err := WriteSnapshot(path, want); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got.Header != want.Header || got.Seed != want.Seed || got.GridDim != want.GridDim {
		t.Fatalf("header mismatch: %+v", got)
	}
	if len(got.Chunks) != len(want.Chunks) {
		t.Fatalf("chunks = %d, want %d", len(got.Chunks), len(want.Chunks))
	}
	for i := range want.Chunks {
		if got.Chunks[i].Coord != want.Chunks[i].Coord ||
			got.Chunks[i].MaterialsRLE != want.Chunks[i].MaterialsRLE {
			t.Fatalf("chunk %d mismatch: %+v", i, got.Chunks[i])
		}
		for j, iso := range want.Chunks[i].Iso {
			if got.Chunks[i].Iso[j] != iso {
				t.Fatalf("chunk %d iso %d mismatch", i, j)
			}
		}
	}
	if got.Inventory["STONE"] != 12 || got.Inventory["SAND"] != -3 {
		t.Fatalf("inventory mismatch: %v", got.Inventory)
	}
}

func TestWriteSnapshot_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worlds", "alpha", "snapshots", "snap.zst")
	if err := WriteSnapshot(path, sampleSnapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}
}

func TestLatestPath(t *testing.T) {
	dir := t.TempDir()

	got, err := LatestPath(dir)
	if err != nil || got != "" {
		t.Fatalf("empty dir: path %q, err %v", got, err)
	}

	got, err = LatestPath(filepath.Join(dir, "missing"))
	if err != nil || got != "" {
		t.Fatalf("missing dir: path %q, err %v", got, err)
	}

	for _, tick := range []uint64{12000, 600, 24000} {
		if err := WriteSnapshot(SnapshotPath(dir, tick), sampleSnapshot()); err != nil {
			t.Fatalf("WriteSnapshot: %v", err)
		}
	}
	// A non-snapshot file that must not win.
	if err := os.WriteFile(filepath.Join(dir, "zzz.tmp"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err = LatestPath(dir)
	if err != nil {
		t.Fatalf("LatestPath: %v", err)
	}
	if got != SnapshotPath(dir, 24000) {
		t.Fatalf("latest = %q, want tick 24000", got)
	}
}
