package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	got, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TickRateHz != 20 || got.GridDim != 19 || got.ChunkEdge != 16 {
		t.Fatalf("unexpected defaults: %+v", got)
	}
	if len(got.NoiseLayers) == 0 || len(got.Structures) == 0 {
		t.Fatalf("defaults must include at least one layer and one archetype")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	raw := []byte(`
tick_rate_hz: 30
seed: 99
grid_dim: 23
view_radius: 6
budgets:
  mesh: 12
noise_layers:
  - name: flats
    octaves: 2
    lacunarity: 2.0
    persistence: 0.5
    scale: 32
    weight: 0.4
    floor: 4
    hard_floor: -16
    material: SAND
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TickRateHz != 30 || got.Seed != 99 || got.GridDim != 23 || got.ViewRadius != 6 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	if got.Budgets.Mesh != 12 {
		t.Fatalf("budgets.mesh = %d, want 12", got.Budgets.Mesh)
	}
	// Unset budget fields still normalize to something runnable.
	if got.Budgets.Density < 1 || got.Budgets.Collider < 1 {
		t.Fatalf("budgets not normalized: %+v", got.Budgets)
	}
	if len(got.NoiseLayers) != 1 || got.NoiseLayers[0].Material != "SAND" {
		t.Fatalf("noise layers not replaced: %+v", got.NoiseLayers)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: [oops"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNormalize_ClampsNonsense(t *testing.T) {
	tn := Tuning{
		TickRateHz: -5,
		ChunkEdge:  0,
		GridDim:    2,
		IsoLevel:   1.5,
		ViewRadius: 0,
	}
	tn.Normalize()
	if tn.TickRateHz != 20 || tn.ChunkEdge != 16 || tn.GridDim != 19 {
		t.Fatalf("core params not clamped: %+v", tn)
	}
	if tn.IsoLevel != 0.5 {
		t.Fatalf("iso level = %v, want 0.5", tn.IsoLevel)
	}
	if tn.ViewRadius != 1 || tn.WantedEveryTicks != 1 {
		t.Fatalf("streaming params not clamped: %+v", tn)
	}
	if tn.Budgets.Density != 1 || tn.Budgets.Mesh != 1 {
		t.Fatalf("budgets not clamped: %+v", tn.Budgets)
	}
}
