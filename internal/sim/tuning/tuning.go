// Package tuning loads the per-session world configuration. Loaded once at
// startup and treated as immutable afterwards.
package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int   `yaml:"tick_rate_hz"`
	Seed       int64 `yaml:"seed"`

	ChunkEdge float64 `yaml:"chunk_edge"`
	GridDim   int     `yaml:"grid_dim"`
	IsoLevel  float64 `yaml:"iso_level"`

	ViewRadius             int `yaml:"view_radius"`
	VerticalRadius         int `yaml:"vertical_radius"`
	ColliderRadius         int `yaml:"collider_radius"`
	ColliderVerticalRadius int `yaml:"collider_vertical_radius"`
	Hysteresis             int `yaml:"hysteresis"`
	WantedEveryTicks       int `yaml:"wanted_every_ticks"`

	PoolPrewarm int `yaml:"pool_prewarm"`
	PoolMax     int `yaml:"pool_max"`

	Budgets Budgets `yaml:"budgets"`

	StructureHalo int `yaml:"structure_halo"`
	DecorDensity  int `yaml:"decor_density"`

	NoiseLayers []NoiseLayerSpec `yaml:"noise_layers"`
	Structures  []ArchetypeSpec  `yaml:"structures"`

	SnapshotEveryTicks  int `yaml:"snapshot_every_ticks"`
	TelemetryEveryTicks int `yaml:"telemetry_every_ticks"`
}

// Budgets caps how many queued chunks each pipeline stage may process in
// one scheduling tick.
type Budgets struct {
	Density   int `yaml:"density"`
	Structure int `yaml:"structure"`
	Mesh      int `yaml:"mesh"`
	Collider  int `yaml:"collider"`
}

type NoiseLayerSpec struct {
	Name        string  `yaml:"name"`
	Octaves     int     `yaml:"octaves"`
	Lacunarity  float64 `yaml:"lacunarity"`
	Persistence float64 `yaml:"persistence"`
	Scale       float64 `yaml:"scale"`
	Weight      float64 `yaml:"weight"`
	Floor       float64 `yaml:"floor"`
	HardFloor   float64 `yaml:"hard_floor"`
	Material    string  `yaml:"material"`
}

type ArchetypeSpec struct {
	Name                string     `yaml:"name"`
	SpacingGrid         int        `yaml:"spacing_grid"`
	ProbabilityPermille int        `yaml:"probability_permille"`
	MinSpacing          float64    `yaml:"min_spacing"`
	TrunkHeight         [2]float64 `yaml:"trunk_height"`
	TrunkRadius         float64    `yaml:"trunk_radius"`
	BranchCount         [2]int     `yaml:"branch_count"`
	BranchLength        [2]float64 `yaml:"branch_length"`
	RootCount           [2]int     `yaml:"root_count"`
	RootLength          [2]float64 `yaml:"root_length"`
	CanopyRadius        float64    `yaml:"canopy_radius"`
	MaxSlope            float64    `yaml:"max_slope"`
	MinAltitude         float64    `yaml:"min_altitude"`
	MaxAltitude         float64    `yaml:"max_altitude"`
	TrunkMaterial       string     `yaml:"trunk_material"`
	LeavesMaterial      string     `yaml:"leaves_material"`
}

func defaults() Tuning {
	return Tuning{
		TickRateHz:             20,
		Seed:                   1337,
		ChunkEdge:              16,
		GridDim:                19,
		IsoLevel:               0.5,
		ViewRadius:             4,
		VerticalRadius:         2,
		ColliderRadius:         1,
		ColliderVerticalRadius: 1,
		Hysteresis:             1,
		WantedEveryTicks:       4,
		PoolPrewarm:            64,
		PoolMax:                512,
		Budgets: Budgets{
			Density:   4,
			Structure: 4,
			Mesh:      6,
			Collider:  16,
		},
		StructureHalo: 1,
		DecorDensity:  24,
		NoiseLayers: []NoiseLayerSpec{
			{
				Name:        "base",
				Octaves:     4,
				Lacunarity:  2.0,
				Persistence: 0.5,
				Scale:       48,
				Weight:      0.35,
				Floor:       8,
				HardFloor:   -48,
				Material:    "STONE",
			},
		},
		Structures: []ArchetypeSpec{
			{
				Name:                "oak",
				SpacingGrid:         24,
				ProbabilityPermille: 450,
				MinSpacing:          10,
				TrunkHeight:         [2]float64{6, 11},
				TrunkRadius:         0.9,
				BranchCount:         [2]int{2, 5},
				BranchLength:        [2]float64{2.5, 5},
				RootCount:           [2]int{2, 4},
				RootLength:          [2]float64{1.5, 3},
				CanopyRadius:        3.5,
				MaxSlope:            1.25,
				MinAltitude:         -4,
				MaxAltitude:         48,
				TrunkMaterial:       "WOOD",
				LeavesMaterial:      "LEAVES",
			},
		},
		SnapshotEveryTicks:  0,
		TelemetryEveryTicks: 10,
	}
}

// Load reads tuning.yaml; an empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := defaults()
	if strings.TrimSpace(path) == "" {
		t.Normalize()
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.Normalize()
	return t, nil
}

// Normalize fills unset values with workable ones; validation that can
// actually fail lives in world construction.
func (t *Tuning) Normalize() {
	if t.TickRateHz <= 0 {
		t.TickRateHz = 20
	}
	if t.ChunkEdge <= 0 {
		t.ChunkEdge = 16
	}
	if t.GridDim < 4 {
		t.GridDim = 19
	}
	if t.IsoLevel <= 0 || t.IsoLevel >= 1 {
		t.IsoLevel = 0.5
	}
	if t.ViewRadius < 1 {
		t.ViewRadius = 1
	}
	if t.VerticalRadius < 0 {
		t.VerticalRadius = 0
	}
	if t.ColliderRadius < 0 {
		t.ColliderRadius = 0
	}
	if t.ColliderVerticalRadius < 0 {
		t.ColliderVerticalRadius = 0
	}
	if t.Hysteresis < 0 {
		t.Hysteresis = 0
	}
	if t.WantedEveryTicks < 1 {
		t.WantedEveryTicks = 1
	}
	if t.PoolPrewarm < 0 {
		t.PoolPrewarm = 0
	}
	if t.PoolMax < 1 {
		t.PoolMax = 1
	}
	if t.Budgets.Density < 1 {
		t.Budgets.Density = 1
	}
	if t.Budgets.Structure < 1 {
		t.Budgets.Structure = 1
	}
	if t.Budgets.Mesh < 1 {
		t.Budgets.Mesh = 1
	}
	if t.Budgets.Collider < 1 {
		t.Budgets.Collider = 1
	}
	if t.StructureHalo < 1 {
		t.StructureHalo = 1
	}
	if t.TelemetryEveryTicks < 1 {
		t.TelemetryEveryTicks = 1
	}
}
