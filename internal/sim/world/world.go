// Package world is the orchestrator: it owns the loaded-chunk table, the
// chunk-cell pool, the global inventory and the pipeline stages, and runs
// one cooperative scheduling tick per frame. All shared state is mutated
// only from the scheduling goroutine.
package world

import (
	"fmt"
	"log"

	"voxelforge.dev/internal/protocol"
	"voxelforge.dev/internal/sim/tuning"
	"voxelforge.dev/internal/sim/world/cell"
	"voxelforge.dev/internal/sim/world/grid"
	"voxelforge.dev/internal/sim/world/logic/mathx"
	"voxelforge.dev/internal/sim/world/pipeline"
	"voxelforge.dev/internal/sim/world/streaming"
	"voxelforge.dev/internal/sim/world/structures"
	"voxelforge.dev/internal/sim/world/terrain"
	"voxelforge.dev/internal/sim/world/voxel"
)

type World struct {
	cfg tuning.Tuning
	log *log.Logger

	cw    grid.ChunkWorld
	pool  *cell.Pool
	table *pipeline.Table
	calc  streaming.Calculator

	qDensity   *pipeline.Queue
	qStructure *pipeline.Queue
	qMeshPrio  *pipeline.Queue
	qMesh      *pipeline.Queue
	qCollider  *pipeline.Queue
	stages     []pipeline.Stage

	layers     []terrain.NoiseLayer
	archetypes []structures.Archetype
	probe      terrain.GroundProbe
	extractor  terrain.SurfaceExtractor

	inventory Inventory

	editSink EditSink

	tick          uint64
	observerChunk grid.ChunkCoord
	observerSeen  bool
}

func New(cfg tuning.Tuning, logger *log.Logger) (*World, error) {
	cfg.Normalize()
	cw, err := grid.New(cfg.ChunkEdge, cfg.GridDim)
	if err != nil {
		return nil, err
	}

	layers, err := buildLayers(cfg.NoiseLayers)
	if err != nil {
		return nil, err
	}
	archetypes, err := buildArchetypes(cfg.Structures)
	if err != nil {
		return nil, err
	}

	probe := &terrain.NoiseProbe{
		Seed:   cfg.Seed,
		Layers: layers,
		Step:   cw.VoxelSize(),
		MaxY:   probeCeiling(layers),
		MinY:   probeFloor(layers),
	}

	w := &World{
		cfg:   cfg,
		log:   logger,
		cw:    cw,
		pool:  cell.NewPool(cfg.PoolPrewarm, cfg.PoolMax, cfg.GridDim),
		table: pipeline.NewTable(),
		calc: streaming.Calculator{
			HorizontalRadius: cfg.ViewRadius,
			VerticalRadius:   cfg.VerticalRadius,
			Hysteresis:       cfg.Hysteresis,
		},
		qDensity:   pipeline.NewQueue(),
		qStructure: pipeline.NewQueue(),
		qMeshPrio:  pipeline.NewQueue(),
		qMesh:      pipeline.NewQueue(),
		qCollider:  pipeline.NewQueue(),
		layers:     layers,
		archetypes: archetypes,
		probe:      probe,
		extractor:  terrain.FieldMesher{},
		inventory:  NewInventory(),
	}

	disc := &structures.Discoverer{
		World:      cw,
		Seed:       cfg.Seed,
		Archetypes: archetypes,
		Probe:      probe,
	}

	observer := func() grid.ChunkCoord { return w.observerChunk }
	iso := float32(cfg.IsoLevel)

	w.stages = []pipeline.Stage{
		&pipeline.DensityStage{
			In: w.qDensity, Out: w.qStructure, Table: w.table,
			World: cw, Filler: &terrain.NoiseFiller{Seed: cfg.Seed},
			Layers: layers, Log: logger,
		},
		&pipeline.StructureStage{
			In: w.qStructure, Out: w.qMesh, Table: w.table,
			Disc: disc, Halo: cfg.StructureHalo, Log: logger,
		},
		&pipeline.MeshStage{
			Priority: w.qMeshPrio, In: w.qMesh, Out: w.qCollider, Table: w.table,
			World: cw, Extractor: w.extractor, IsoLevel: iso,
			ColliderRadius: cfg.ColliderRadius, VerticalRadius: cfg.ColliderVerticalRadius,
			Observer: observer, Seed: cfg.Seed, DecorDensity: cfg.DecorDensity, Log: logger,
		},
		&pipeline.ColliderStage{
			In: w.qCollider, Table: w.table,
			World: cw, Extractor: w.extractor, IsoLevel: iso,
			ColliderRadius: cfg.ColliderRadius, VerticalRadius: cfg.ColliderVerticalRadius,
			Observer: observer, Log: logger,
		},
	}
	return w, nil
}

func buildLayers(specs []tuning.NoiseLayerSpec) ([]terrain.NoiseLayer, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one noise layer is required")
	}
	out := make([]terrain.NoiseLayer, 0, len(specs))
	for _, s := range specs {
		if _, err := voxel.ParseMaterial(s.Material); err != nil {
			return nil, fmt.Errorf("noise layer %s: %w", s.Name, err)
		}
		out = append(out, terrain.NoiseLayer{
			Name:        s.Name,
			Octaves:     s.Octaves,
			Lacunarity:  s.Lacunarity,
			Persistence: s.Persistence,
			Scale:       s.Scale,
			Weight:      s.Weight,
			Floor:       s.Floor,
			HardFloor:   s.HardFloor,
			Material:    s.Material,
		})
	}
	return out, nil
}

func buildArchetypes(specs []tuning.ArchetypeSpec) ([]structures.Archetype, error) {
	out := make([]structures.Archetype, 0, len(specs))
	for _, s := range specs {
		trunk, err := voxel.ParseMaterial(s.TrunkMaterial)
		if err != nil {
			return nil, fmt.Errorf("archetype %s: %w", s.Name, err)
		}
		leaves, err := voxel.ParseMaterial(s.LeavesMaterial)
		if err != nil {
			return nil, fmt.Errorf("archetype %s: %w", s.Name, err)
		}
		if s.SpacingGrid <= 0 {
			return nil, fmt.Errorf("archetype %s: spacing grid must be positive", s.Name)
		}
		out = append(out, structures.Archetype{
			Name:                s.Name,
			SpacingGrid:         s.SpacingGrid,
			ProbabilityPermille: s.ProbabilityPermille,
			MinSpacing:          s.MinSpacing,
			TrunkHeight:         s.TrunkHeight,
			TrunkRadius:         s.TrunkRadius,
			BranchCount:         s.BranchCount,
			BranchLength:        s.BranchLength,
			RootCount:           s.RootCount,
			RootLength:          s.RootLength,
			CanopyRadius:        s.CanopyRadius,
			MaxSlope:            s.MaxSlope,
			MinAltitude:         s.MinAltitude,
			MaxAltitude:         s.MaxAltitude,
			TrunkMaterial:       trunk,
			LeavesMaterial:      leaves,
		})
	}
	return out, nil
}

func probeCeiling(layers []terrain.NoiseLayer) float64 {
	top := layers[0].Floor
	for _, l := range layers[1:] {
		if l.Floor > top {
			top = l.Floor
		}
	}
	// Noise can push the surface above the floor by at most weight*gradient.
	return top + 48
}

func probeFloor(layers []terrain.NoiseLayer) float64 {
	bottom := layers[0].HardFloor
	for _, l := range layers[1:] {
		if l.HardFloor < bottom {
			bottom = l.HardFloor
		}
	}
	return bottom
}

func (w *World) CurrentTick() uint64          { return w.tick }
func (w *World) ChunkWorld() grid.ChunkWorld  { return w.cw }
func (w *World) LoadedChunks() int            { return w.table.Len() }
func (w *World) Config() tuning.Tuning        { return w.cfg }

// Tick runs one scheduling pass: throttled wanted-set recomputation, then
// every stage with its own budget, in pipeline order. Nothing blocks;
// unfinished work stays queued for the next tick.
func (w *World) Tick(observer mathx.Vec3) {
	w.tick++

	oc := w.cw.WorldToChunk(observer)
	moved := !w.observerSeen || oc != w.observerChunk
	w.observerChunk = oc
	w.observerSeen = true

	if moved || w.tick%uint64(w.cfg.WantedEveryTicks) == 0 {
		w.restream()
	}

	b := w.cfg.Budgets
	budgets := [...]int{b.Density, b.Structure, b.Mesh, b.Collider}
	for i, st := range w.stages {
		st.Run(budgets[i])
	}
}

// restream unloads chunks beyond the hysteresis boundary, then loads wanted
// chunks nearest-first until the pool runs dry.
func (w *World) restream() {
	loaded := make([]grid.ChunkCoord, 0, w.table.Len())
	w.table.Each(func(r *pipeline.Record) bool {
		loaded = append(loaded, r.Coord)
		return true
	})

	for _, c := range w.calc.Unwanted(w.observerChunk, loaded) {
		w.unload(c)
	}

	for _, c := range w.calc.Wanted(w.observerChunk) {
		if _, ok := w.table.Get(c); ok {
			continue
		}
		cl, ok := w.pool.Acquire()
		if !ok {
			// Pool exhausted; farther chunks wait for capacity.
			return
		}
		cl.ResetFor(w.cw.ChunkOrigin(c))
		w.table.Put(&pipeline.Record{Coord: c, Cell: cl, Stage: pipeline.Raw})
		w.qDensity.Push(c)
	}
}

func (w *World) unload(c grid.ChunkCoord) {
	rec, ok := w.table.Get(c)
	if !ok {
		return
	}
	w.table.Remove(c)
	w.pool.Release(rec.Cell)
	// Queue entries pointing at c are now stale; stages drop them on pop.
}

// Telemetry snapshots the read-only counters.
func (w *World) Telemetry() protocol.TelemetryFrame {
	depths := make(map[string]int, len(w.stages))
	for _, s := range w.stages {
		depths[s.Name()] = s.Pending()
	}
	ps := w.pool.Stats()
	return protocol.TelemetryFrame{
		Type:            protocol.TypeTelemetry,
		ProtocolVersion: protocol.Version,
		Tick:            w.tick,
		ObserverChunk:   [3]int{w.observerChunk.X, w.observerChunk.Y, w.observerChunk.Z},
		LoadedChunks:    w.table.Len(),
		QueueDepths:     depths,
		StageCounts:     w.table.CountByStage(),
		Pool:            protocol.PoolStats{Allocated: ps.Allocated, Free: ps.Free, Max: ps.Max},
		Inventory:       w.inventory.Counts(),
	}
}

// Bootstrap describes the immutable session parameters to an observer.
func (w *World) Bootstrap() protocol.BootstrapResponse {
	palette := make([]string, 0, 8)
	for _, m := range voxel.Materials() {
		palette = append(palette, m.String())
	}
	return protocol.BootstrapResponse{
		Type:            protocol.TypeBootstrap,
		ProtocolVersion: protocol.Version,
		Tick:            w.tick,
		WorldParams: protocol.WorldParams{
			TickRateHz: w.cfg.TickRateHz,
			Seed:       w.cfg.Seed,
			ChunkEdge:  w.cfg.ChunkEdge,
			GridDim:    w.cfg.GridDim,
			IsoLevel:   w.cfg.IsoLevel,
			ViewRadius: w.cfg.ViewRadius,
			VertRadius: w.cfg.VerticalRadius,
		},
		MaterialPalette: palette,
	}
}
