package world

import "voxelforge.dev/internal/sim/world/voxel"

// BrushRecord is the journaled form of one applied brush volume.
type BrushRecord struct {
	Op       string     `json:"op"` // "sphere" | "cube" | "smooth"
	Center   [3]float64 `json:"center"`
	Radius   float64    `json:"radius,omitempty"`
	Half     [3]float64 `json:"half,omitempty"`
	Strength float32    `json:"strength"`
	Material string     `json:"material"`
	Preview  bool       `json:"preview,omitempty"`
}

// EditLogEntry records one committed edit batch.
type EditLogEntry struct {
	Tick    uint64         `json:"tick"`
	Brushes []BrushRecord  `json:"brushes"`
	Delta   map[string]int `json:"delta,omitempty"`
}

// EditSink receives committed edit batches. Sinks must not retain the entry's
// slices past the call.
type EditSink interface {
	WriteEdit(entry EditLogEntry) error
}

// SetEditSink installs a journal destination for committed edits. Nil
// disables journaling.
func (w *World) SetEditSink(s EditSink) { w.editSink = s }

func (w *World) journalEdit(volumes []worldBrush, delta map[string]int) {
	if w.editSink == nil {
		return
	}
	entry := EditLogEntry{Tick: w.tick, Delta: delta}
	for _, v := range volumes {
		r := BrushRecord{
			Center:   [3]float64{v.center.X, v.center.Y, v.center.Z},
			Strength: v.strength,
			Material: v.material.String(),
			Preview:  v.opts.Preview,
		}
		switch {
		case v.smooth:
			r.Op = "smooth"
			r.Radius = v.radius
		case v.shape == voxel.Box:
			r.Op = "cube"
			r.Half = [3]float64{v.halfExtents.X, v.halfExtents.Y, v.halfExtents.Z}
		default:
			r.Op = "sphere"
			r.Radius = v.radius
		}
		entry.Brushes = append(entry.Brushes, r)
	}
	if err := w.editSink.WriteEdit(entry); err != nil {
		w.log.Printf("WARN edit journal: %v", err)
	}
}
