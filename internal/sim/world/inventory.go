package world

import "voxelforge.dev/internal/sim/world/voxel"

// Inventory is the session-global material ledger. It changes only on
// 0.5-crossings: broken voxels add, built voxels subtract. Owned by the
// controller; edits receive it as an explicit delta, never as a retained
// reference.
type Inventory map[voxel.Material]int

func NewInventory() Inventory {
	return make(Inventory)
}

// Apply folds an edit's delta into the ledger.
func (inv Inventory) Apply(d voxel.Delta) {
	for m, n := range d {
		inv[m] += n
		if inv[m] == 0 {
			delete(inv, m)
		}
	}
}

func (inv Inventory) Count(m voxel.Material) int { return inv[m] }

// Counts renders the ledger with material names, for telemetry.
func (inv Inventory) Counts() map[string]int {
	if len(inv) == 0 {
		return nil
	}
	out := make(map[string]int, len(inv))
	for m, n := range inv {
		out[m.String()] = n
	}
	return out
}
