// Package protocol defines the observer-facing message types. Schemas under
// schemas/ mirror these structs and are validated in tests.
package protocol

// Version is the observer protocol version.
const Version = "1.0"

const (
	TypeBootstrap = "BOOTSTRAP"
	TypeTelemetry = "TELEMETRY"
)

// WorldParams is the immutable per-session configuration an observer needs
// to interpret telemetry.
type WorldParams struct {
	TickRateHz int     `json:"tick_rate_hz"`
	Seed       int64   `json:"seed"`
	ChunkEdge  float64 `json:"chunk_edge"`
	GridDim    int     `json:"grid_dim"`
	IsoLevel   float64 `json:"iso_level"`
	ViewRadius int     `json:"view_radius"`
	VertRadius int     `json:"vertical_radius"`
}

// BootstrapResponse answers the observer's initial GET.
type BootstrapResponse struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	MaterialPalette []string    `json:"material_palette"`
}

// PoolStats reports chunk-cell pool occupancy.
type PoolStats struct {
	Allocated int `json:"allocated"`
	Free      int `json:"free"`
	Max       int `json:"max"`
}

// TelemetryFrame is the read-only per-interval world report streamed to
// observers.
type TelemetryFrame struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	ObserverChunk [3]int `json:"observer_chunk"`
	LoadedChunks  int    `json:"loaded_chunks"`

	// QueueDepths keys are pipeline stage names, StageCounts keys are chunk
	// lifecycle stage names.
	QueueDepths map[string]int `json:"queue_depths"`
	StageCounts map[string]int `json:"stage_counts"`

	Pool      PoolStats      `json:"pool"`
	Inventory map[string]int `json:"inventory,omitempty"`
}
