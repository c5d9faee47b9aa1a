// Package encoding implements the compact wire form for chunk material
// fields: long runs of one material collapse to (id, count) uvarint pairs,
// base64-wrapped so the result embeds cleanly in JSON and gob payloads.
package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// maxRun bounds one decoded run. Far above any grid in use; it exists so a
// corrupt payload cannot balloon the allocation.
const maxRun = 1 << 24

// EncodeRLE packs material ids as repeated (id, count) uvarint pairs.
func EncodeRLE(ids []uint8) string {
	var raw []byte
	for i := 0; i < len(ids); {
		id := ids[i]
		j := i + 1
		for j < len(ids) && ids[j] == id {
			j++
		}
		raw = binary.AppendUvarint(raw, uint64(id))
		raw = binary.AppendUvarint(raw, uint64(j-i))
		i = j
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeRLE expands a string produced by EncodeRLE.
func DecodeRLE(s string) ([]uint8, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	out := make([]uint8, 0, len(raw))
	for off := 0; off < len(raw); {
		id, n := binary.Uvarint(raw[off:])
		if n <= 0 || id > 0xFF {
			return nil, fmt.Errorf("corrupt material id at offset %d", off)
		}
		off += n
		count, n := binary.Uvarint(raw[off:])
		if n <= 0 || count == 0 || count > maxRun {
			return nil, fmt.Errorf("corrupt run length at offset %d", off)
		}
		off += n
		for ; count > 0; count-- {
			out = append(out, uint8(id))
		}
	}
	return out, nil
}
