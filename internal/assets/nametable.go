package assets

import "github.com/kd7tck/swissarmyNES/internal/project"

const nametableBlobSize = 1024 // 960 tile bytes + 64 attribute bytes

// EncodeNametable builds the $D500 nametable blob from the first entry in
// nametables, or an all-zero blob if none were supplied (spec §6: "first
// one injected at $D500").
func EncodeNametable(nametables []project.Nametable) []byte {
	blob := make([]byte, nametableBlobSize)
	if len(nametables) == 0 {
		return blob
	}
	nt := nametables[0]
	copy(blob[:960], nt.Data[:])
	copy(blob[960:], nt.Attrs[:])
	return blob
}
