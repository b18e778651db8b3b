package assets

import (
	"fmt"

	"github.com/kd7tck/swissarmyNES/internal/project"
)

const envelopeTableLimit = 1536

// noEnvelopeID is the sentinel used by AudioTrack/SoundEffect table records
// to mean "no envelope assigned" (spec §4.5 "volEnv($FF=none)").
const noEnvelopeID = 0xFF

// EnvelopeTable is the combined $DA00 envelope blob plus the index
// resolution a caller needs to reference individual envelopes from music
// and SFX table records (spec §4.7: "user envelopes followed by
// SFX-derived (vol/pitch/duty) envelopes").
type EnvelopeTable struct {
	Blob []byte

	// UserIndex maps a user-authored envelope's name to its index in the
	// combined table.
	UserIndex map[string]int

	// Per-SFX derived envelope indices, aligned 1:1 with the input
	// []project.SoundEffect slice order.
	SFXVolIndex   []int
	SFXPitchIndex []int
	SFXDutyIndex  []int
}

// EncodeEnvelopes builds the combined envelope table: user envelopes first,
// then three derived envelopes (volume, pitch, duty) per sound effect, in
// SFX declaration order (spec §4.7).
func EncodeEnvelopes(userEnvs []project.EnvelopeDef, sfx []project.SoundEffect) (EnvelopeTable, error) {
	table := EnvelopeTable{UserIndex: map[string]int{}}
	var blob []byte

	idx := 0
	for _, env := range userEnvs {
		table.UserIndex[env.Name] = idx
		blob = append(blob, encodeEnvelopeEntry(env.Steps, env.LoopIndex)...)
		idx++
	}

	table.SFXVolIndex = make([]int, len(sfx))
	table.SFXPitchIndex = make([]int, len(sfx))
	table.SFXDutyIndex = make([]int, len(sfx))
	for i, s := range sfx {
		table.SFXVolIndex[i] = idx
		blob = append(blob, encodeSequenceEntry(s.VolSequence)...)
		idx++
		table.SFXPitchIndex[i] = idx
		blob = append(blob, encodeSequenceEntry(s.PitchSequence)...)
		idx++
		table.SFXDutyIndex[i] = idx
		blob = append(blob, encodeSequenceEntry(s.DutySequence)...)
		idx++
	}

	if len(blob) > envelopeTableLimit {
		return EnvelopeTable{}, fmt.Errorf("envelope table size %d exceeds %d-byte limit", len(blob), envelopeTableLimit)
	}
	table.Blob = padTo(blob, envelopeTableLimit)
	return table, nil
}

// encodeEnvelopeEntry lowers one (value,duration) step sequence into
// `loopIndex(1B), (value,duration)*, 0, 0` (spec §4.7). A nil loop index
// encodes as $FF ("no loop"), consistent with the $FF-means-none
// convention used elsewhere in the table formats.
func encodeEnvelopeEntry(steps [][2]int, loopIndex *int) []byte {
	out := make([]byte, 0, 1+len(steps)*2+2)
	if loopIndex != nil {
		out = append(out, byte(*loopIndex))
	} else {
		out = append(out, noEnvelopeID)
	}
	for _, step := range steps {
		out = append(out, byte(step[0]), byte(step[1]))
	}
	out = append(out, 0, 0)
	return out
}

// encodeSequenceEntry lowers an SFX-derived raw value sequence into the
// same envelope entry shape, one frame of duration per step and no loop.
func encodeSequenceEntry(seq []int) []byte {
	out := make([]byte, 0, 1+len(seq)*2+2)
	out = append(out, noEnvelopeID)
	for _, v := range seq {
		out = append(out, byte(v), 1)
	}
	out = append(out, 0, 0)
	return out
}

func padTo(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}
