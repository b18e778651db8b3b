package assets

import (
	"fmt"
	"sort"

	"github.com/kd7tck/swissarmyNES/internal/project"
)

const (
	musicBaseAddr   = 0xD100
	musicBlobLimit  = 896
	framesPerColumn = 8
	silencePitch    = 0xFF
)

// EncodeMusic builds the $D100 music blob: a track count, an absolute
// pointer table, then one variable-length track record per track (spec
// §4.7). Each track's notes are column-sorted; gaps between note starts
// become silence runs with pitch $FF, one column = 8 frames.
func EncodeMusic(tracks []project.AudioTrack) ([]byte, error) {
	headers := make([][]byte, len(tracks))
	for i, t := range tracks {
		headers[i] = encodeTrackRecord(t)
	}

	pointerTableSize := len(tracks) * 2
	headerStart := musicBaseAddr + 1 + pointerTableSize

	pointers := make([]uint16, len(tracks))
	offset := headerStart
	for i, h := range headers {
		pointers[i] = uint16(offset)
		offset += len(h)
	}

	blob := make([]byte, 0, offset-musicBaseAddr)
	blob = append(blob, byte(len(tracks)))
	for _, p := range pointers {
		blob = append(blob, byte(p&0xFF), byte(p>>8))
	}
	for _, h := range headers {
		blob = append(blob, h...)
	}

	if len(blob) > musicBlobLimit {
		return nil, fmt.Errorf("music blob size %d exceeds %d-byte limit", len(blob), musicBlobLimit)
	}
	return blob, nil
}

// resolveEnvID lowers an AudioTrack's optional envelope reference (by
// index into the user envelope table) to its table byte, or $FF ("no
// envelope") when absent.
func resolveEnvID(id *int) byte {
	if id == nil {
		return noEnvelopeID
	}
	return byte(*id)
}

// encodeTrackRecord lowers one AudioTrack into `channel, instrument,
// priority, volEnv, pitchEnv, arpeggioEnv, (duration,pitch)*, 0` (spec
// §4.5 audio encoder note, §4.7).
func encodeTrackRecord(t project.AudioTrack) []byte {
	out := []byte{
		byte(t.Channel),
		byte(t.Instrument),
		byte(t.Priority),
		resolveEnvID(t.VolEnv),
		resolveEnvID(t.PitchEnv),
		resolveEnvID(t.ArpeggioEnv),
	}

	notes := append([]project.Note(nil), t.Notes...)
	sort.Slice(notes, func(i, j int) bool { return notes[i].Col < notes[j].Col })

	col := 0
	for _, n := range notes {
		if n.Col > col {
			gap := n.Col - col
			out = append(out, byte(gap*framesPerColumn), silencePitch)
		}
		out = append(out, byte(n.Duration*framesPerColumn), byte(n.Pitch))
		col = n.Col + n.Duration
	}
	out = append(out, 0)
	return out
}
