package assets

import (
	"fmt"

	"github.com/kd7tck/swissarmyNES/internal/project"
)

const sfxTableLimit = 256

// EncodeSFXTable builds the $D900 SFX table: one 5-byte record per sound
// effect — channel, priority, volEnvId, pitchEnvId, dutyEnvId — using the
// envelope indices EncodeEnvelopes derived for each SFX (spec §4.7).
func EncodeSFXTable(sfx []project.SoundEffect, envelopes EnvelopeTable) ([]byte, error) {
	blob := make([]byte, 0, len(sfx)*5)
	for i, s := range sfx {
		blob = append(blob,
			byte(s.Channel),
			byte(s.Priority),
			byte(envelopes.SFXVolIndex[i]),
			byte(envelopes.SFXPitchIndex[i]),
			byte(envelopes.SFXDutyIndex[i]),
		)
	}
	if len(blob) > sfxTableLimit {
		return nil, fmt.Errorf("SFX table size %d exceeds %d-byte limit", len(blob), sfxTableLimit)
	}
	return padTo(blob, sfxTableLimit), nil
}
